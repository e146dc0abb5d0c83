package gateway

import (
	"github.com/kbukum/watershed/geo"
)

// AlgorithmID identifies one external hydrological operation.
type AlgorithmID string

const (
	FillSinks           AlgorithmID = "fill-sinks"
	D8FlowDirection     AlgorithmID = "d8-flow-direction"
	FlowAccumulation    AlgorithmID = "flow-accumulation"
	StreamExtraction    AlgorithmID = "stream-extraction-by-threshold"
	RecursiveWatersheds AlgorithmID = "recursive-watershed-basins"
)

// Algorithms lists every algorithm in pipeline order.
func Algorithms() []AlgorithmID {
	return []AlgorithmID{FillSinks, D8FlowDirection, FlowAccumulation, StreamExtraction, RecursiveWatersheds}
}

// OutputKind reports whether the algorithm writes a raster or a vector.
func (a AlgorithmID) OutputKind() geo.ArtifactKind {
	if a == RecursiveWatersheds {
		return geo.KindVector
	}
	return geo.KindRaster
}

func (a AlgorithmID) String() string { return string(a) }
