// Package gatewaytest provides a deterministic in-memory Gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/gateway"
	"github.com/kbukum/watershed/geo"
	"github.com/kbukum/watershed/validation"
)

var _ gateway.Gateway = (*Stub)(nil)

// Call records one Invoke.
type Call struct {
	Algorithm  gateway.AlgorithmID
	Params     gateway.Params
	OutputPath string
}

// Responder produces the result of one algorithm call.
type Responder func(params gateway.Params, outputPath string) (geo.Artifact, error)

// Stub answers every algorithm with a canned artifact in CRS and Extent and
// writes a placeholder file at the output path, so callers can check what
// reached the disk. Individual algorithms can be overridden with Respond or
// FailWith.
type Stub struct {
	CRS    geo.CRS
	Extent geo.Extent
	// CellSize of canned rasters. Defaults to 30.
	CellSize float64
	// FeatureCount of the canned watershed layer. Defaults to 1.
	FeatureCount int64

	mu         sync.Mutex
	calls      []Call
	responders map[gateway.AlgorithmID]Responder
}

// New returns a Stub producing artifacts in crs over extent.
func New(crs geo.CRS, extent geo.Extent) *Stub {
	return &Stub{
		CRS:          crs,
		Extent:       extent,
		CellSize:     30,
		FeatureCount: 1,
		responders:   map[gateway.AlgorithmID]Responder{},
	}
}

// Respond overrides the result of alg.
func (s *Stub) Respond(alg gateway.AlgorithmID, r Responder) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responders[alg] = r
	return s
}

// FailWith makes alg fail with err and write nothing.
func (s *Stub) FailWith(alg gateway.AlgorithmID, err error) *Stub {
	return s.Respond(alg, func(gateway.Params, string) (geo.Artifact, error) { return nil, err })
}

// Invoke implements gateway.Gateway.
func (s *Stub) Invoke(ctx context.Context, params gateway.Params, outputPath string) (geo.Artifact, error) {
	if params == nil {
		return nil, errors.MissingField("params")
	}
	alg := params.Algorithm()

	s.mu.Lock()
	s.calls = append(s.calls, Call{Algorithm: alg, Params: params, OutputPath: outputPath})
	responder := s.responders[alg]
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.Canceled(fmt.Sprintf("algorithm %s", alg), err)
	}
	if err := validation.Validate(params); err != nil {
		return nil, err
	}
	if responder != nil {
		return responder(params, outputPath)
	}
	if err := os.WriteFile(outputPath, []byte("stub "+string(alg)+"\n"), 0o644); err != nil {
		return nil, errors.AlgorithmExecutionFailed(string(alg), "", err)
	}
	return s.Artifact(alg, outputPath), nil
}

// Artifact returns the canned descriptor for alg at path.
func (s *Stub) Artifact(alg gateway.AlgorithmID, path string) geo.Artifact {
	if alg.OutputKind() == geo.KindVector {
		return &geo.VectorArtifact{
			Path:         path,
			GeometryType: geo.GeometryPolygon,
			FeatureCount: s.FeatureCount,
			CRS:          s.CRS,
			Extent:       s.Extent,
			Fields:       []geo.Field{{Name: "VALUE", Type: "Integer"}},
		}
	}
	cols := int(s.Extent.Width() / s.CellSize)
	rows := int(s.Extent.Height() / s.CellSize)
	return &geo.RasterArtifact{
		Path:      path,
		CRS:       s.CRS,
		Width:     cols,
		Height:    rows,
		CellSizeX: s.CellSize,
		CellSizeY: s.CellSize,
		Extent:    s.Extent,
		Bands:     1,
		DataType:  "Float32",
	}
}

// Calls returns every recorded call in order.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Algorithms returns the algorithm of every recorded call in order.
func (s *Stub) Algorithms() []gateway.AlgorithmID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gateway.AlgorithmID, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Algorithm
	}
	return out
}

// Reset clears the call log.
func (s *Stub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
