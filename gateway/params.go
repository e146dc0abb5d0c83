package gateway

// Params is the typed parameter set of one algorithm. Each implementation
// enumerates the recognized fields and validates their ranges with struct
// tags; backends translate them to their own key names.
type Params interface {
	Algorithm() AlgorithmID
	// Inputs lists the artifact paths the call reads.
	Inputs() []string
}

// FillSinksParams removes spurious depressions from a DEM.
type FillSinksParams struct {
	DEM string `json:"dem" validate:"required"`
}

func (FillSinksParams) Algorithm() AlgorithmID { return FillSinks }
func (p FillSinksParams) Inputs() []string     { return []string{p.DEM} }

// FlowDirectionParams derives D8 directions from a filled DEM.
type FlowDirectionParams struct {
	Elevation string `json:"elevation" validate:"required"`
}

func (FlowDirectionParams) Algorithm() AlgorithmID { return D8FlowDirection }
func (p FlowDirectionParams) Inputs() []string     { return []string{p.Elevation} }

// FlowAccumulationParams counts upstream cells from a direction raster.
type FlowAccumulationParams struct {
	Direction string `json:"direction" validate:"required"`
}

func (FlowAccumulationParams) Algorithm() AlgorithmID { return FlowAccumulation }
func (p FlowAccumulationParams) Inputs() []string     { return []string{p.Direction} }

// StreamExtractionParams marks cells whose accumulation reaches Threshold.
type StreamExtractionParams struct {
	Accumulation string `json:"accumulation" validate:"required"`
	Threshold    int    `json:"accumulation_threshold" validate:"gt=0"`
}

func (StreamExtractionParams) Algorithm() AlgorithmID { return StreamExtraction }
func (p StreamExtractionParams) Inputs() []string     { return []string{p.Accumulation} }

// WatershedParams delineates one basin polygon per pour point.
type WatershedParams struct {
	Direction  string `json:"direction" validate:"required"`
	PourPoints string `json:"pour_points" validate:"required"`
}

func (WatershedParams) Algorithm() AlgorithmID { return RecursiveWatersheds }
func (p WatershedParams) Inputs() []string     { return []string{p.Direction, p.PourPoints} }
