package stage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/gateway"
	"github.com/kbukum/watershed/geo"
)

// Name identifies a stage.
type Name string

const (
	Fill                 Name = "fill"
	FlowDirection        Name = "flow_direction"
	FlowAccumulation     Name = "flow_accumulation"
	StreamNetwork        Name = "stream_network"
	WatershedDelineation Name = "watershed_delineation"
)

// Output file names, one per stage, overwritten on rerun.
const (
	FilledDEMFile        = "filled_dem.tif"
	FlowDirectionFile    = "flow_direction.tif"
	FlowAccumulationFile = "flow_accumulation.tif"
	StreamNetworkFile    = "stream_network.tif"
	WatershedsFile       = "watersheds.shp"
)

// Env is what a runner needs from the run.
type Env struct {
	Gateway   gateway.Gateway
	State     *State
	OutputDir string
	// Threshold is the stream accumulation threshold in cells.
	Threshold int
}

// Runner executes one stage.
type Runner interface {
	Name() Name
	Algorithm() gateway.AlgorithmID
	// OutputFile is the file name the stage writes under Env.OutputDir.
	OutputFile() string
	Run(ctx context.Context, env Env) Result
}

// Default returns the five runners in dependency order.
func Default() []Runner {
	return []Runner{
		NewFill(),
		NewFlowDirection(),
		NewFlowAccumulation(),
		NewStreamNetwork(),
		NewWatershedDelineation(),
	}
}

// runner is the shared shape of every stage: build params from state,
// invoke, check the artifact type and publish it on out.
type runner[T geo.Artifact] struct {
	name   Name
	alg    gateway.AlgorithmID
	file   string
	out    Port[T]
	params func(env Env) (gateway.Params, error)
}

func (r *runner[T]) Name() Name                     { return r.name }
func (r *runner[T]) Algorithm() gateway.AlgorithmID { return r.alg }
func (r *runner[T]) OutputFile() string             { return r.file }

func (r *runner[T]) Run(ctx context.Context, env Env) Result {
	started := time.Now()
	if env.Gateway == nil || env.State == nil {
		return Failure(r.name, fmt.Errorf("stage environment is incomplete"), started)
	}
	params, err := r.params(env)
	if err != nil {
		return Failure(r.name, err, started)
	}

	path := filepath.Join(env.OutputDir, r.file)
	artifact, err := env.Gateway.Invoke(ctx, params, path)
	if err != nil {
		return Failure(r.name, err, started)
	}
	typed, ok := artifact.(T)
	if !ok {
		err := fmt.Errorf("expected %T output, got %T", *new(T), artifact)
		return Failure(r.name, errors.AlgorithmExecutionFailed(string(r.alg), "", err).WithDetail(errors.DetailArtifact, path), started)
	}
	Write(env.State, r.out, typed)
	return Success(r.name, typed, started)
}

// NewFill fills sinks in the input DEM.
func NewFill() Runner {
	return &runner[*geo.RasterArtifact]{
		name: Fill, alg: gateway.FillSinks, file: FilledDEMFile, out: FilledDEMPort,
		params: func(env Env) (gateway.Params, error) {
			dem, err := Read(env.State, DEMPort)
			if err != nil {
				return nil, err
			}
			return gateway.FillSinksParams{DEM: dem.Path}, nil
		},
	}
}

// NewFlowDirection derives D8 directions from the filled DEM.
func NewFlowDirection() Runner {
	return &runner[*geo.RasterArtifact]{
		name: FlowDirection, alg: gateway.D8FlowDirection, file: FlowDirectionFile, out: FlowDirectionPort,
		params: func(env Env) (gateway.Params, error) {
			filled, err := Read(env.State, FilledDEMPort)
			if err != nil {
				return nil, err
			}
			return gateway.FlowDirectionParams{Elevation: filled.Path}, nil
		},
	}
}

// NewFlowAccumulation counts upstream cells along the direction raster.
func NewFlowAccumulation() Runner {
	return &runner[*geo.RasterArtifact]{
		name: FlowAccumulation, alg: gateway.FlowAccumulation, file: FlowAccumulationFile, out: FlowAccumulationPort,
		params: func(env Env) (gateway.Params, error) {
			dir, err := Read(env.State, FlowDirectionPort)
			if err != nil {
				return nil, err
			}
			return gateway.FlowAccumulationParams{Direction: dir.Path}, nil
		},
	}
}

// NewStreamNetwork extracts the stream raster. Its output is informational:
// watershed delineation does not read it.
func NewStreamNetwork() Runner {
	return &runner[*geo.RasterArtifact]{
		name: StreamNetwork, alg: gateway.StreamExtraction, file: StreamNetworkFile, out: StreamNetworkPort,
		params: func(env Env) (gateway.Params, error) {
			acc, err := Read(env.State, FlowAccumulationPort)
			if err != nil {
				return nil, err
			}
			if env.Threshold <= 0 {
				return nil, errors.InvalidInput("stream_threshold", fmt.Sprintf("must be a positive integer, got %d", env.Threshold))
			}
			return gateway.StreamExtractionParams{Accumulation: acc.Path, Threshold: env.Threshold}, nil
		},
	}
}

// NewWatershedDelineation builds one basin polygon per pour point from the
// direction raster.
func NewWatershedDelineation() Runner {
	return &runner[*geo.VectorArtifact]{
		name: WatershedDelineation, alg: gateway.RecursiveWatersheds, file: WatershedsFile, out: WatershedsPort,
		params: func(env Env) (gateway.Params, error) {
			dir, err := Read(env.State, FlowDirectionPort)
			if err != nil {
				return nil, err
			}
			pts, err := Read(env.State, PourPointsPort)
			if err != nil {
				return nil, err
			}
			return gateway.WatershedParams{Direction: dir.Path, PourPoints: pts.Path}, nil
		},
	}
}
