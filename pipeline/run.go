package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/stage"
	"github.com/kbukum/watershed/stats"
)

// Keys of Run.Outputs.
const (
	OutputFilledDEM        = "filled_dem"
	OutputFlowDirection    = "flow_direction"
	OutputFlowAccumulation = "flow_accumulation"
	OutputStreamNetwork    = "stream_network"
	OutputWatersheds       = "watersheds"
	OutputStatistics       = "statistics"
)

var stageOutputs = map[stage.Name]string{
	stage.Fill:                 OutputFilledDEM,
	stage.FlowDirection:        OutputFlowDirection,
	stage.FlowAccumulation:     OutputFlowAccumulation,
	stage.StreamNetwork:        OutputStreamNetwork,
	stage.WatershedDelineation: OutputWatersheds,
}

// Run is one execution of the pipeline.
type Run struct {
	ID     string
	Config Config
	// Stages holds one result per executed stage, in order.
	Stages []stage.Result
	// Outputs maps output keys to the paths written so far.
	Outputs map[string]string
	// Summary is set once statistics are computed.
	Summary    *stats.Summary
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time

	machine   *Machine
	artifacts *stage.State
}

func newRun(cfg Config, stages int) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Config:    cfg,
		Outputs:   make(map[string]string),
		StartedAt: time.Now(),
		machine:   NewMachine(stages),
	}
}

// State returns the current state of the run.
func (r *Run) State() State { return r.machine.Current() }

// Transitions returns every state the run went through.
func (r *Run) Transitions() []State { return r.machine.History() }

// Succeeded reports whether the run completed.
func (r *Run) Succeeded() bool { return r.State() == Succeeded }

// Duration is the wall time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedStage returns the stage that failed, or "" when the run failed
// outside a stage or did not fail.
func (r *Run) FailedStage() stage.Name {
	if n := len(r.Stages); n > 0 && !r.Stages[n-1].OK() {
		return r.Stages[n-1].Stage
	}
	return ""
}

// Code returns the error code of a failed run.
func (r *Run) Code() errors.ErrorCode { return errors.CodeOf(r.Err) }
