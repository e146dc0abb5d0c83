package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/gateway"
	"github.com/kbukum/watershed/geo"
	"github.com/kbukum/watershed/inputs"
	"github.com/kbukum/watershed/logger"
	"github.com/kbukum/watershed/observability"
	"github.com/kbukum/watershed/stage"
	"github.com/kbukum/watershed/stats"
)

// InputValidator checks the run inputs before any stage executes.
type InputValidator interface {
	Validate(ctx context.Context, demPath, pointsPath string) (*inputs.Validated, error)
}

// Summarizer computes statistics over the delineated watersheds.
type Summarizer interface {
	Summarize(ctx context.Context, watersheds *geo.VectorArtifact, filledDEM *geo.RasterArtifact) (*stats.Summary, error)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithMetrics resolves run and stage metrics at run time; nil disables them.
func WithMetrics(metrics func() *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = metrics }
}

// WithRunners replaces the default stage sequence.
func WithRunners(runners ...stage.Runner) Option {
	return func(o *Orchestrator) { o.runners = runners }
}

// Orchestrator drives runs through the state machine. It is safe to reuse
// for sequential runs; concurrent runs must not share an output directory.
type Orchestrator struct {
	validator  InputValidator
	gateway    gateway.Gateway
	summarizer Summarizer
	runners    []stage.Runner
	log        *logger.Logger
	metrics    func() *observability.Metrics
}

// New creates an Orchestrator running the default stages.
func New(validator InputValidator, gw gateway.Gateway, summarizer Summarizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		validator:  validator,
		gateway:    gw,
		summarizer: summarizer,
		runners:    stage.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("pipeline")
	}
	return o
}

// Run executes one pipeline run. The returned Run is never nil and records
// how far the run got; the error is the reason of a Failed run.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) (*Run, error) {
	run := newRun(cfg, len(o.runners))

	ctx = logger.ContextWithRunID(ctx, run.ID)
	ctx, span := observability.StartSpan(ctx, observability.SpanPipeline)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, run.ID)
	observability.SetSpanAttribute(ctx, observability.AttrThreshold, cfg.StreamThreshold)

	o.log.WithContext(ctx).Info("pipeline started", logger.Fields(
		"dem", cfg.DEM,
		"pour_points", cfg.PourPoints,
		"output_dir", cfg.OutputDir,
		"stream_threshold", cfg.StreamThreshold,
	))

	validated, err := o.validate(ctx, run)
	if err != nil {
		return o.fail(ctx, run, err)
	}
	if err := o.runStages(ctx, run, validated); err != nil {
		return o.fail(ctx, run, err)
	}
	if err := o.aggregate(ctx, run); err != nil {
		return o.fail(ctx, run, err)
	}
	if err := o.move(ctx, run, Succeeded); err != nil {
		return o.fail(ctx, run, err)
	}
	o.finish(ctx, run)

	o.log.WithContext(ctx).Info("pipeline succeeded", logger.Fields(
		"watersheds", len(run.Summary.Watersheds),
		logger.FieldDuration, run.Duration().Milliseconds(),
	))
	return run, nil
}

func (o *Orchestrator) validate(ctx context.Context, run *Run) (*inputs.Validated, error) {
	if err := o.move(ctx, run, Validating); err != nil {
		return nil, err
	}
	if err := run.Config.Validate(); err != nil {
		return nil, err
	}
	validated, err := o.validator.Validate(ctx, run.Config.DEM, run.Config.PourPoints)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(run.Config.OutputDir, 0o755); err != nil {
		return nil, errors.InvalidInput("output_dir", err.Error()).WithCause(err)
	}
	return validated, nil
}

func (o *Orchestrator) runStages(ctx context.Context, run *Run, validated *inputs.Validated) error {
	env := stage.Env{
		Gateway:   o.gateway,
		State:     stage.NewState(),
		OutputDir: run.Config.OutputDir,
		Threshold: run.Config.StreamThreshold,
	}
	stage.Write(env.State, stage.DEMPort, validated.DEM)
	stage.Write(env.State, stage.PourPointsPort, validated.PourPoints)
	run.artifacts = env.State

	for i, r := range o.runners {
		if err := o.move(ctx, run, Running(i)); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return errors.Canceled("pipeline", err).WithDetail(errors.DetailStage, string(r.Name()))
		}
		res := o.runStage(ctx, r, env)
		run.Stages = append(run.Stages, res)
		if !res.OK() {
			return res.Err
		}
		if key, ok := stageOutputs[r.Name()]; ok {
			run.Outputs[key] = res.Path()
		}
	}
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, r stage.Runner, env stage.Env) stage.Result {
	ctx, span := observability.StartSpan(ctx, observability.SpanStage+"."+string(r.Name()))
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrStage, string(r.Name()))
	observability.SetSpanAttribute(ctx, observability.AttrAlgorithm, string(r.Algorithm()))

	log := o.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldStage, string(r.Name()),
		logger.FieldAlgorithm, string(r.Algorithm()),
	))
	log.Info("stage started")

	res := r.Run(ctx, env)
	if m := o.resolveMetrics(); m != nil {
		m.RecordStage(ctx, string(res.Stage), string(res.Status), res.Duration)
	}
	if !res.OK() {
		observability.SetSpanError(ctx, res.Err)
		log.Error("stage failed", logger.Fields(
			logger.FieldCode, string(errors.CodeOf(res.Err)),
			logger.FieldError, res.Err.Error(),
			logger.FieldDuration, res.Duration.Milliseconds(),
		))
		return res
	}
	observability.SetSpanAttribute(ctx, observability.AttrArtifact, res.Path())
	log.Info("stage finished", logger.Fields(
		logger.FieldArtifact, res.Path(),
		logger.FieldDuration, res.Duration.Milliseconds(),
	))
	return res
}

func (o *Orchestrator) aggregate(ctx context.Context, run *Run) error {
	if err := o.move(ctx, run, Aggregating); err != nil {
		return err
	}
	path := filepath.Join(run.Config.OutputDir, stats.ReportFile)
	// A report left by an earlier run must not outlive a failed aggregation.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Internal(err).WithDetail(errors.DetailArtifact, path)
	}

	if run.artifacts == nil {
		return errors.Internal(fmt.Errorf("no stage artifacts to aggregate"))
	}
	watersheds, err := stage.Read(run.artifacts, stage.WatershedsPort)
	if err != nil {
		return errors.Internal(err)
	}
	filled, err := stage.Read(run.artifacts, stage.FilledDEMPort)
	if err != nil {
		return errors.Internal(err)
	}

	summary, err := o.summarizer.Summarize(ctx, watersheds, filled)
	if err != nil {
		return err
	}
	if err := stats.WriteReport(path, summary); err != nil {
		return errors.Internal(err).WithDetail(errors.DetailArtifact, path)
	}
	run.Summary = summary
	run.Outputs[OutputStatistics] = path
	return nil
}

func (o *Orchestrator) move(ctx context.Context, run *Run, to State) error {
	from := run.State()
	if err := run.machine.Transition(from, to); err != nil {
		return errors.Internal(err)
	}
	o.log.WithContext(ctx).Debug("state changed", logger.Fields(
		logger.FieldPhase, to.String(),
		"from", from.String(),
	))
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, run *Run, err error) (*Run, error) {
	run.Err = err
	if from := run.State(); !from.Terminal() {
		if terr := run.machine.Transition(from, Failed); terr != nil {
			o.log.WithContext(ctx).Error("cannot mark run failed", logger.Fields(logger.FieldError, terr.Error()))
		}
	}
	o.finish(ctx, run)

	code := string(errors.CodeOf(err))
	observability.SetSpanAttribute(ctx, observability.AttrErrorCode, code)
	observability.SetSpanError(ctx, err)
	if m := o.resolveMetrics(); m != nil {
		m.RecordError(ctx, code, "pipeline")
	}
	o.log.WithContext(ctx).Error("pipeline failed", logger.Fields(
		logger.FieldCode, code,
		logger.FieldStage, string(run.FailedStage()),
		logger.FieldError, err.Error(),
		logger.FieldDuration, run.Duration().Milliseconds(),
	))
	return run, err
}

func (o *Orchestrator) finish(ctx context.Context, run *Run) {
	run.FinishedAt = time.Now()
	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(run.State().Phase))
	observability.SetSpanAttribute(ctx, observability.AttrDurationMs, run.Duration().Milliseconds())
	if m := o.resolveMetrics(); m != nil {
		m.RecordRun(ctx, string(run.State().Phase), run.Duration())
	}
}

func (o *Orchestrator) resolveMetrics() *observability.Metrics {
	if o.metrics == nil {
		return nil
	}
	return o.metrics()
}
