package gateway

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sync"

	"github.com/kbukum/watershed/component"
	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/geo"
	"github.com/kbukum/watershed/logger"
	"github.com/kbukum/watershed/observability"
	"github.com/kbukum/watershed/provider"
	"github.com/kbukum/watershed/validation"
)

var (
	_ Gateway               = (*Toolbox)(nil)
	_ component.Component   = (*Toolbox)(nil)
	_ component.Describable = (*Toolbox)(nil)
)

// Option configures a Toolbox.
type Option func(*Toolbox)

// WithLogger sets the logger used for the call log.
func WithLogger(log *logger.Logger) Option {
	return func(t *Toolbox) { t.log = log }
}

// WithMetrics supplies the metric instruments. The function is resolved at
// Start, after the telemetry component has created them.
func WithMetrics(metrics func() *observability.Metrics) Option {
	return func(t *Toolbox) { t.metrics = metrics }
}

// WithLazyStart defers acquiring the backend from Start to the first Invoke.
// A run then validates its inputs before a missing toolbox can fail it.
func WithLazyStart() Option {
	return func(t *Toolbox) { t.lazy = true }
}

// Toolbox is the production Gateway. It is acquired once, by Start or by the
// first Invoke when lazy, and released with Stop at the end of the run.
type Toolbox struct {
	cfg       Config
	backend   Backend
	inspector geo.Inspector
	log       *logger.Logger
	metrics   func() *observability.Metrics
	lazy      bool

	mu      sync.RWMutex
	started bool
	// stopped keeps a lazy toolbox from being acquired again after Stop.
	stopped bool
	call    provider.RequestResponse[Invocation, Output]
}

// NewToolbox wraps backend. The inspector describes every produced artifact.
func NewToolbox(cfg Config, backend Backend, inspector geo.Inspector, opts ...Option) *Toolbox {
	cfg.ApplyDefaults()
	t := &Toolbox{
		cfg:       cfg,
		backend:   backend,
		inspector: inspector,
		log:       logger.WithComponent("toolbox"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Toolbox) Name() string { return "toolbox" }

// Start initializes the toolbox and loads its algorithm catalog. A lazy
// toolbox does nothing here.
func (t *Toolbox) Start(ctx context.Context) error {
	if t.lazy {
		return nil
	}
	return t.acquire(ctx)
}

func (t *Toolbox) acquire(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return nil
	}
	if err := provider.InitIfSupported(ctx, t.backend); err != nil {
		if errors.HasCode(err, errors.ErrCodeToolboxUnavailable) {
			return err
		}
		return errors.ToolboxUnavailable(t.backend.Name(), err.Error()).WithCause(err)
	}

	var metrics *observability.Metrics
	if t.metrics != nil {
		metrics = t.metrics()
	}
	t.call = provider.Chain(
		provider.WithTracing[Invocation, Output](observability.SpanToolboxCall),
		provider.WithLogging[Invocation, Output](t.log),
		provider.WithMetrics[Invocation, Output](metrics),
	)(t.backend)
	t.started = true

	t.log.Info("toolbox ready", map[string]interface{}{
		logger.FieldToolbox: t.backend.Name(),
		"version":           t.backend.Version(),
		"algorithms":        t.backend.Catalog().Len(),
	})
	return nil
}

// Stop releases the toolbox.
func (t *Toolbox) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = t.lazy
	if !t.started {
		return nil
	}
	t.started = false
	t.call = nil
	return provider.CloseIfSupported(ctx, t.backend)
}

// Health reports whether the toolbox is started and its backend reachable.
func (t *Toolbox) Health(ctx context.Context) component.Health {
	h := component.Health{Name: t.Name(), Status: component.StatusHealthy}
	t.mu.RLock()
	started, stopped := t.started, t.stopped
	t.mu.RUnlock()
	switch {
	case !started && t.lazy && !stopped:
		h.Message = "acquired on first call"
	case !started:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	case !t.backend.IsAvailable(ctx):
		h.Status, h.Message = component.StatusUnhealthy, "backend unavailable"
	}
	return h
}

// Describe implements component.Describable.
func (t *Toolbox) Describe() component.Description {
	details := t.backend.Name()
	if v := t.backend.Version(); v != "" {
		details += " " + v
	}
	t.mu.RLock()
	started := t.started
	t.mu.RUnlock()
	if t.lazy && !started {
		details += " (acquired on first call)"
	} else {
		details += fmt.Sprintf(" (%d algorithms)", t.backend.Catalog().Len())
	}
	return component.Description{Name: "Toolbox", Type: "toolbox", Details: details}
}

// Invoke runs one algorithm. A stale file at outputPath is removed first so
// a toolbox that silently writes nothing cannot pass off an old artifact.
func (t *Toolbox) Invoke(ctx context.Context, params Params, outputPath string) (geo.Artifact, error) {
	t.mu.RLock()
	call, started, stopped := t.call, t.started, t.stopped
	t.mu.RUnlock()
	if !started {
		if !t.lazy || stopped {
			return nil, errors.ToolboxUnavailable(t.backend.Name(), "toolbox not started")
		}
		if err := t.acquire(ctx); err != nil {
			return nil, err
		}
		t.mu.RLock()
		call = t.call
		t.mu.RUnlock()
		if call == nil {
			return nil, errors.ToolboxUnavailable(t.backend.Name(), "toolbox stopped")
		}
	}
	if params == nil {
		return nil, errors.MissingField("params")
	}
	alg := params.Algorithm()
	if err := validation.Validate(params); err != nil {
		return nil, withAlgorithm(err, alg)
	}
	if outputPath == "" {
		return nil, errors.MissingField("output_path").WithDetail(errors.DetailAlgorithm, string(alg))
	}
	if err := removeStale(outputPath); err != nil {
		return nil, errors.AlgorithmExecutionFailed(string(alg), "", err).WithDetail(errors.DetailArtifact, outputPath)
	}

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	out, err := call.Execute(ctx, Invocation{Params: params, OutputPath: outputPath})
	if err != nil {
		return nil, t.classify(ctx, alg, err)
	}
	if out.Path == "" {
		out.Path = outputPath
	}
	if _, err := os.Stat(out.Path); err != nil {
		return nil, errors.AlgorithmExecutionFailed(string(alg), out.Messages,
			fmt.Errorf("toolbox reported success but wrote no output: %w", err)).
			WithDetail(errors.DetailArtifact, out.Path)
	}

	artifact, err := t.describe(ctx, alg, out.Path)
	if err != nil {
		return nil, errors.AlgorithmExecutionFailed(string(alg), "", err).WithDetail(errors.DetailArtifact, out.Path)
	}
	return artifact, nil
}

func (t *Toolbox) describe(ctx context.Context, alg AlgorithmID, path string) (geo.Artifact, error) {
	if alg.OutputKind() == geo.KindVector {
		return t.inspector.DescribeVector(ctx, path)
	}
	return t.inspector.DescribeRaster(ctx, path)
}

func (t *Toolbox) classify(ctx context.Context, alg AlgorithmID, err error) error {
	op := fmt.Sprintf("algorithm %s", alg)
	switch {
	case stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Timeout(op).WithCause(err).WithDetail(errors.DetailAlgorithm, string(alg))
	case stderrors.Is(err, context.Canceled) || stderrors.Is(ctx.Err(), context.Canceled):
		return errors.Canceled(op, err).WithDetail(errors.DetailAlgorithm, string(alg))
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.WithDetail(errors.DetailAlgorithm, string(alg))
	}
	return errors.AlgorithmExecutionFailed(string(alg), "", err)
}

func withAlgorithm(err error, alg AlgorithmID) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.WithDetail(errors.DetailAlgorithm, string(alg))
	}
	return err
}

func removeStale(path string) error {
	for _, p := range geo.ShapefileSidecars(path) {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing stale output: %w", err)
		}
	}
	return nil
}
