package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/watershed/component"
)

// Status values attached to run, stage and operation metrics.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Config controls OTLP export. Telemetry is off unless Enabled is set.
type Config struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Telemetry is the component owning the tracer and meter providers.
// When disabled it installs nothing and the global no-op providers stay in place.
type Telemetry struct {
	cfg         Config
	serviceName string
	version     string
	environment string

	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	metrics *Metrics
}

var _ component.Component = (*Telemetry)(nil)

// NewTelemetry creates the telemetry component.
func NewTelemetry(cfg Config, serviceName, version, environment string) *Telemetry {
	cfg.ApplyDefaults()
	return &Telemetry{cfg: cfg, serviceName: serviceName, version: version, environment: environment}
}

func (t *Telemetry) Name() string { return "telemetry" }

// Start installs exporters when enabled and creates the metric instruments.
func (t *Telemetry) Start(ctx context.Context) error {
	if t.cfg.Enabled {
		tp, err := InitTracer(ctx, TracerConfig{
			ServiceName:    t.serviceName,
			ServiceVersion: t.version,
			Environment:    t.environment,
			Endpoint:       t.cfg.Endpoint,
			Insecure:       t.cfg.Insecure,
			SampleRate:     t.cfg.SampleRate,
		})
		if err != nil {
			return err
		}
		t.tp = tp

		mp, err := InitMeter(ctx, MeterConfig{
			ServiceName:    t.serviceName,
			ServiceVersion: t.version,
			Environment:    t.environment,
			Endpoint:       t.cfg.Endpoint,
			Insecure:       t.cfg.Insecure,
			Interval:       t.cfg.MetricInterval,
		})
		if err != nil {
			_ = tp.Shutdown(ctx)
			t.tp = nil
			return err
		}
		t.mp = mp
	}

	metrics, err := NewMetrics(Meter(t.serviceName))
	if err != nil {
		return err
	}
	t.metrics = metrics
	return nil
}

// Stop flushes and shuts down the exporters.
func (t *Telemetry) Stop(ctx context.Context) error {
	var errs []error
	if t.tp != nil {
		if err := t.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
		t.tp = nil
	}
	if t.mp != nil {
		if err := t.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
		t.mp = nil
	}
	return stderrors.Join(errs...)
}

func (t *Telemetry) Health(_ context.Context) component.Health {
	h := component.Health{Name: t.Name(), Status: component.StatusHealthy}
	if !t.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

func (t *Telemetry) Describe() component.Description {
	details := "disabled"
	if t.cfg.Enabled {
		details = fmt.Sprintf("otlp http %s sample=%.2f", t.cfg.Endpoint, t.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}

// Metrics returns the instruments created by Start, or nil before Start.
func (t *Telemetry) Metrics() *Metrics { return t.metrics }
