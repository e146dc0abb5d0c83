package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/watershed/component"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestStartSpan_RecordsAttributesAndError(t *testing.T) {
	exporter := installRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanStage)
	SetSpanAttribute(ctx, AttrStage, "fill")
	SetSpanAttribute(ctx, AttrThreshold, 1000)
	SetSpanAttribute(ctx, AttrFeatureCount, int64(2))
	SetSpanAttribute(ctx, "ratio", 0.5)
	SetSpanAttribute(ctx, "ok", true)
	SetSpanAttribute(ctx, "files", []string{"a", "b"})
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, errors.New("boom"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != SpanStage {
		t.Errorf("expected span %q, got %q", SpanStage, got.Name)
	}
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status.Code)
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range got.Attributes {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrStage].AsString() != "fill" {
		t.Errorf("expected stage attribute, got %v", attrs[AttrStage])
	}
	if attrs[AttrThreshold].AsInt64() != 1000 {
		t.Errorf("expected threshold attribute, got %v", attrs[AttrThreshold])
	}
	if _, ok := attrs["ignored"]; ok {
		t.Error("expected unsupported attribute type to be ignored")
	}
	if len(got.Events) != 1 {
		t.Errorf("expected one error event, got %d", len(got.Events))
	}
}

func TestSpanHelpers_NoRecordingSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, errors.New("no span"))
	if SpanFromContext(ctx) == nil {
		t.Fatal("expected non-nil no-op span")
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
	}
	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); got != tt.want {
			t.Errorf("samplerFor(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
	if samplerFor(0.5).Description() == "AlwaysOnSampler" {
		t.Error("expected ratio sampler for 0.5")
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("watershed", "1.2.3", "test")
	if err != nil {
		t.Fatalf("newResource failed: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if kv.Key == "service.name" && kv.Value.AsString() == "watershed" {
			found = true
		}
	}
	if !found {
		t.Error("expected service.name attribute")
	}
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	ctx := context.Background()
	metrics.RecordRun(ctx, StatusOK, time.Second)
	metrics.RecordStage(ctx, "fill", StatusOK, 20*time.Millisecond)
	metrics.RecordStage(ctx, "flow-direction", StatusError, 5*time.Millisecond)
	metrics.RecordOperation(ctx, "qgis", "fill-sinks", StatusOK, 10*time.Millisecond)
	metrics.RecordError(ctx, "ALGORITHM_EXECUTION_FAILED", "pipeline")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	for _, want := range []string{"run.total", "run.duration", "stage.total", "stage.duration", "operation.total", "operation.duration", "error.total"} {
		if !names[want] {
			t.Errorf("expected metric %q to be recorded", want)
		}
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	metrics.RecordError(context.Background(), "TIMEOUT", "gateway")
}

func TestTelemetry_Disabled(t *testing.T) {
	tel := NewTelemetry(Config{}, "watershed", "dev", "test")
	ctx := context.Background()
	if err := tel.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if tel.Metrics() == nil {
		t.Fatal("expected metrics after Start")
	}
	if tel.tp != nil || tel.mp != nil {
		t.Error("expected no exporters when disabled")
	}
	if h := tel.Health(ctx); h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("unexpected health %+v", h)
	}
	if tel.Describe().Details != "disabled" {
		t.Errorf("unexpected description %+v", tel.Describe())
	}
	if err := tel.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.MetricInterval != 15*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
