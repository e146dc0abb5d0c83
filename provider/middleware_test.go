package provider_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	wserrors "github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/logger"
	"github.com/kbukum/watershed/observability"
	"github.com/kbukum/watershed/provider"
)

type call struct {
	Algorithm string
}

func (c call) Describe() map[string]any { return map[string]any{"algorithm": c.Algorithm} }

type echoProvider struct {
	name string
	err  error
}

func (p *echoProvider) Name() string                       { return p.name }
func (p *echoProvider) IsAvailable(_ context.Context) bool { return true }
func (p *echoProvider) Execute(_ context.Context, in call) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "ran:" + in.Algorithm, nil
}

var _ provider.RequestResponse[call, string] = (*echoProvider)(nil)

type orderTracker struct {
	inner provider.RequestResponse[call, string]
	tag   string
	order *[]string
}

func (o *orderTracker) Name() string                         { return o.inner.Name() }
func (o *orderTracker) IsAvailable(ctx context.Context) bool { return o.inner.IsAvailable(ctx) }
func (o *orderTracker) Execute(ctx context.Context, in call) (string, error) {
	*o.order = append(*o.order, o.tag+":before")
	out, err := o.inner.Execute(ctx, in)
	*o.order = append(*o.order, o.tag+":after")
	return out, err
}

func TestChain_Empty(t *testing.T) {
	wrapped := provider.Chain[call, string]()(&echoProvider{name: "qgis"})
	out, err := wrapped.Execute(context.Background(), call{Algorithm: "fill-sinks"})
	if err != nil || out != "ran:fill-sinks" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(tag string) provider.Middleware[call, string] {
		return func(inner provider.RequestResponse[call, string]) provider.RequestResponse[call, string] {
			return &orderTracker{inner: inner, tag: tag, order: &order}
		}
	}
	wrapped := provider.Chain(mw("A"), mw("B"), mw("C"))(&echoProvider{name: "qgis"})
	if _, err := wrapped.Execute(context.Background(), call{}); err != nil {
		t.Fatal(err)
	}
	want := "A:before,B:before,C:before,C:after,B:after,A:after"
	if strings.Join(order, ",") != want {
		t.Errorf("unexpected order %v", order)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	ok := provider.WithLogging[call, string](log)(&echoProvider{name: "qgis"})
	if _, err := ok.Execute(context.Background(), call{Algorithm: "fill-sinks"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"provider":"qgis"`) || !strings.Contains(out, `"algorithm":"fill-sinks"`) {
		t.Errorf("expected provider and algorithm fields, got %s", out)
	}
	if !strings.Contains(out, "provider call finished") {
		t.Errorf("expected finish line, got %s", out)
	}

	buf.Reset()
	failing := provider.WithLogging[call, string](log)(&echoProvider{name: "qgis", err: errors.New("exit 1")})
	if _, err := failing.Execute(context.Background(), call{Algorithm: "d8-flow-direction"}); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), "exit 1") {
		t.Errorf("expected warn line with error, got %s", buf.String())
	}
	if !failing.IsAvailable(context.Background()) {
		t.Error("expected IsAvailable to delegate")
	}
}

func TestWithTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	}()

	wrapped := provider.WithTracing[call, string]("toolbox")(&echoProvider{name: "whitebox", err: errors.New("boom")})
	if _, err := wrapped.Execute(context.Background(), call{Algorithm: "flow-accumulation"}); err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "toolbox.whitebox" {
		t.Errorf("unexpected span name %q", spans[0].Name)
	}
	found := false
	for _, kv := range spans[0].Attributes {
		if string(kv.Key) == "watershed.algorithm" && kv.Value.AsString() == "flow-accumulation" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected algorithm attribute, got %v", spans[0].Attributes)
	}
}

func TestWithMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	failErr := wserrors.AlgorithmNotFound("fill-sinks", "qgis")
	wrapped := provider.WithMetrics[call, string](metrics)(&echoProvider{name: "qgis", err: failErr})
	if _, err := wrapped.Execute(context.Background(), call{Algorithm: "fill-sinks"}); err == nil {
		t.Fatal("expected error")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	var sawError bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "error.total" {
				continue
			}
			sum := m.Data.(metricdata.Sum[int64])
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value("code"); ok && v.AsString() == "ALGORITHM_NOT_FOUND" {
					sawError = true
				}
			}
		}
	}
	if !sawError {
		t.Error("expected error.total with ALGORITHM_NOT_FOUND code")
	}
}

func TestWithMetrics_NilMetricsIsPassthrough(t *testing.T) {
	inner := &echoProvider{name: "qgis"}
	if provider.WithMetrics[call, string](nil)(inner) != provider.RequestResponse[call, string](inner) {
		t.Error("expected nil metrics to return the inner provider")
	}
}
