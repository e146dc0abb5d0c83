package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/watershed/observability"
)

// WithMetrics returns a Middleware that records a count and duration per
// call, labelled by provider and operation. The operation label comes from
// the input's "algorithm" or "operation" description when present.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		if metrics == nil {
			return inner
		}
		return &metricsRR[I, O]{inner: inner, metrics: metrics}
	}
}

type metricsRR[I, O any] struct {
	inner   RequestResponse[I, O]
	metrics *observability.Metrics
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	operation := "execute"
	desc := describe(input)
	for _, key := range []string{"algorithm", "operation"} {
		if v, ok := desc[key]; ok {
			operation = fmt.Sprint(v)
			break
		}
	}

	start := time.Now()
	output, err := m.inner.Execute(ctx, input)
	duration := time.Since(start)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
		m.metrics.RecordError(ctx, errorCode(err), m.inner.Name())
	}
	m.metrics.RecordOperation(ctx, m.inner.Name(), operation, status, duration)
	return output, err
}
