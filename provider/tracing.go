package provider

import (
	"context"

	"github.com/kbukum/watershed/observability"
)

// WithTracing returns a Middleware that creates an OpenTelemetry span
// named "{scope}.{providerName}" around each Execute call.
func WithTracing[I, O any](scope string) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &tracingRR[I, O]{inner: inner, scope: scope}
	}
}

type tracingRR[I, O any] struct {
	inner RequestResponse[I, O]
	scope string
}

func (t *tracingRR[I, O]) Name() string                         { return t.inner.Name() }
func (t *tracingRR[I, O]) IsAvailable(ctx context.Context) bool { return t.inner.IsAvailable(ctx) }

func (t *tracingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	ctx, span := observability.StartSpan(ctx, t.scope+"."+t.inner.Name())
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrOperation, t.inner.Name())
	for k, v := range describe(input) {
		observability.SetSpanAttribute(ctx, "watershed."+k, v)
	}

	output, err := t.inner.Execute(ctx, input)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return output, err
}
