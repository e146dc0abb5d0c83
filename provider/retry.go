package provider

import (
	"context"

	"github.com/kbukum/watershed/resilience"
)

// WithRetry returns a Middleware that repeats failed Execute calls under
// policy. A policy of one attempt leaves the provider unchanged.
func WithRetry[I, O any](policy resilience.Policy) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		if policy.Attempts == 1 {
			return inner
		}
		return &retryRR[I, O]{inner: inner, policy: policy}
	}
}

type retryRR[I, O any] struct {
	inner  RequestResponse[I, O]
	policy resilience.Policy
}

func (r *retryRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *retryRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

func (r *retryRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return resilience.Retry(ctx, r.policy, func(ctx context.Context) (O, error) {
		return r.inner.Execute(ctx, input)
	})
}
