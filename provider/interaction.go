package provider

import "context"

// RequestResponse represents a provider that takes one input and returns one output.
// This covers subprocess execution and anything else with call-and-wait semantics.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}
