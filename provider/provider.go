package provider

import "context"

// Provider is the base interface all providers must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from typed configuration.
type Factory[C any, T Provider] func(cfg C) (T, error)

// Describer is optionally implemented by provider inputs to contribute
// structured fields to logs and spans.
type Describer interface {
	Describe() map[string]any
}

func describe(input any) map[string]any {
	if d, ok := input.(Describer); ok {
		return d.Describe()
	}
	return nil
}
