package provider

import "context"

// Initializable is optionally implemented by providers that need setup
// before handling requests, such as probing a binary or loading a catalog.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable is optionally implemented by providers that hold resources
// requiring explicit cleanup.
type Closeable interface {
	Close(ctx context.Context) error
}

// InitIfSupported calls Init when p implements Initializable.
func InitIfSupported(ctx context.Context, p Provider) error {
	if i, ok := p.(Initializable); ok {
		return i.Init(ctx)
	}
	return nil
}

// CloseIfSupported calls Close when p implements Closeable.
func CloseIfSupported(ctx context.Context, p Provider) error {
	if c, ok := p.(Closeable); ok {
		return c.Close(ctx)
	}
	return nil
}
