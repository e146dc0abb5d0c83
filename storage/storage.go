package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Storage is the object store an Archiver writes to.
type Storage interface {
	// Upload writes data from reader to key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download returns a reader for the object at key. The caller closes it.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a locator for the object at key.
	URL(ctx context.Context, key string) (string, error)

	// List returns every object whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
