package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/watershed/provider"
)

// UploadRequest copies one local file to an object key.
type UploadRequest struct {
	Source string
	Key    string
}

// Describe implements provider.Describer.
func (r UploadRequest) Describe() map[string]any {
	return map[string]any{"artifact": r.Source, "key": r.Key}
}

// UploadResponse reports what was written.
type UploadResponse struct {
	Size int64
	URL  string
}

// UploadProvider wraps Storage.Upload as a RequestResponse provider so that
// the provider middleware can log, trace and count uploads.
type UploadProvider struct {
	name    string
	storage Storage
}

var _ provider.RequestResponse[UploadRequest, UploadResponse] = (*UploadProvider)(nil)

// NewUploadProvider creates an upload provider named after the backend.
func NewUploadProvider(name string, s Storage) *UploadProvider {
	return &UploadProvider{name: name, storage: s}
}

func (p *UploadProvider) Name() string                       { return p.name }
func (p *UploadProvider) IsAvailable(_ context.Context) bool { return p.storage != nil }

func (p *UploadProvider) Execute(ctx context.Context, req UploadRequest) (UploadResponse, error) {
	f, err := os.Open(req.Source)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("open %s: %w", req.Source, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	info, err := f.Stat()
	if err != nil {
		return UploadResponse{}, fmt.Errorf("stat %s: %w", req.Source, err)
	}
	if err := p.storage.Upload(ctx, req.Key, f); err != nil {
		return UploadResponse{}, err
	}
	url, err := p.storage.URL(ctx, req.Key)
	if err != nil {
		return UploadResponse{}, err
	}
	return UploadResponse{Size: info.Size(), URL: url}, nil
}
