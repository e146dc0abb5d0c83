package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/geo"
	"github.com/kbukum/watershed/logger"
	"github.com/kbukum/watershed/observability"
	"github.com/kbukum/watershed/provider"
	"github.com/kbukum/watershed/resilience"
)

// Object is one archived file.
type Object struct {
	// Output is the run output the file belongs to, e.g. "watersheds".
	Output string
	Source string
	Key    string
	Size   int64
	URL    string
}

// Manifest lists what Archive uploaded, sorted by key.
type Manifest struct {
	RunID   string
	Prefix  string
	Objects []Object
}

// Archiver uploads run outputs.
type Archiver struct {
	upload      provider.RequestResponse[UploadRequest, UploadResponse]
	prefix      string
	concurrency int
	log         *logger.Logger
}

// NewArchiver creates an Archiver writing to store. metrics may be nil.
func NewArchiver(store Storage, cfg Config, log *logger.Logger, metrics *observability.Metrics) *Archiver {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.WithComponent("storage")
	}
	up := provider.Chain(
		provider.WithTracing[UploadRequest, UploadResponse](observability.SpanArchive),
		provider.WithLogging[UploadRequest, UploadResponse](log),
		provider.WithMetrics[UploadRequest, UploadResponse](metrics),
		provider.WithRetry[UploadRequest, UploadResponse](resilience.Policy{
			Attempts: cfg.Retries,
			Initial:  200 * time.Millisecond,
			Max:      5 * time.Second,
			Jitter:   0.2,
			OnRetry: func(attempt int, err error, wait time.Duration) {
				log.Warn("upload failed, retrying", logger.Fields(
					"attempt", attempt,
					logger.FieldError, err.Error(),
					"backoff", wait.String(),
				))
			},
		}),
	)(NewUploadProvider(cfg.Provider, store))
	return &Archiver{upload: up, prefix: cfg.Prefix, concurrency: cfg.Concurrency, log: log}
}

// Archive uploads every file in outputs under <prefix>/<runID>/. A
// shapefile brings its existing sidecars along.
func (a *Archiver) Archive(ctx context.Context, runID string, outputs map[string]string) (*Manifest, error) {
	if runID == "" {
		return nil, errors.MissingField("run_id")
	}
	objects, err := a.collect(runID, outputs)
	if err != nil {
		return nil, errors.StorageError("archive", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i := range objects {
		obj := &objects[i]
		g.Go(func() error {
			resp, err := a.upload.Execute(gctx, UploadRequest{Source: obj.Source, Key: obj.Key})
			if err != nil {
				return err
			}
			obj.Size, obj.URL = resp.Size, resp.URL
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.StorageError("archive", err).WithDetail("run_id", runID)
	}

	m := &Manifest{RunID: runID, Prefix: path.Join(a.prefix, runID), Objects: objects}
	a.log.WithContext(ctx).Info("outputs archived", logger.Fields(
		"prefix", m.Prefix,
		"objects", len(objects),
	))
	return m, nil
}

func (a *Archiver) collect(runID string, outputs map[string]string) ([]Object, error) {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	var objects []Object
	seen := make(map[string]bool)
	for _, name := range names {
		src := outputs[name]
		if _, err := os.Stat(src); err != nil {
			return nil, err
		}
		files := []string{src}
		for _, side := range geo.ShapefileSidecars(src)[1:] {
			if _, err := os.Stat(side); err == nil {
				files = append(files, side)
			}
		}
		for _, f := range files {
			key := path.Join(a.prefix, runID, filepath.Base(f))
			if seen[key] {
				continue
			}
			seen[key] = true
			objects = append(objects, Object{Output: name, Source: f, Key: key})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}
