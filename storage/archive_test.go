package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/logger"
)

// memStorage implements Storage in memory.
type memStorage struct {
	mu       sync.Mutex
	data     map[string][]byte
	failKey  string
	flaky    atomic.Int32
	delay    time.Duration
	inflight atomic.Int32
	peak     atomic.Int32
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (m *memStorage) Upload(_ context.Context, key string, reader io.Reader) error {
	n := m.inflight.Add(1)
	defer m.inflight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(m.delay)

	if m.failKey != "" && strings.HasSuffix(key, m.failKey) {
		return fmt.Errorf("mock upload error")
	}
	if m.flaky.Add(-1) >= 0 {
		return fmt.Errorf("mock transient error")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *memStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *memStorage) URL(_ context.Context, key string) (string, error) {
	return "mem://" + key, nil
}

func (m *memStorage) List(_ context.Context, prefix string) ([]FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []FileInfo
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, FileInfo{Path: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func writeOutputs(t *testing.T) (string, map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"filled_dem.tif", "watersheds.shp", "watersheds.shx", "watersheds.dbf", "watersheds.prj", "watershed_statistics.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, map[string]string{
		"filled_dem": filepath.Join(dir, "filled_dem.tif"),
		"watersheds": filepath.Join(dir, "watersheds.shp"),
		"statistics": filepath.Join(dir, "watershed_statistics.txt"),
	}
}

func TestArchive(t *testing.T) {
	_, outputs := writeOutputs(t)
	store := newMemStorage()
	a := NewArchiver(store, Config{Prefix: "runs"}, logger.Nop(), nil)

	m, err := a.Archive(context.Background(), "run-1", outputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Prefix != "runs/run-1" {
		t.Errorf("prefix = %q", m.Prefix)
	}

	want := []string{
		"runs/run-1/filled_dem.tif",
		"runs/run-1/watershed_statistics.txt",
		"runs/run-1/watersheds.dbf",
		"runs/run-1/watersheds.prj",
		"runs/run-1/watersheds.shp",
		"runs/run-1/watersheds.shx",
	}
	if len(m.Objects) != len(want) {
		t.Fatalf("expected %d objects, got %d", len(want), len(m.Objects))
	}
	for i, obj := range m.Objects {
		if obj.Key != want[i] {
			t.Errorf("object %d key = %q, want %q", i, obj.Key, want[i])
		}
		if obj.URL != "mem://"+obj.Key || obj.Size != int64(len(filepath.Base(obj.Source))) {
			t.Errorf("unexpected object %+v", obj)
		}
	}
	if m.Objects[3].Output != "watersheds" {
		t.Errorf("sidecar output = %q", m.Objects[3].Output)
	}

	listed, _ := store.List(context.Background(), "runs/run-1/")
	if len(listed) != len(want) {
		t.Errorf("store holds %d objects", len(listed))
	}
}

func TestArchiveBoundsConcurrency(t *testing.T) {
	_, outputs := writeOutputs(t)
	store := newMemStorage()
	store.delay = 20 * time.Millisecond
	a := NewArchiver(store, Config{Concurrency: 2}, logger.Nop(), nil)

	if _, err := a.Archive(context.Background(), "run-2", outputs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak := store.peak.Load(); peak > 2 {
		t.Errorf("peak concurrency %d exceeds limit", peak)
	}
}

func TestArchiveErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("upload failure", func(t *testing.T) {
		_, outputs := writeOutputs(t)
		store := newMemStorage()
		store.failKey = "watersheds.dbf"
		_, err := NewArchiver(store, Config{Retries: 1}, logger.Nop(), nil).Archive(ctx, "run", outputs)
		if !errors.HasCode(err, errors.ErrCodeStorageError) {
			t.Errorf("expected STORAGE_ERROR, got %v", err)
		}
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		_, outputs := writeOutputs(t)
		store := newMemStorage()
		store.flaky.Store(2)
		m, err := NewArchiver(store, Config{Concurrency: 1}, logger.Nop(), nil).Archive(ctx, "run", outputs)
		if err != nil {
			t.Fatalf("expected retries to recover, got %v", err)
		}
		if len(store.data) != len(m.Objects) {
			t.Errorf("uploaded %d of %d objects", len(store.data), len(m.Objects))
		}
	})

	t.Run("missing output", func(t *testing.T) {
		store := newMemStorage()
		_, err := NewArchiver(store, Config{}, logger.Nop(), nil).
			Archive(ctx, "run", map[string]string{"watersheds": "/nope/watersheds.shp"})
		if !errors.HasCode(err, errors.ErrCodeStorageError) {
			t.Errorf("expected STORAGE_ERROR, got %v", err)
		}
		if len(store.data) != 0 {
			t.Error("nothing should be uploaded")
		}
	})

	t.Run("missing run id", func(t *testing.T) {
		_, err := NewArchiver(newMemStorage(), Config{}, logger.Nop(), nil).Archive(ctx, "", nil)
		if !errors.HasCode(err, errors.ErrCodeMissingField) {
			t.Errorf("expected MISSING_FIELD, got %v", err)
		}
	})
}

func TestConfig(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.Provider != ProviderLocal || c.Prefix != DefaultPrefix || c.Concurrency != DefaultConcurrency || c.Retries != DefaultRetries {
		t.Errorf("unexpected defaults %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&Config{Provider: "ftp"}).Validate(); err == nil {
		t.Error("expected unsupported provider error")
	}
	if err := (&Config{Provider: ProviderS3, Prefix: "../escape"}).Validate(); err == nil {
		t.Error("expected prefix error")
	}
}

func TestComponentDisabled(t *testing.T) {
	c := NewComponent(Config{}, nil, logger.Nop(), nil)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Archiver() != nil || c.Storage() != nil {
		t.Error("disabled component must not create a backend")
	}
	if h := c.Health(context.Background()); h.Message != "disabled" {
		t.Errorf("unexpected health %+v", h)
	}
	if d := c.Describe(); d.Details != "disabled" {
		t.Errorf("unexpected description %+v", d)
	}
}
