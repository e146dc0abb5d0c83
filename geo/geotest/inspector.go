// Package geotest provides an in-memory geo.Inspector for tests.
package geotest

import (
	"context"
	"fmt"
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/kbukum/watershed/geo"
)

var _ geo.Inspector = (*Inspector)(nil)

// Inspector serves datasets registered by path. Unknown paths fail the way
// an unreadable file would.
type Inspector struct {
	mu       sync.RWMutex
	rasters  map[string]*geo.RasterArtifact
	vectors  map[string]*geo.VectorArtifact
	grids    map[string]*geo.Grid
	features map[string]*geojson.FeatureCollection
	errs     map[string]error
}

// NewInspector returns an empty Inspector.
func NewInspector() *Inspector {
	return &Inspector{
		rasters:  map[string]*geo.RasterArtifact{},
		vectors:  map[string]*geo.VectorArtifact{},
		grids:    map[string]*geo.Grid{},
		features: map[string]*geojson.FeatureCollection{},
		errs:     map[string]error{},
	}
}

// AddRaster registers raster metadata. The artifact's Path is the key.
func (i *Inspector) AddRaster(r *geo.RasterArtifact) *Inspector {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.rasters[r.Path] = r
	return i
}

// AddVector registers vector metadata. The artifact's Path is the key.
func (i *Inspector) AddVector(v *geo.VectorArtifact) *Inspector {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.vectors[v.Path] = v
	return i
}

// AddGrid registers cell values for path.
func (i *Inspector) AddGrid(path string, g *geo.Grid) *Inspector {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.grids[path] = g
	return i
}

// AddFeatures registers the features of the vector dataset at path.
func (i *Inspector) AddFeatures(path string, fc *geojson.FeatureCollection) *Inspector {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.features[path] = fc
	return i
}

// FailOn makes every call for path return err.
func (i *Inspector) FailOn(path string, err error) *Inspector {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.errs[path] = err
	return i
}

func (i *Inspector) DescribeRaster(_ context.Context, path string) (*geo.RasterArtifact, error) {
	return lookup(i, i.rasters, path, "raster")
}

func (i *Inspector) DescribeVector(_ context.Context, path string) (*geo.VectorArtifact, error) {
	return lookup(i, i.vectors, path, "vector")
}

func (i *Inspector) ReadGrid(_ context.Context, path string) (*geo.Grid, error) {
	return lookup(i, i.grids, path, "grid")
}

func (i *Inspector) ReadFeatures(_ context.Context, path string) (*geojson.FeatureCollection, error) {
	return lookup(i, i.features, path, "features")
}

func lookup[T any](i *Inspector, m map[string]*T, path, what string) (*T, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if err, ok := i.errs[path]; ok {
		return nil, err
	}
	v, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("geotest: no %s registered for %s", what, path)
	}
	cp := *v
	return &cp, nil
}
