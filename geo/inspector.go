package geo

import (
	"context"

	"github.com/paulmach/orb/geojson"
)

// Inspector reads dataset metadata and contents. Implementations return
// plain errors; callers map them to their own error codes.
type Inspector interface {
	// DescribeRaster returns the metadata of the raster at path.
	DescribeRaster(ctx context.Context, path string) (*RasterArtifact, error)
	// DescribeVector returns the metadata of the first layer of the dataset at path.
	DescribeVector(ctx context.Context, path string) (*VectorArtifact, error)
	// ReadGrid loads band 1 of the raster at path.
	ReadGrid(ctx context.Context, path string) (*Grid, error)
	// ReadFeatures loads every feature of the vector dataset at path, in
	// layer order, without reprojecting.
	ReadFeatures(ctx context.Context, path string) (*geojson.FeatureCollection, error)
}
