package geo

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ArtifactKind distinguishes raster from vector datasets.
type ArtifactKind string

const (
	KindRaster ArtifactKind = "raster"
	KindVector ArtifactKind = "vector"
)

// Artifact is a reference to a dataset on durable storage. Artifacts are
// produced once by a stage and never modified afterwards.
type Artifact interface {
	ArtifactPath() string
	ArtifactKind() ArtifactKind
	ReferenceSystem() CRS
}

var (
	_ Artifact = (*RasterArtifact)(nil)
	_ Artifact = (*VectorArtifact)(nil)
)

// RasterArtifact describes a raster dataset.
type RasterArtifact struct {
	Path   string `json:"path"`
	CRS    CRS    `json:"crs"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	// CellSizeX and CellSizeY are positive cell dimensions in CRS units.
	CellSizeX float64  `json:"cell_size_x"`
	CellSizeY float64  `json:"cell_size_y"`
	Extent    Extent   `json:"extent"`
	NoData    *float64 `json:"nodata,omitempty"`
	DataType  string   `json:"data_type,omitempty"`
	Bands     int      `json:"bands"`
	Driver    string   `json:"driver,omitempty"`
}

func (r *RasterArtifact) ArtifactPath() string       { return r.Path }
func (r *RasterArtifact) ArtifactKind() ArtifactKind { return KindRaster }
func (r *RasterArtifact) ReferenceSystem() CRS       { return r.CRS }

func (r *RasterArtifact) String() string {
	return fmt.Sprintf("raster %s %dx%d cell=%gx%g crs=%s", filepath.Base(r.Path), r.Width, r.Height, r.CellSizeX, r.CellSizeY, r.CRS)
}

// GeometryType is the geometry type of a vector layer.
type GeometryType string

const (
	GeometryUnknown         GeometryType = "Unknown"
	GeometryPoint           GeometryType = "Point"
	GeometryMultiPoint      GeometryType = "MultiPoint"
	GeometryLineString      GeometryType = "LineString"
	GeometryMultiLineString GeometryType = "MultiLineString"
	GeometryPolygon         GeometryType = "Polygon"
	GeometryMultiPolygon    GeometryType = "MultiPolygon"
)

// ParseGeometryType normalizes the names GDAL reports ("Point", "3D Point",
// "Point25D", "Multi Polygon", "PointZ"...).
func ParseGeometryType(s string) GeometryType {
	n := strings.ToLower(s)
	n = strings.NewReplacer(" ", "", "3d", "", "25d", "", "measured", "").Replace(n)
	n = strings.TrimRight(n, "zm")
	switch n {
	case "point":
		return GeometryPoint
	case "multipoint":
		return GeometryMultiPoint
	case "linestring":
		return GeometryLineString
	case "multilinestring":
		return GeometryMultiLineString
	case "polygon":
		return GeometryPolygon
	case "multipolygon":
		return GeometryMultiPolygon
	default:
		return GeometryUnknown
	}
}

// PointLike reports whether the type holds point geometries.
func (g GeometryType) PointLike() bool {
	return g == GeometryPoint || g == GeometryMultiPoint
}

// PolygonLike reports whether the type holds polygon geometries.
func (g GeometryType) PolygonLike() bool {
	return g == GeometryPolygon || g == GeometryMultiPolygon
}

// Field is one attribute column of a vector layer.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// VectorArtifact describes one layer of a vector dataset.
type VectorArtifact struct {
	Path         string       `json:"path"`
	Layer        string       `json:"layer,omitempty"`
	GeometryType GeometryType `json:"geometry_type"`
	Fields       []Field      `json:"fields,omitempty"`
	// FeatureCount is -1 when the driver cannot count cheaply.
	FeatureCount int64  `json:"feature_count"`
	CRS          CRS    `json:"crs"`
	Extent       Extent `json:"extent"`
	Driver       string `json:"driver,omitempty"`
}

func (v *VectorArtifact) ArtifactPath() string       { return v.Path }
func (v *VectorArtifact) ArtifactKind() ArtifactKind { return KindVector }
func (v *VectorArtifact) ReferenceSystem() CRS       { return v.CRS }

// HasField reports whether the layer has an attribute named name (case-insensitive).
func (v *VectorArtifact) HasField(name string) bool {
	for _, f := range v.Fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

func (v *VectorArtifact) String() string {
	return fmt.Sprintf("vector %s %s features=%d crs=%s", filepath.Base(v.Path), v.GeometryType, v.FeatureCount, v.CRS)
}

// ShapefileSidecars returns the files that travel with a shapefile. For any
// other format it returns just path.
func ShapefileSidecars(path string) []string {
	ext := filepath.Ext(path)
	if !strings.EqualFold(ext, ".shp") {
		return []string{path}
	}
	base := strings.TrimSuffix(path, ext)
	files := []string{path}
	for _, side := range []string{".shx", ".dbf", ".prj", ".cpg"} {
		files = append(files, base+side)
	}
	return files
}
