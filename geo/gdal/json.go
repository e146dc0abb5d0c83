package gdal

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kbukum/watershed/geo"
)

type coordinateSystem struct {
	WKT string `json:"wkt"`
}

// rasterInfo is the subset of `gdalinfo -json` output we read.
type rasterInfo struct {
	Description       string               `json:"description"`
	Driver            string               `json:"driverShortName"`
	Size              []int                `json:"size"`
	CoordinateSystem  *coordinateSystem    `json:"coordinateSystem"`
	GeoTransform      []float64            `json:"geoTransform"`
	CornerCoordinates map[string][]float64 `json:"cornerCoordinates"`
	Bands             []struct {
		Band        int             `json:"band"`
		Type        string          `json:"type"`
		NoDataValue json.RawMessage `json:"noDataValue"`
	} `json:"bands"`
}

// vectorInfo is the subset of `ogrinfo -json -so` output we read.
type vectorInfo struct {
	Description string `json:"description"`
	Driver      string `json:"driverShortName"`
	Layers      []struct {
		Name           string `json:"name"`
		FeatureCount   *int64 `json:"featureCount"`
		GeometryFields []struct {
			Name             string            `json:"name"`
			Type             string            `json:"type"`
			Extent           []float64         `json:"extent"`
			CoordinateSystem *coordinateSystem `json:"coordinateSystem"`
		} `json:"geometryFields"`
		Fields []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"fields"`
	} `json:"layers"`
}

func parseRasterInfo(path string, data []byte) (*geo.RasterArtifact, error) {
	var info rasterInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding gdalinfo output: %w", err)
	}
	if len(info.Size) != 2 || info.Size[0] < 1 || info.Size[1] < 1 {
		return nil, fmt.Errorf("gdalinfo reported no raster size")
	}
	r := &geo.RasterArtifact{
		Path:   path,
		Width:  info.Size[0],
		Height: info.Size[1],
		Bands:  len(info.Bands),
		Driver: info.Driver,
	}

	if info.CoordinateSystem != nil {
		crs, err := geo.ParseWKT(info.CoordinateSystem.WKT)
		if err != nil {
			return nil, fmt.Errorf("reading coordinate system: %w", err)
		}
		r.CRS = crs
	}

	switch {
	case len(info.GeoTransform) == 6:
		gt := info.GeoTransform
		w, h := float64(r.Width), float64(r.Height)
		r.Extent = geo.NewExtent(gt[0], gt[3], gt[0]+w*gt[1]+h*gt[2], gt[3]+w*gt[4]+h*gt[5])
		r.CellSizeX = math.Abs(gt[1])
		r.CellSizeY = math.Abs(gt[5])
	case len(info.CornerCoordinates["upperLeft"]) >= 2 && len(info.CornerCoordinates["lowerRight"]) >= 2:
		ul, lr := info.CornerCoordinates["upperLeft"], info.CornerCoordinates["lowerRight"]
		r.Extent = geo.NewExtent(ul[0], ul[1], lr[0], lr[1])
		r.CellSizeX = r.Extent.Width() / float64(r.Width)
		r.CellSizeY = r.Extent.Height() / float64(r.Height)
	default:
		return nil, fmt.Errorf("raster is not georeferenced")
	}

	if len(info.Bands) > 0 {
		r.DataType = info.Bands[0].Type
		nd, err := parseNoData(info.Bands[0].NoDataValue)
		if err != nil {
			return nil, err
		}
		r.NoData = nd
	}
	return r, nil
}

// parseNoData accepts a JSON number or the strings GDAL emits for
// non-finite values ("nan", "inf", "-inf").
func parseNoData(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding nodata value %s: %w", raw, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("decoding nodata value %q: %w", s, err)
	}
	return &v, nil
}

func parseVectorInfo(path string, data []byte) (*geo.VectorArtifact, error) {
	var info vectorInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding ogrinfo output: %w", err)
	}
	if len(info.Layers) == 0 {
		return nil, fmt.Errorf("dataset has no layers")
	}
	layer := info.Layers[0]
	v := &geo.VectorArtifact{
		Path:         path,
		Layer:        layer.Name,
		Driver:       info.Driver,
		GeometryType: geo.GeometryUnknown,
		FeatureCount: -1,
	}
	if layer.FeatureCount != nil {
		v.FeatureCount = *layer.FeatureCount
	}
	for _, f := range layer.Fields {
		v.Fields = append(v.Fields, geo.Field{Name: f.Name, Type: f.Type})
	}
	if len(layer.GeometryFields) > 0 {
		gf := layer.GeometryFields[0]
		v.GeometryType = geo.ParseGeometryType(gf.Type)
		if len(gf.Extent) == 4 {
			v.Extent = geo.NewExtent(gf.Extent[0], gf.Extent[1], gf.Extent[2], gf.Extent[3])
		}
		if gf.CoordinateSystem != nil {
			crs, err := geo.ParseWKT(gf.CoordinateSystem.WKT)
			if err != nil {
				return nil, fmt.Errorf("reading coordinate system: %w", err)
			}
			v.CRS = crs
		}
	}
	return v, nil
}
