package gdal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/watershed/geo"
	"github.com/kbukum/watershed/process"
)

const demInfo = `{
  "description": "dem.tif",
  "driverShortName": "GTiff",
  "size": [200, 100],
  "coordinateSystem": {"wkt": "PROJCS[\"WGS 84 / UTM zone 33N\",GEOGCS[\"WGS 84\",DATUM[\"WGS_1984\",SPHEROID[\"WGS 84\",6378137,298.257223563]],PRIMEM[\"Greenwich\",0],UNIT[\"degree\",0.0174532925199433]],PROJECTION[\"Transverse_Mercator\"],UNIT[\"metre\",1],AUTHORITY[\"EPSG\",\"32633\"]]"},
  "geoTransform": [500000.0, 30.0, 0.0, 4100000.0, 0.0, -30.0],
  "bands": [{"band": 1, "type": "Float32", "noDataValue": -9999.0}]
}`

const pointsInfo = `{
  "description": "pour_points.shp",
  "driverShortName": "ESRI Shapefile",
  "layers": [{
    "name": "pour_points",
    "featureCount": 2,
    "geometryFields": [{
      "name": "",
      "type": "Point",
      "extent": [501000.0, 4098000.0, 502000.0, 4099000.0],
      "coordinateSystem": {"wkt": "PROJCS[\"WGS 84 / UTM zone 33N\",GEOGCS[\"WGS 84\",DATUM[\"WGS_1984\",SPHEROID[\"WGS 84\",6378137,298.257223563]],PRIMEM[\"Greenwich\",0],UNIT[\"degree\",0.0174532925199433]],PROJECTION[\"Transverse_Mercator\"],UNIT[\"metre\",1],AUTHORITY[\"EPSG\",\"32633\"]]"}
    }],
    "fields": [{"name": "id", "type": "Integer"}]
  }]
}`

type fakeRunner struct {
	calls []process.Command
	run   func(cmd process.Command) (*process.Result, error)
}

func (f *fakeRunner) Name() string                       { return "fake" }
func (f *fakeRunner) IsAvailable(_ context.Context) bool { return true }
func (f *fakeRunner) Execute(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.calls = append(f.calls, cmd)
	return f.run(cmd)
}

func touch(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDescribeRaster(t *testing.T) {
	dem := touch(t, "dem.tif")
	runner := &fakeRunner{run: func(process.Command) (*process.Result, error) {
		return &process.Result{Stdout: []byte(demInfo)}, nil
	}}
	r, err := New(Config{}, runner).DescribeRaster(context.Background(), dem)
	if err != nil {
		t.Fatalf("DescribeRaster: %v", err)
	}
	if got := runner.calls[0].String(); got != "gdalinfo -json "+dem {
		t.Errorf("unexpected command %q", got)
	}
	if r.Path != dem || r.Width != 200 || r.Height != 100 || r.Driver != "GTiff" {
		t.Errorf("unexpected raster %+v", r)
	}
	if r.CellSizeX != 30 || r.CellSizeY != 30 {
		t.Errorf("cell size = %v x %v", r.CellSizeX, r.CellSizeY)
	}
	want := geo.Extent{MinX: 500000, MinY: 4097000, MaxX: 506000, MaxY: 4100000}
	if r.Extent != want {
		t.Errorf("extent = %+v, want %+v", r.Extent, want)
	}
	if r.NoData == nil || *r.NoData != -9999 {
		t.Errorf("nodata = %v", r.NoData)
	}
	if r.CRS.Authority != "EPSG:32633" || !r.CRS.Metric() {
		t.Errorf("crs = %+v", r.CRS)
	}
}

func TestDescribeRaster_Errors(t *testing.T) {
	ctx := context.Background()
	ins := New(Config{}, &fakeRunner{run: func(process.Command) (*process.Result, error) {
		return &process.Result{Stdout: []byte(`{"size":[1,1]}`)}, nil
	}})
	if _, err := ins.DescribeRaster(ctx, filepath.Join(t.TempDir(), "missing.tif")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if _, err := ins.DescribeRaster(ctx, touch(t, "plain.tif")); err == nil || !strings.Contains(err.Error(), "not georeferenced") {
		t.Errorf("expected georeferencing error, got %v", err)
	}

	failing := New(Config{}, &fakeRunner{run: func(cmd process.Command) (*process.Result, error) {
		res := &process.Result{Stderr: []byte("ERROR 4: `x' not recognized as a supported file format.\n"), ExitCode: 1}
		return res, &process.ExitError{Binary: cmd.Binary, Result: res, Err: errors.New("exit status 1")}
	}})
	_, err := failing.DescribeRaster(ctx, touch(t, "x.tif"))
	if err == nil || !strings.Contains(err.Error(), "not recognized as a supported file format") {
		t.Errorf("expected diagnostic in error, got %v", err)
	}
}

func TestParseNoData(t *testing.T) {
	tests := map[string]float64{`-9999`: -9999, `"-inf"`: 0, `0`: 0}
	for raw, want := range tests {
		v, err := parseNoData([]byte(raw))
		if err != nil || v == nil {
			t.Fatalf("parseNoData(%s) = %v, %v", raw, v, err)
		}
		if raw != `"-inf"` && *v != want {
			t.Errorf("parseNoData(%s) = %v", raw, *v)
		}
	}
	if v, err := parseNoData(nil); v != nil || err != nil {
		t.Errorf("absent nodata should be nil, got %v, %v", v, err)
	}
	if _, err := parseNoData([]byte(`"abc"`)); err == nil {
		t.Error("expected error for non-numeric nodata")
	}
}

func TestDescribeVector(t *testing.T) {
	pts := touch(t, "pour_points.shp")
	runner := &fakeRunner{run: func(process.Command) (*process.Result, error) {
		return &process.Result{Stdout: []byte(pointsInfo)}, nil
	}}
	v, err := New(Config{OGRInfo: "/opt/gdal/bin/ogrinfo"}, runner).DescribeVector(context.Background(), pts)
	if err != nil {
		t.Fatalf("DescribeVector: %v", err)
	}
	if runner.calls[0].Binary != "/opt/gdal/bin/ogrinfo" {
		t.Errorf("configured binary not used: %q", runner.calls[0].Binary)
	}
	if v.Path != pts || v.Layer != "pour_points" || v.FeatureCount != 2 {
		t.Errorf("unexpected vector %+v", v)
	}
	if v.GeometryType != geo.GeometryPoint || !v.HasField("ID") {
		t.Errorf("unexpected schema %+v", v)
	}
	if v.Extent != (geo.Extent{MinX: 501000, MinY: 4098000, MaxX: 502000, MaxY: 4099000}) {
		t.Errorf("extent = %+v", v.Extent)
	}
	if !v.CRS.Defined() {
		t.Error("expected CRS")
	}
}

func TestDescribeVector_NoLayers(t *testing.T) {
	ins := New(Config{}, &fakeRunner{run: func(process.Command) (*process.Result, error) {
		return &process.Result{Stdout: []byte(`{"layers":[]}`)}, nil
	}})
	if _, err := ins.DescribeVector(context.Background(), touch(t, "empty.gpkg")); err == nil {
		t.Error("expected error for dataset without layers")
	}
}

func TestReadFeatures(t *testing.T) {
	path := touch(t, "watersheds.shp")
	runner := &fakeRunner{run: func(process.Command) (*process.Result, error) {
		return &process.Result{Stdout: []byte(`{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{"VALUE":1},"geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}}]}`)}, nil
	}}
	fc, err := New(Config{}, runner).ReadFeatures(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFeatures: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	args := strings.Join(runner.calls[0].Args, " ")
	if args != "-f GeoJSON -dim XY /vsistdout/ "+path {
		t.Errorf("unexpected args %q", args)
	}
}

func TestReadGrid(t *testing.T) {
	dem := touch(t, "filled_dem.tif")
	runner := &fakeRunner{run: func(cmd process.Command) (*process.Result, error) {
		out := cmd.Args[len(cmd.Args)-1]
		grid := "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 5\n1 2\n3 4\n"
		return &process.Result{}, os.WriteFile(out, []byte(grid), 0o644)
	}}
	g, err := New(Config{TempDir: t.TempDir()}, runner).ReadGrid(context.Background(), dem)
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	if g.Cols != 2 || g.Rows != 2 || g.Values[3] != 4 {
		t.Errorf("unexpected grid %+v", g)
	}
	if runner.calls[0].Binary != "gdal_translate" {
		t.Errorf("unexpected binary %q", runner.calls[0].Binary)
	}
}

func TestVersion(t *testing.T) {
	ok := New(Config{}, &fakeRunner{run: func(process.Command) (*process.Result, error) {
		return &process.Result{Stdout: []byte("GDAL 3.8.4, released 2024/02/08\n")}, nil
	}})
	if v, err := ok.Version(context.Background()); err != nil || v != "GDAL 3.8.4, released 2024/02/08" {
		t.Errorf("Version = %q, %v", v, err)
	}
	missing := New(Config{}, &fakeRunner{run: func(cmd process.Command) (*process.Result, error) {
		return &process.Result{ExitCode: -1}, process.ErrBinaryNotFound
	}})
	if _, err := missing.Version(context.Background()); !errors.Is(err, process.ErrBinaryNotFound) {
		t.Errorf("expected ErrBinaryNotFound, got %v", err)
	}
}
