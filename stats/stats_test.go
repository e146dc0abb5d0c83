package stats

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/geo"
	"github.com/kbukum/watershed/geo/geotest"
)

var utm = geo.CRS{
	Name:        "WGS 84 / UTM zone 33N",
	Authority:   "EPSG:32633",
	Kind:        geo.CRSProjected,
	LinearUnit:  "metre",
	UnitToMetre: 1,
}

func square(x0, y0, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0}}}
}

// testGrid is 4x4 with 10 unit cells from (0,0); values 1..16 top row first.
func testGrid() *geo.Grid {
	g := &geo.Grid{Cols: 4, Rows: 4, DX: 10, DY: 10}
	for i := 0; i < 16; i++ {
		g.Values = append(g.Values, float64(i+1))
	}
	return g
}

func fixture(features ...*geojson.Feature) (*Aggregator, *geo.VectorArtifact, *geo.RasterArtifact) {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f)
	}
	ins := geotest.NewInspector().
		AddFeatures("/out/watersheds.shp", fc).
		AddGrid("/out/filled_dem.tif", testGrid())
	ws := &geo.VectorArtifact{Path: "/out/watersheds.shp", CRS: utm, FeatureCount: int64(len(features))}
	dem := &geo.RasterArtifact{Path: "/out/filled_dem.tif", CRS: utm}
	return NewAggregator(ins, nil), ws, dem
}

func TestSummarize(t *testing.T) {
	first := geojson.NewFeature(square(0, 0, 20))
	first.Properties["VALUE"] = 7.0
	second := geojson.NewFeature(square(20, 20, 20))
	agg, ws, dem := fixture(first, second)

	s, err := agg.Summarize(context.Background(), ws, dem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Watersheds) != 2 {
		t.Fatalf("expected 2 watersheds, got %d", len(s.Watersheds))
	}

	a := s.Watersheds[0]
	if a.ID != "7" || a.Area != 400 || a.Perimeter != 80 {
		t.Errorf("unexpected first watershed %+v", a)
	}
	if a.Elevation != (Elevation{Min: 9, Max: 14, Mean: 11.5, Cells: 4}) {
		t.Errorf("unexpected elevation %+v", a.Elevation)
	}

	b := s.Watersheds[1]
	if b.ID != "watershed_1" {
		t.Errorf("expected fallback id, got %q", b.ID)
	}
	if b.Elevation != (Elevation{Min: 3, Max: 8, Mean: 5.5, Cells: 4}) {
		t.Errorf("unexpected elevation %+v", b.Elevation)
	}
}

func TestSummarizeSkipsNonPolygons(t *testing.T) {
	agg, ws, dem := fixture(
		geojson.NewFeature(orb.Point{5, 5}),
		geojson.NewFeature(orb.MultiPolygon{square(0, 0, 10), square(30, 30, 10)}),
	)
	s, err := agg.Summarize(context.Background(), ws, dem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Watersheds) != 1 || s.Watersheds[0].ID != "watershed_1" {
		t.Fatalf("unexpected watersheds %+v", s.Watersheds)
	}
	if got := s.Watersheds[0]; got.Area != 200 || got.Elevation.Cells != 2 {
		t.Errorf("unexpected multipolygon stats %+v", got)
	}
}

func TestSummarizeErrors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		setup func() (*Aggregator, *geo.VectorArtifact, *geo.RasterArtifact)
		code  errors.ErrorCode
	}{
		{"geographic layer", func() (*Aggregator, *geo.VectorArtifact, *geo.RasterArtifact) {
			agg, ws, dem := fixture(geojson.NewFeature(square(0, 0, 20)))
			ws.CRS = geo.CRS{Authority: "EPSG:4326", Kind: geo.CRSGeographic, LinearUnit: "degree"}
			return agg, ws, dem
		}, errors.ErrCodeUnprojectedCRS},
		{"undefined crs", func() (*Aggregator, *geo.VectorArtifact, *geo.RasterArtifact) {
			agg, ws, dem := fixture(geojson.NewFeature(square(0, 0, 20)))
			ws.CRS = geo.CRS{}
			return agg, ws, dem
		}, errors.ErrCodeUnprojectedCRS},
		{"no features", func() (*Aggregator, *geo.VectorArtifact, *geo.RasterArtifact) {
			return fixture()
		}, errors.ErrCodeEmptyWatershedSet},
		{"no polygons", func() (*Aggregator, *geo.VectorArtifact, *geo.RasterArtifact) {
			return fixture(geojson.NewFeature(orb.Point{1, 1}))
		}, errors.ErrCodeEmptyWatershedSet},
		{"missing dem", func() (*Aggregator, *geo.VectorArtifact, *geo.RasterArtifact) {
			agg, ws, _ := fixture(geojson.NewFeature(square(0, 0, 20)))
			return agg, ws, nil
		}, errors.ErrCodeMissingField},
		{"unreadable layer", func() (*Aggregator, *geo.VectorArtifact, *geo.RasterArtifact) {
			_, ws, dem := fixture()
			ws.FeatureCount = -1
			return NewAggregator(geotest.NewInspector(), nil), ws, dem
		}, errors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, ws, dem := tt.setup()
			s, err := agg.Summarize(ctx, ws, dem)
			if s != nil || !errors.HasCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestZonalSkipsNoData(t *testing.T) {
	g := testGrid()
	nodata := 13.0
	g.NoData = &nodata
	g.Values[9] = math.NaN()

	e := Zonal(g, square(0, 0, 20))
	if e != (Elevation{Min: 9, Max: 14, Mean: 11.5, Cells: 2}) {
		t.Errorf("unexpected elevation %+v", e)
	}
	if got := Zonal(g, square(100, 100, 5)); got.Cells != 0 {
		t.Errorf("expected no cells outside the grid, got %+v", got)
	}
}

func TestFeatureID(t *testing.T) {
	tests := []struct {
		props geojson.Properties
		want  string
	}{
		{geojson.Properties{"id": "north"}, "north"},
		{geojson.Properties{"ID": 3.0}, "3"},
		{geojson.Properties{"DN": 12.5}, "12.5"},
		{geojson.Properties{"basin": int64(4)}, "4"},
		{geojson.Properties{"id": "", "VALUE": 2.0}, "2"},
		{geojson.Properties{"name": "x"}, "watershed_5"},
	}
	for _, tt := range tests {
		f := geojson.NewFeature(square(0, 0, 1))
		f.Properties = tt.props
		if got := featureID(f, 5); got != tt.want {
			t.Errorf("featureID(%v) = %q, want %q", tt.props, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	s := &Summary{CRS: utm, Watersheds: []WatershedStatistic{
		{ID: "watershed_0", Area: 2500000, Perimeter: 6000, Elevation: Elevation{Min: 10, Max: 20, Mean: 15, Cells: 3}},
		{ID: "watershed_1", Area: 100, Perimeter: 40},
	}}
	var buf bytes.Buffer
	if err := Render(&buf, s); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Watershed Delineation Statistics\n================================\n\n",
		"watershed_0:\n  Area: 2.50 sq km (2500000.00 sq m)\n  Perimeter: 6000.00 meters\n",
		"  Elevation: min 10.00, max 20.00, mean 15.00 (3 cells)\n",
		"watershed_1:\n",
		"  Elevation: no data\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	feet := &Summary{
		CRS:        geo.CRS{Kind: geo.CRSProjected, LinearUnit: "US survey foot", UnitToMetre: 0.3048006096},
		Watersheds: []WatershedStatistic{{ID: "a", Area: 9, Perimeter: 12}},
	}
	buf.Reset()
	if err := Render(&buf, feet); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "  Area: 9.00 sq US survey foot\n  Perimeter: 12.00 US survey foot\n") {
		t.Errorf("unexpected non-metric report:\n%s", buf.String())
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ReportFile)
	s := &Summary{CRS: utm, Watersheds: []WatershedStatistic{{ID: "w", Area: 1, Perimeter: 4}}}

	if err := WriteReport(path, s); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.HasPrefix(string(data), reportTitle) {
		t.Fatalf("unexpected report %q, %v", data, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the report in %s, got %d entries", dir, len(entries))
	}

	missing := filepath.Join(dir, "nope", ReportFile)
	if err := WriteReport(missing, s); err == nil {
		t.Error("expected error for missing directory")
	}
}
