package stats

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/geo"
	"github.com/kbukum/watershed/logger"
	"github.com/kbukum/watershed/observability"
)

// IDFields are the attributes checked, in order, for a watershed identifier.
var IDFields = []string{"id", "ID", "VALUE", "DN", "basin"}

// Elevation holds zonal statistics of one watershed. Cells is zero when no
// valid DEM cell centre falls inside the polygon.
type Elevation struct {
	Min   float64
	Max   float64
	Mean  float64
	Cells int
}

// WatershedStatistic describes one watershed polygon. Area and Perimeter are
// in the layer's linear units.
type WatershedStatistic struct {
	ID        string
	Area      float64
	Perimeter float64
	Elevation Elevation
}

// Summary is the result of Summarize, in input feature order.
type Summary struct {
	Layer      string
	CRS        geo.CRS
	Watersheds []WatershedStatistic
}

// Aggregator computes watershed statistics.
type Aggregator struct {
	inspector geo.Inspector
	log       *logger.Logger
}

// NewAggregator creates an Aggregator reading layers through inspector.
func NewAggregator(inspector geo.Inspector, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.WithComponent("stats")
	}
	return &Aggregator{inspector: inspector, log: log}
}

// Summarize computes one statistic per polygon feature of watersheds,
// sampling elevations from filledDEM.
func (a *Aggregator) Summarize(ctx context.Context, watersheds *geo.VectorArtifact, filledDEM *geo.RasterArtifact) (*Summary, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanAggregate)
	defer span.End()

	summary, err := a.summarize(ctx, watersheds, filledDEM)
	if err != nil {
		observability.SetSpanError(ctx, err)
		a.log.WithContext(ctx).Warn("statistics failed", logger.Fields(
			logger.FieldCode, string(errors.CodeOf(err)),
			logger.FieldError, err.Error(),
		))
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrFeatureCount, len(summary.Watersheds))
	a.log.WithContext(ctx).Info("statistics computed", logger.Fields(
		logger.FieldArtifact, summary.Layer,
		"watersheds", len(summary.Watersheds),
	))
	return summary, nil
}

func (a *Aggregator) summarize(ctx context.Context, watersheds *geo.VectorArtifact, filledDEM *geo.RasterArtifact) (*Summary, error) {
	if watersheds == nil {
		return nil, errors.MissingField("watersheds")
	}
	if filledDEM == nil {
		return nil, errors.MissingField("filled_dem")
	}
	if !watersheds.CRS.Projected() {
		return nil, errors.UnprojectedCRS(watersheds.Path, watersheds.CRS.String())
	}
	if watersheds.FeatureCount == 0 {
		return nil, errors.EmptyWatershedSet(watersheds.Path)
	}

	fc, err := a.inspector.ReadFeatures(ctx, watersheds.Path)
	if err != nil {
		return nil, readError(err, watersheds.Path)
	}
	grid, err := a.inspector.ReadGrid(ctx, filledDEM.Path)
	if err != nil {
		return nil, readError(err, filledDEM.Path)
	}

	summary := &Summary{Layer: watersheds.Path, CRS: watersheds.CRS}
	for i, f := range fc.Features {
		if !polygonal(f.Geometry) {
			continue
		}
		summary.Watersheds = append(summary.Watersheds, WatershedStatistic{
			ID:        featureID(f, i),
			Area:      math.Abs(planar.Area(f.Geometry)),
			Perimeter: planar.Length(f.Geometry),
			Elevation: Zonal(grid, f.Geometry),
		})
	}
	if len(summary.Watersheds) == 0 {
		return nil, errors.EmptyWatershedSet(watersheds.Path)
	}
	return summary, nil
}

func readError(err error, path string) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.WithDetail(errors.DetailArtifact, path)
	}
	return errors.Internal(err).WithDetail(errors.DetailArtifact, path)
}

func polygonal(g orb.Geometry) bool {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	}
	return false
}

// Zonal returns elevation statistics of the grid cells whose centre lies
// inside g. Nodata and NaN cells are skipped.
func Zonal(grid *geo.Grid, g orb.Geometry) Elevation {
	var e Elevation
	if grid == nil || g == nil {
		return e
	}
	b := g.Bound()
	col0, row0, col1, row1 := grid.CellRange(geo.Extent{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]})

	var sum float64
	for row := row0; row <= row1; row++ {
		for col := col0; col <= col1; col++ {
			v, ok := grid.At(col, row)
			if !ok {
				continue
			}
			x, y := grid.CellCenter(col, row)
			if !contains(g, orb.Point{x, y}) {
				continue
			}
			if e.Cells == 0 || v < e.Min {
				e.Min = v
			}
			if e.Cells == 0 || v > e.Max {
				e.Max = v
			}
			sum += v
			e.Cells++
		}
	}
	if e.Cells > 0 {
		e.Mean = sum / float64(e.Cells)
	}
	return e
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	}
	return false
}

// featureID returns the first identifier attribute of f, or watershed_<i>.
func featureID(f *geojson.Feature, i int) string {
	for _, key := range IDFields {
		v, ok := f.Properties[key]
		if !ok || v == nil {
			continue
		}
		switch v := v.(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		default:
			return fmt.Sprint(v)
		}
	}
	return "watershed_" + strconv.Itoa(i)
}
