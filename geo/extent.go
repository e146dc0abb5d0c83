package geo

import (
	"fmt"
	"math"
)

// Extent is an axis-aligned bounding box in CRS units.
type Extent struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// NewExtent builds an extent from two corners in any order.
func NewExtent(x1, y1, x2, y2 float64) Extent {
	return Extent{
		MinX: math.Min(x1, x2),
		MinY: math.Min(y1, y2),
		MaxX: math.Max(x1, x2),
		MaxY: math.Max(y1, y2),
	}
}

// Valid reports whether the bounds are finite and ordered. A degenerate
// extent (a single point layer) is valid.
func (e Extent) Valid() bool {
	for _, v := range []float64{e.MinX, e.MinY, e.MaxX, e.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return e.MinX <= e.MaxX && e.MinY <= e.MaxY
}

// Width returns MaxX - MinX.
func (e Extent) Width() float64 { return e.MaxX - e.MinX }

// Height returns MaxY - MinY.
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// Area returns Width * Height.
func (e Extent) Area() float64 { return e.Width() * e.Height() }

// Intersects reports whether two extents share at least one point.
// Touching edges count as intersecting.
func (e Extent) Intersects(o Extent) bool {
	if !e.Valid() || !o.Valid() {
		return false
	}
	return e.MinX <= o.MaxX && o.MinX <= e.MaxX &&
		e.MinY <= o.MaxY && o.MinY <= e.MaxY
}

// Contains reports whether (x, y) lies inside or on the boundary.
func (e Extent) Contains(x, y float64) bool {
	return x >= e.MinX && x <= e.MaxX && y >= e.MinY && y <= e.MaxY
}

// Union returns the smallest extent covering both.
func (e Extent) Union(o Extent) Extent {
	return Extent{
		MinX: math.Min(e.MinX, o.MinX),
		MinY: math.Min(e.MinY, o.MinY),
		MaxX: math.Max(e.MaxX, o.MaxX),
		MaxY: math.Max(e.MaxY, o.MaxY),
	}
}

func (e Extent) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", e.MinX, e.MinY, e.MaxX, e.MaxY)
}
