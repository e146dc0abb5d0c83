package geo

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Grid is a single-band raster held in memory, row-major from the top row.
type Grid struct {
	Cols int
	Rows int
	// OriginX and OriginY are the lower-left corner of the lower-left cell.
	OriginX float64
	OriginY float64
	DX      float64
	DY      float64
	NoData  *float64
	Values  []float64
}

// ParseASCIIGrid reads an ESRI ASCII grid (the AAIGrid format GDAL writes).
// Header keys are case-insensitive; xllcenter/yllcenter are converted to
// corner coordinates and "dx"/"dy" are accepted in place of "cellsize".
func ParseASCIIGrid(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	header := map[string]float64{}
	var pending string
	for pending == "" && sc.Scan() {
		tok := sc.Text()
		if !isHeaderKey(tok) {
			pending = tok
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("grid: header %q has no value", tok)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("grid: header %q: %w", tok, err)
		}
		header[strings.ToLower(tok)] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}

	g, err := gridFromHeader(header)
	if err != nil {
		return nil, err
	}

	n := g.Cols * g.Rows
	g.Values = make([]float64, 0, n)
	parse := func(tok string) error {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("grid: cell %d: %w", len(g.Values), err)
		}
		g.Values = append(g.Values, v)
		return nil
	}
	if pending != "" {
		if err := parse(pending); err != nil {
			return nil, err
		}
	}
	for len(g.Values) < n && sc.Scan() {
		if err := parse(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	if len(g.Values) != n {
		return nil, fmt.Errorf("grid: expected %d cells, got %d", n, len(g.Values))
	}
	return g, nil
}

func isHeaderKey(tok string) bool {
	if tok == "" {
		return false
	}
	switch strings.ToLower(tok) {
	case "nan", "inf", "infinity":
		return false
	}
	c := tok[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func gridFromHeader(h map[string]float64) (*Grid, error) {
	cols, okc := h["ncols"]
	rows, okr := h["nrows"]
	if !okc || !okr || cols < 1 || rows < 1 {
		return nil, fmt.Errorf("grid: ncols and nrows must be positive")
	}
	g := &Grid{Cols: int(cols), Rows: int(rows)}

	if cs, ok := h["cellsize"]; ok {
		g.DX, g.DY = cs, cs
	} else {
		g.DX, g.DY = h["dx"], h["dy"]
	}
	if g.DX <= 0 || g.DY <= 0 {
		return nil, fmt.Errorf("grid: cell size must be positive")
	}

	switch {
	case has(h, "xllcorner"):
		g.OriginX = h["xllcorner"]
	case has(h, "xllcenter"):
		g.OriginX = h["xllcenter"] - g.DX/2
	default:
		return nil, fmt.Errorf("grid: missing xllcorner")
	}
	switch {
	case has(h, "yllcorner"):
		g.OriginY = h["yllcorner"]
	case has(h, "yllcenter"):
		g.OriginY = h["yllcenter"] - g.DY/2
	default:
		return nil, fmt.Errorf("grid: missing yllcorner")
	}

	if nd, ok := h["nodata_value"]; ok {
		g.NoData = &nd
	}
	return g, nil
}

func has(h map[string]float64, k string) bool {
	_, ok := h[k]
	return ok
}

// Extent returns the grid's bounding box.
func (g *Grid) Extent() Extent {
	return Extent{
		MinX: g.OriginX,
		MinY: g.OriginY,
		MaxX: g.OriginX + float64(g.Cols)*g.DX,
		MaxY: g.OriginY + float64(g.Rows)*g.DY,
	}
}

// CellArea returns the area of one cell in CRS units squared.
func (g *Grid) CellArea() float64 { return g.DX * g.DY }

// CellCenter returns the coordinates of the centre of cell (col, row),
// row 0 being the top row.
func (g *Grid) CellCenter(col, row int) (x, y float64) {
	x = g.OriginX + (float64(col)+0.5)*g.DX
	y = g.OriginY + (float64(g.Rows-row)-0.5)*g.DY
	return x, y
}

// At returns the value of cell (col, row). ok is false outside the grid and
// for nodata or NaN cells.
func (g *Grid) At(col, row int) (v float64, ok bool) {
	if col < 0 || row < 0 || col >= g.Cols || row >= g.Rows {
		return 0, false
	}
	v = g.Values[row*g.Cols+col]
	if math.IsNaN(v) || (g.NoData != nil && v == *g.NoData) {
		return v, false
	}
	return v, true
}

// CellRange returns the inclusive column and row range whose cells may have
// their centre inside e, clipped to the grid.
func (g *Grid) CellRange(e Extent) (col0, row0, col1, row1 int) {
	col0 = clamp(int(math.Floor((e.MinX-g.OriginX)/g.DX)), 0, g.Cols-1)
	col1 = clamp(int(math.Ceil((e.MaxX-g.OriginX)/g.DX)), 0, g.Cols-1)
	top := g.OriginY + float64(g.Rows)*g.DY
	row0 = clamp(int(math.Floor((top-e.MaxY)/g.DY)), 0, g.Rows-1)
	row1 = clamp(int(math.Ceil((top-e.MinY)/g.DY)), 0, g.Rows-1)
	return col0, row0, col1, row1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
