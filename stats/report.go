package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReportFile is the report's file name in the output directory.
const ReportFile = "watershed_statistics.txt"

const reportTitle = "Watershed Delineation Statistics"

// Render writes the plain-text report for s to w.
func Render(w io.Writer, s *Summary) error {
	var b strings.Builder
	b.WriteString(reportTitle + "\n")
	b.WriteString(strings.Repeat("=", len(reportTitle)) + "\n\n")

	metric := s.CRS.Metric()
	unit := s.CRS.LinearUnit
	if unit == "" {
		unit = "units"
	}
	for _, ws := range s.Watersheds {
		fmt.Fprintf(&b, "%s:\n", ws.ID)
		if metric {
			fmt.Fprintf(&b, "  Area: %.2f sq km (%.2f sq m)\n", ws.Area/1e6, ws.Area)
			fmt.Fprintf(&b, "  Perimeter: %.2f meters\n", ws.Perimeter)
		} else {
			fmt.Fprintf(&b, "  Area: %.2f sq %s\n", ws.Area, unit)
			fmt.Fprintf(&b, "  Perimeter: %.2f %s\n", ws.Perimeter, unit)
		}
		if ws.Elevation.Cells > 0 {
			fmt.Fprintf(&b, "  Elevation: min %.2f, max %.2f, mean %.2f (%d cells)\n",
				ws.Elevation.Min, ws.Elevation.Max, ws.Elevation.Mean, ws.Elevation.Cells)
		} else {
			b.WriteString("  Elevation: no data\n")
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteReport renders s to path. The file is written to a temporary name and
// renamed into place, so a failed write never leaves a partial report.
func WriteReport(path string, s *Summary) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Render(tmp, s); err != nil {
		tmp.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming report: %w", err)
	}
	return nil
}
