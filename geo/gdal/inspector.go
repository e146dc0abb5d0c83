package gdal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/kbukum/watershed/geo"
	"github.com/kbukum/watershed/process"
	"github.com/kbukum/watershed/provider"
)

var _ geo.Inspector = (*Inspector)(nil)

// Runner executes one GDAL tool invocation.
type Runner = provider.RequestResponse[process.Command, *process.Result]

// Inspector reads datasets through the GDAL utilities.
type Inspector struct {
	cfg    Config
	runner Runner

	rasterInfo provider.RequestResponse[string, *geo.RasterArtifact]
	vectorInfo provider.RequestResponse[string, *geo.VectorArtifact]
	features   provider.RequestResponse[string, *geojson.FeatureCollection]
}

// New creates an Inspector. A nil runner runs the tools directly with the
// configured timeout.
func New(cfg Config, runner Runner) *Inspector {
	cfg.ApplyDefaults()
	if runner == nil {
		runner = process.NewRunner(process.Config{Name: "gdal", Timeout: cfg.Timeout})
	}
	i := &Inspector{cfg: cfg, runner: runner}

	i.rasterInfo = provider.Adapt[string, *geo.RasterArtifact, process.Command, *process.Result](
		runner, "gdalinfo",
		command(cfg.GDALInfo, "-json"),
		func(res *process.Result) (*geo.RasterArtifact, error) {
			return parseRasterInfo("", res.Stdout)
		},
	)
	i.vectorInfo = provider.Adapt[string, *geo.VectorArtifact, process.Command, *process.Result](
		runner, "ogrinfo",
		command(cfg.OGRInfo, "-json", "-so", "-al", "-ro"),
		func(res *process.Result) (*geo.VectorArtifact, error) {
			return parseVectorInfo("", res.Stdout)
		},
	)
	i.features = provider.Adapt[string, *geojson.FeatureCollection, process.Command, *process.Result](
		runner, "ogr2ogr",
		command(cfg.OGR2OGR, "-f", "GeoJSON", "-dim", "XY", "/vsistdout/"),
		func(res *process.Result) (*geojson.FeatureCollection, error) {
			fc, err := geojson.UnmarshalFeatureCollection(res.Stdout)
			if err != nil {
				return nil, fmt.Errorf("decoding ogr2ogr output: %w", err)
			}
			return fc, nil
		},
	)
	return i
}

func command(binary string, flags ...string) func(context.Context, string) (process.Command, error) {
	return func(_ context.Context, path string) (process.Command, error) {
		if path == "" {
			return process.Command{}, fmt.Errorf("path is required")
		}
		args := append(append([]string{}, flags...), path)
		return process.Command{Binary: binary, Args: args}, nil
	}
}

// DescribeRaster runs gdalinfo on path.
func (i *Inspector) DescribeRaster(ctx context.Context, path string) (*geo.RasterArtifact, error) {
	if err := readable(path); err != nil {
		return nil, err
	}
	r, err := i.rasterInfo.Execute(ctx, path)
	if err != nil {
		return nil, toolError(i.cfg.GDALInfo, path, err)
	}
	r.Path = path
	return r, nil
}

// DescribeVector runs ogrinfo on path and reports its first layer.
func (i *Inspector) DescribeVector(ctx context.Context, path string) (*geo.VectorArtifact, error) {
	if err := readable(path); err != nil {
		return nil, err
	}
	v, err := i.vectorInfo.Execute(ctx, path)
	if err != nil {
		return nil, toolError(i.cfg.OGRInfo, path, err)
	}
	v.Path = path
	return v, nil
}

// readable fails fast on missing files so the error names the path rather
// than a GDAL open failure.
func readable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// ReadFeatures streams the dataset through ogr2ogr as GeoJSON.
func (i *Inspector) ReadFeatures(ctx context.Context, path string) (*geojson.FeatureCollection, error) {
	if err := readable(path); err != nil {
		return nil, err
	}
	fc, err := i.features.Execute(ctx, path)
	if err != nil {
		return nil, toolError(i.cfg.OGR2OGR, path, err)
	}
	return fc, nil
}

// ReadGrid converts band 1 to an ASCII grid in a scratch directory and parses it.
func (i *Inspector) ReadGrid(ctx context.Context, path string) (*geo.Grid, error) {
	dir, err := os.MkdirTemp(i.cfg.TempDir, "watershed-grid-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "band1.asc")
	cmd := process.Command{
		Binary: i.cfg.GDALTranslate,
		Args:   []string{"-q", "-of", "AAIGrid", "-b", "1", path, out},
	}
	if _, err := i.runner.Execute(ctx, cmd); err != nil {
		return nil, toolError(i.cfg.GDALTranslate, path, err)
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("opening converted grid: %w", err)
	}
	defer f.Close()
	return geo.ParseASCIIGrid(f)
}

// Version checks that gdalinfo runs at all and returns its version line.
func (i *Inspector) Version(ctx context.Context) (string, error) {
	res, err := i.runner.Execute(ctx, process.Command{Binary: i.cfg.GDALInfo, Args: []string{"--version"}})
	if err != nil {
		return "", toolError(i.cfg.GDALInfo, "--version", err)
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// toolError folds the tool's own diagnostic into the error text.
func toolError(binary, path string, err error) error {
	var exitErr *process.ExitError
	if errors.As(err, &exitErr) {
		if diag := exitErr.Result.Diagnostic(3); diag != "" {
			return fmt.Errorf("%s %s: %s: %w", filepath.Base(binary), path, diag, err)
		}
	}
	return fmt.Errorf("%s %s: %w", filepath.Base(binary), path, err)
}
