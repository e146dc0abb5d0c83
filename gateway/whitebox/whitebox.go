// Package whitebox runs the hydrology algorithms through the WhiteboxTools
// command-line binary.
package whitebox

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/gateway"
	"github.com/kbukum/watershed/process"
)

// Name is the backend name used in configuration.
const Name = "whitebox"

const defaultBinary = "whitebox_tools"

func init() {
	gateway.RegisterBackend(Name, func(cfg gateway.Config) (gateway.Backend, error) {
		return New(cfg, nil), nil
	})
}

var _ gateway.Backend = (*Backend)(nil)

// step is one whitebox_tools invocation.
type step struct {
	tool string
	args []string
}

// Backend drives whitebox_tools.
type Backend struct {
	cfg    gateway.Config
	runner gateway.Runner

	mu      sync.RWMutex
	version string
	catalog *gateway.Catalog
}

// New creates the backend. A nil runner executes whitebox_tools directly.
func New(cfg gateway.Config, runner gateway.Runner) *Backend {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if runner == nil {
		runner = process.NewRunner(process.Config{Name: Name, GracePeriod: cfg.GracePeriod})
	}
	return &Backend{cfg: cfg, runner: runner, catalog: gateway.NewCatalog()}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) IsAvailable(_ context.Context) bool {
	_, err := process.LookPath(b.cfg.Binary)
	return err == nil
}

func (b *Backend) Version() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

func (b *Backend) Catalog() *gateway.Catalog {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.catalog
}

// Init reads the version banner and the tool list.
func (b *Backend) Init(ctx context.Context) error {
	res, err := b.runner.Execute(ctx, b.command("--version"))
	if err != nil {
		return errors.ToolboxUnavailable(Name, fmt.Sprintf("%s --version: %v", b.cfg.Binary, err)).WithCause(err)
	}
	version := parseVersion(res.Stdout)

	res, err = b.runner.Execute(ctx, b.command("--listtools"))
	if err != nil {
		return errors.ToolboxUnavailable(Name, fmt.Sprintf("%s --listtools: %v", b.cfg.Binary, err)).WithCause(err)
	}

	b.mu.Lock()
	b.version, b.catalog = version, parseToolList(res.Stdout)
	b.mu.Unlock()
	return nil
}

func (b *Backend) Close(_ context.Context) error { return nil }

// Execute runs the tool chain for one algorithm. Watershed delineation is
// two tools: Watershed writes a basin raster that RasterToVectorPolygons
// turns into the polygon layer.
func (b *Backend) Execute(ctx context.Context, inv gateway.Invocation) (gateway.Output, error) {
	alg := inv.Algorithm()
	steps, err := b.plan(inv)
	if err != nil {
		return gateway.Output{}, err
	}
	cat := b.Catalog()
	for _, s := range steps {
		if cat.Len() > 0 && !cat.Has(s.tool) {
			return gateway.Output{}, errors.AlgorithmNotFound(s.tool, Name)
		}
	}

	start := time.Now()
	var messages string
	for _, s := range steps {
		args := append([]string{"-r=" + s.tool}, s.args...)
		res, err := b.runner.Execute(ctx, b.command(args...))
		if err != nil {
			if unknownTool(res) {
				return gateway.Output{}, errors.AlgorithmNotFound(s.tool, Name).WithCause(err)
			}
			return gateway.Output{}, gateway.RunError(Name, alg, err)
		}
		messages = res.Diagnostic(5)
	}
	return gateway.Output{
		Path:     inv.OutputPath,
		Kind:     alg.OutputKind(),
		Messages: messages,
		Duration: time.Since(start),
	}, nil
}

func (b *Backend) command(args ...string) process.Command {
	return process.Command{
		Binary:      b.cfg.Binary,
		Args:        args,
		Dir:         b.cfg.WorkDir,
		Env:         gateway.MergeEnv(nil, b.cfg.Env),
		GracePeriod: b.cfg.GracePeriod,
	}
}

func (b *Backend) plan(inv gateway.Invocation) ([]step, error) {
	out := inv.OutputPath
	name := func(alg gateway.AlgorithmID, def string) string { return b.cfg.NativeName(alg, def) }

	switch p := inv.Params.(type) {
	case gateway.FillSinksParams:
		// Flats are resolved with the tool's own small increment.
		return []step{{
			tool: name(gateway.FillSinks, "FillDepressions"),
			args: []string{"--dem=" + p.DEM, "--output=" + out, "--fix_flats"},
		}}, nil
	case gateway.FlowDirectionParams:
		return []step{{
			tool: name(gateway.D8FlowDirection, "D8Pointer"),
			args: []string{"--dem=" + p.Elevation, "--output=" + out},
		}}, nil
	case gateway.FlowAccumulationParams:
		return []step{{
			tool: name(gateway.FlowAccumulation, "D8FlowAccumulation"),
			args: []string{"--input=" + p.Direction, "--output=" + out, "--out_type=cells", "--pntr"},
		}}, nil
	case gateway.StreamExtractionParams:
		return []step{{
			tool: name(gateway.StreamExtraction, "ExtractStreams"),
			args: []string{"--flow_accum=" + p.Accumulation, "--output=" + out, "--threshold=" + strconv.Itoa(p.Threshold)},
		}}, nil
	case gateway.WatershedParams:
		basins := strings.TrimSuffix(out, filepath.Ext(out)) + "_basins.tif"
		return []step{
			{
				tool: name(gateway.RecursiveWatersheds, "Watershed"),
				args: []string{"--d8_pntr=" + p.Direction, "--pour_pts=" + p.PourPoints, "--output=" + basins},
			},
			{
				tool: "RasterToVectorPolygons",
				args: []string{"--input=" + basins, "--output=" + out},
			},
		}, nil
	default:
		return nil, errors.AlgorithmNotFound(string(inv.Algorithm()), Name)
	}
}

// parseVersion returns e.g. "v2.3.0" from "WhiteboxTools v2.3.0 (c) Dr. John Lindsay ...".
func parseVersion(out []byte) string {
	for _, f := range strings.Fields(string(out)) {
		if strings.HasPrefix(f, "v") && len(f) > 1 && f[1] >= '0' && f[1] <= '9' {
			return f
		}
	}
	return ""
}

// parseToolList reads `--listtools`: a header line, then "Name: description".
func parseToolList(out []byte) *gateway.Catalog {
	c := gateway.NewCatalog()
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		name, _, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			continue
		}
		c.Add(name)
	}
	return c
}

func unknownTool(res *process.Result) bool {
	if res == nil {
		return false
	}
	text := strings.ToLower(string(res.Stderr) + string(res.Stdout))
	return strings.Contains(text, "unrecognized tool name")
}
