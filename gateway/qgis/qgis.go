// Package qgis runs the hydrology algorithms through qgis_process, the QGIS
// processing command-line runner, using the SAGA provider.
package qgis

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/gateway"
	"github.com/kbukum/watershed/process"
)

// Name is the backend name used in configuration.
const Name = "qgis"

const defaultBinary = "qgis_process"

// offscreen lets qgis_process start without a display.
var defaultEnv = []string{"QT_QPA_PLATFORM=offscreen"}

func init() {
	gateway.RegisterBackend(Name, func(cfg gateway.Config) (gateway.Backend, error) {
		return New(cfg, nil), nil
	})
}

var _ gateway.Backend = (*Backend)(nil)

// Backend drives qgis_process.
type Backend struct {
	cfg    gateway.Config
	runner gateway.Runner

	mu      sync.RWMutex
	version string
	catalog *gateway.Catalog
}

// New creates the backend. A nil runner executes qgis_process directly.
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

// IsAvailable reports whether the binary resolves on PATH.
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

// Init starts qgis_process once to read its version and algorithm list.
func (b *Backend) Init(ctx context.Context) error {
	res, err := b.runner.Execute(ctx, b.command("--version"))
	if err != nil {
		return errors.ToolboxUnavailable(Name, fmt.Sprintf("%s --version: %v", b.cfg.Binary, err)).WithCause(err)
	}
	version := parseVersion(res.Stdout)

	res, err = b.runner.Execute(ctx, b.command("list"))
	if err != nil {
		return errors.ToolboxUnavailable(Name, fmt.Sprintf("%s list: %v", b.cfg.Binary, err)).WithCause(err)
	}
	catalog := parseList(res.Stdout)

	b.mu.Lock()
	b.version, b.catalog = version, catalog
	b.mu.Unlock()
	return nil
}

// Close has nothing to release: every call is its own process.
func (b *Backend) Close(_ context.Context) error { return nil }

// Execute runs one algorithm.
func (b *Backend) Execute(ctx context.Context, inv gateway.Invocation) (gateway.Output, error) {
	alg := inv.Algorithm()
	native, args, err := b.translate(inv)
	if err != nil {
		return gateway.Output{}, err
	}
	// An empty catalog means `list` printed nothing we could parse; let
	// qgis_process itself decide.
	if cat := b.Catalog(); cat.Len() > 0 && !cat.Has(native) {
		return gateway.Output{}, errors.AlgorithmNotFound(native, Name)
	}

	start := time.Now()
	res, err := b.runner.Execute(ctx, b.command(append([]string{"run", native, "--"}, args...)...))
	if err != nil {
		if unknownAlgorithm(res) {
			return gateway.Output{}, errors.AlgorithmNotFound(native, Name).WithCause(err)
		}
		return gateway.Output{}, gateway.RunError(Name, alg, err)
	}
	return gateway.Output{
		Path:     inv.OutputPath,
		Kind:     alg.OutputKind(),
		Messages: res.Diagnostic(5),
		Duration: time.Since(start),
	}, nil
}

func (b *Backend) command(args ...string) process.Command {
	return process.Command{
		Binary:      b.cfg.Binary,
		Args:        args,
		Dir:         b.cfg.WorkDir,
		Env:         gateway.MergeEnv(defaultEnv, b.cfg.Env),
		GracePeriod: b.cfg.GracePeriod,
	}
}

// translate maps typed parameters to the SAGA algorithm and KEY=value pairs.
func (b *Backend) translate(inv gateway.Invocation) (string, []string, error) {
	out := inv.OutputPath
	switch p := inv.Params.(type) {
	case gateway.FillSinksParams:
		return b.cfg.NativeName(gateway.FillSinks, "saga:fillsinks"), []string{"DEM=" + p.DEM, "RESULT=" + out}, nil
	case gateway.FlowDirectionParams:
		return b.cfg.NativeName(gateway.D8FlowDirection, "saga:flowdirection"),
			[]string{"ELEVATION=" + p.Elevation, "DIRECTION=" + out}, nil
	case gateway.FlowAccumulationParams:
		return b.cfg.NativeName(gateway.FlowAccumulation, "saga:flowaccumulation"),
			[]string{"DIRECTION=" + p.Direction, "ACCUMULATION=" + out}, nil
	case gateway.StreamExtractionParams:
		return b.cfg.NativeName(gateway.StreamExtraction, "saga:streamnetwork"),
			[]string{"INPUT=" + p.Accumulation, "THRESHOLD=" + strconv.Itoa(p.Threshold), "OUTPUT=" + out}, nil
	case gateway.WatershedParams:
		return b.cfg.NativeName(gateway.RecursiveWatersheds, "saga:watershedbasins"),
			[]string{"DIRECTION=" + p.Direction, "POINTS=" + p.PourPoints, "BASINS=" + out}, nil
	default:
		return "", nil, errors.AlgorithmNotFound(string(inv.Algorithm()), Name)
	}
}

// parseVersion returns the first line mentioning QGIS, e.g. "QGIS 3.34.4-Prizren".
func parseVersion(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "QGIS ") {
			return strings.TrimPrefix(line, "QGIS ")
		}
	}
	return ""
}

// parseList reads `qgis_process list`. Algorithm lines are indented and
// start with provider:algorithm followed by a tab and a description.
func parseList(out []byte) *gateway.Catalog {
	c := gateway.NewCatalog()
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if line == "" || (line[0] != '\t' && line[0] != ' ') {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 && strings.Contains(fields[0], ":") {
			c.Add(fields[0])
		}
	}
	return c
}

func unknownAlgorithm(res *process.Result) bool {
	if res == nil {
		return false
	}
	text := strings.ToLower(string(res.Stderr) + string(res.Stdout))
	return strings.Contains(text, "algorithm") && strings.Contains(text, "not found")
}
