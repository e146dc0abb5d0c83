package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/watershed/bootstrap"
	"github.com/kbukum/watershed/component"
	"github.com/kbukum/watershed/database"
	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/gateway"
	"github.com/kbukum/watershed/geo/gdal"
	"github.com/kbukum/watershed/history"
	"github.com/kbukum/watershed/inputs"
	"github.com/kbukum/watershed/logger"
	"github.com/kbukum/watershed/observability"
	"github.com/kbukum/watershed/pipeline"
	"github.com/kbukum/watershed/stats"
	"github.com/kbukum/watershed/storage"
)

// runFlags maps each flag to its dotted config key.
var runFlags = map[string]string{
	"dem":         "pipeline.dem",
	"pour-points": "pipeline.pour_points",
	"output-dir":  "pipeline.output_dir",
	"threshold":   "pipeline.stream_threshold",
	"toolbox":     "toolbox.backend",
	"archive":     "archive.enabled",
	"history":     "history.enabled",
	"log-level":   "logging.level",
}

// newRunFlagSet declares the run flags, registering the common ones into common.
func newRunFlagSet(common *commonFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	common.register(fs)
	fs.String("dem", "", "input DEM raster")
	fs.String("pour-points", "", "pour-point vector layer")
	fs.String("output-dir", "", "directory receiving every artifact")
	fs.Int("threshold", pipeline.DefaultStreamThreshold, "stream accumulation threshold in cells")
	fs.String("toolbox", "", "toolbox backend: qgis or whitebox")
	fs.Bool("archive", false, "upload the outputs of a successful run")
	fs.Bool("history", false, "record the run in the history database")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.BoolP("quiet", "q", false, "do not print the startup summary")
	return fs
}

// bindRunFlags keys each run flag by its config key.
func bindRunFlags(fs *pflag.FlagSet) map[string]*pflag.Flag {
	bindings := make(map[string]*pflag.Flag, len(runFlags))
	for name, key := range runFlags {
		bindings[key] = fs.Lookup(name)
	}
	return bindings
}

func runCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := newRunFlagSet(&common)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	if fs.NArg() > 0 {
		return errors.InvalidInput("flags", fmt.Sprintf("unexpected arguments %v", fs.Args()))
	}
	quiet, _ := fs.GetBool("quiet")

	cfg, err := loadConfigChecked(common, bindRunFlags(fs))
	if err != nil {
		return err
	}

	opts := []bootstrap.Option{bootstrap.WithSummaryOutput(stderr)}
	if quiet {
		opts[0] = bootstrap.WithSummaryOutput(io.Discard)
	}
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return configError(err)
	}
	d, err := wire(app)
	if err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		return d.execute(ctx, stdout, stderr)
	})
}

// deps holds the components one run uses.
type deps struct {
	log       *logger.Logger
	cfg       *AppConfig
	telemetry *observability.Telemetry
	inspector *gdal.Inspector
	toolbox   *gateway.Toolbox
	archive   *storage.Component
	history   *database.Component
}

// wire builds and registers every component. Telemetry is registered first
// so it stops last and flushes what the others recorded.
func wire(app *bootstrap.App[*AppConfig]) (*deps, error) {
	cfg := app.Cfg
	log := app.Logger

	telemetry := observability.NewTelemetry(cfg.Telemetry, cfg.Name, cfg.Version, cfg.Environment)
	inspector := gdal.New(cfg.GDAL, nil)
	backend, err := gateway.NewBackend(cfg.Toolbox)
	if err != nil {
		return nil, configError(err)
	}
	// The toolbox is acquired by the first stage, so bad inputs fail a
	// recorded run before a missing toolbox could.
	toolbox := gateway.NewToolbox(cfg.Toolbox, backend, inspector,
		gateway.WithLogger(log.WithComponent("toolbox")),
		gateway.WithMetrics(telemetry.Metrics),
		gateway.WithLazyStart(),
	)
	archive := storage.NewComponent(cfg.Archive.Config, cfg.Archive.ProviderConfig(), log, telemetry.Metrics)
	hist := database.NewComponent(cfg.History, log).
		WithMigrations(history.Migrations, history.MigrationsDir)

	for _, c := range []component.Component{
		telemetry,
		gdal.NewComponent(inspector, log.WithComponent("gdal")),
		toolbox,
		archive,
		hist,
	} {
		if err := app.RegisterComponent(c); err != nil {
			return nil, errors.Internal(err)
		}
	}

	return &deps{
		log:       log,
		cfg:       cfg,
		telemetry: telemetry,
		inspector: inspector,
		toolbox:   toolbox,
		archive:   archive,
		history:   hist,
	}, nil
}

// execute runs the pipeline, then records and archives the run. History and
// archive failures are reported but never change the run's outcome.
func (d *deps) execute(ctx context.Context, stdout, stderr io.Writer) error {
	orch := pipeline.New(
		inputs.NewValidator(d.inspector, d.log.WithComponent("inputs")),
		d.toolbox,
		stats.NewAggregator(d.inspector, d.log.WithComponent("stats")),
		pipeline.WithLogger(d.log.WithComponent("pipeline")),
		pipeline.WithMetrics(d.telemetry.Metrics),
	)
	run, runErr := orch.Run(ctx, d.cfg.Pipeline)

	if db := d.history.DB(); db != nil {
		// Record even when the run was canceled.
		recordCtx := context.WithoutCancel(ctx)
		if err := history.NewStore(db, d.log.WithComponent("history")).Record(recordCtx, run); err != nil {
			fmt.Fprintf(stderr, "warning: run not recorded: %v\n", err)
		}
	}

	printRun(stdout, run)

	if archiver := d.archive.Archiver(); archiver != nil && run.Succeeded() {
		manifest, err := archiver.Archive(ctx, run.ID, run.Outputs)
		if err != nil {
			fmt.Fprintf(stderr, "warning: archive failed: %v\n", err)
		} else {
			fmt.Fprintf(stdout, "\narchived %d objects under %s\n", len(manifest.Objects), manifest.Prefix)
		}
	}
	return runErr
}

// printRun writes the run id, its outcome and every output path.
func printRun(w io.Writer, run *pipeline.Run) {
	fmt.Fprintf(w, "run %s %s in %s\n", run.ID, run.State(), run.Duration().Round(time.Millisecond))
	keys := make([]string, 0, len(run.Outputs))
	for k := range run.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-18s %s\n", k, run.Outputs[k])
	}
	if run.Summary != nil {
		fmt.Fprintf(w, "  %d watershed(s)\n", len(run.Summary.Watersheds))
	}
}

// loadConfigChecked rejects an explicit config file that does not exist
// before loading.
func loadConfigChecked(common commonFlags, bindings map[string]*pflag.Flag) (*AppConfig, error) {
	if common.configFile != "" {
		if _, err := os.Stat(common.configFile); err != nil {
			return nil, errors.InvalidInput("config", fmt.Sprintf("cannot read %s", common.configFile)).WithCause(err)
		}
	}
	return loadConfig(common, bindings)
}
