package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/watershed/bootstrap"
	"github.com/kbukum/watershed/database"
	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/history"
)

func historyCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("history", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	fs.String("db", "", "history database file")
	limit := fs.IntP("limit", "n", history.DefaultLimit, "number of runs to list")
	runID := fs.String("run", "", "show one run with its stages")
	prune := fs.Duration("prune", 0, "delete runs older than this age, e.g. 720h")
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}

	cfg, err := loadConfigChecked(common, map[string]*pflag.Flag{"history.path": fs.Lookup("db")})
	if err != nil {
		return err
	}
	// Reading history does not depend on whether runs record it.
	cfg.History.Enabled = true

	app, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryOutput(io.Discard))
	if err != nil {
		return configError(err)
	}
	db := database.NewComponent(cfg.History, app.Logger).
		WithMigrations(history.Migrations, history.MigrationsDir)
	if err := app.RegisterComponent(db); err != nil {
		return errors.Internal(err)
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		store := history.NewStore(db.DB(), app.Logger.WithComponent("history"))
		switch {
		case *prune > 0:
			n, err := store.Prune(ctx, time.Now().Add(-*prune))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(stdout, "deleted %d run(s)\n", n)
			return err
		case *runID != "":
			rec, err := store.Get(ctx, *runID)
			if err != nil {
				return err
			}
			return history.RenderRun(stdout, rec)
		default:
			runs, err := store.Recent(ctx, *limit)
			if err != nil {
				return err
			}
			return history.RenderTable(stdout, runs)
		}
	})
}
