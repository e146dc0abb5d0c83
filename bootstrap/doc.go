// Package bootstrap runs one command invocation with a uniform lifecycle:
// typed configuration, component registration, start hooks, a startup
// summary and graceful shutdown.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(toolbox)
//	app.RegisterComponent(history)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := orchestrator.Run(ctx, cfg.Pipeline)
//	    return err
//	})
//
// SIGINT and SIGTERM cancel the task context; components are stopped in
// reverse registration order once the task returns.
package bootstrap
