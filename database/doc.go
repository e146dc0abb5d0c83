// Package database opens the SQLite file that backs run history.
//
// The connection is made through GORM with a retrying open, a zerolog-backed
// query logger and a component wrapper that applies embedded golang-migrate
// migrations on Start:
//
//	comp := database.NewComponent(cfg, log).
//	    WithMigrations(history.Migrations, history.MigrationsDir)
//	if err := comp.Start(ctx); err != nil {
//	    return err
//	}
//	defer comp.Stop(ctx)
//
// A disabled component starts without opening anything and reports itself
// healthy with the message "disabled".
package database
