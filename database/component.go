package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/kbukum/watershed/component"
	"github.com/kbukum/watershed/database/migration"
	"github.com/kbukum/watershed/logger"
)

// Component wraps DB and implements component.Component for lifecycle management.
type Component struct {
	db  *DB
	cfg Config
	log *logger.Logger

	migrations fs.FS
	migrateDir string
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a database component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{cfg: cfg, log: log.WithComponent("database")}
}

// WithMigrations registers versioned SQL migrations applied on Start.
func (c *Component) WithMigrations(fsys fs.FS, dir string) *Component {
	c.migrations, c.migrateDir = fsys, dir
	return c
}

// DB returns the underlying *DB, or nil if disabled or not started.
func (c *Component) DB() *DB { return c.db }

// Enabled reports whether the component opens a database at all.
func (c *Component) Enabled() bool { return c.cfg.Enabled }

func (c *Component) Name() string { return "database" }

// Start opens the database and applies pending migrations.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Debug("Database disabled, skipping start")
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	c.db = db

	if c.migrations != nil {
		if err := migration.Up(db.GormDB, c.migrations, c.migrateDir); err != nil {
			_ = db.Close()
			c.db = nil
			return fmt.Errorf("database migrate: %w", err)
		}
		version, _, err := migration.Version(db.GormDB, c.migrations, c.migrateDir)
		if err == nil {
			c.log.Debug("Migrations applied", logger.Fields("version", version))
		}
	}
	return nil
}

// Stop closes the database.
func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "disabled"}
	}
	if c.db == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "database not initialized"}
	}
	if err := c.db.PingContext(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns a one-line summary for the startup banner.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = "path=" + c.cfg.Path
		if c.migrations != nil {
			details += " migrations=on"
		}
	}
	return component.Description{Name: "History", Type: "database", Details: details}
}
