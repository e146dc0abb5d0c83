package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/watershed/component"
	"github.com/kbukum/watershed/database/migration"
	"github.com/kbukum/watershed/logger"
)

func TestComponentDisabled(t *testing.T) {
	c := NewComponent(Config{}, logger.Nop())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.DB() != nil {
		t.Error("disabled component opened a database")
	}
	h := c.Health(context.Background())
	if h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("Health = %+v", h)
	}
	if c.Describe().Details != "disabled" {
		t.Errorf("Describe = %+v", c.Describe())
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestComponentLifecycleWithMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "h.db")
	c := NewComponent(Config{Enabled: true, Path: path}, logger.Nop()).
		WithMigrations(os.DirFS("migration/testdata"), "migrations")

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %+v", h)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !c.DB().GormDB.Migrator().HasTable("notes") {
		t.Error("migrations were not applied")
	}
	v, dirty, err := migration.Version(c.DB().GormDB, os.DirFS("migration/testdata"), "migrations")
	if err != nil || v != 2 || dirty {
		t.Errorf("version = %d dirty=%v err=%v", v, dirty, err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health after start = %+v", h)
	}
	if d := c.Describe(); d.Type != "database" || d.Details != "path="+path+" migrations=on" {
		t.Errorf("Describe = %+v", d)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestComponentBadMigrationsDir(t *testing.T) {
	c := NewComponent(Config{Enabled: true, Path: filepath.Join(t.TempDir(), "h.db")}, logger.Nop()).
		WithMigrations(os.DirFS("migration/testdata"), "missing")
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected migrate error")
	}
	if c.DB() != nil {
		t.Error("failed start left an open database")
	}
}

func TestComponentInvalidConfig(t *testing.T) {
	c := NewComponent(Config{Enabled: true, Path: "h.db", LogLevel: "loud"}, logger.Nop())
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
}
