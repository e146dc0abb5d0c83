package database

import (
	"fmt"
	"strings"
	"time"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Config holds the run-history database settings.
type Config struct {
	// Enabled controls whether the database component is active.
	Enabled bool `mapstructure:"enabled"`

	// Path is the SQLite file. Parent directories are created on open.
	Path string `mapstructure:"path"`

	// MaxRetries is the number of open attempts before giving up.
	MaxRetries int `mapstructure:"max_retries"`

	// BusyTimeout is how long a writer waits on a locked file (e.g. "5s").
	BusyTimeout string `mapstructure:"busy_timeout"`

	// SlowQueryThreshold is the duration above which queries are logged as slow (e.g. "200ms").
	SlowQueryThreshold string `mapstructure:"slow_query_threshold"`

	// LogLevel is the GORM log level: silent, error, warn or info.
	LogLevel string `mapstructure:"log_level"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "watershed-history.db"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BusyTimeout == "" {
		c.BusyTimeout = "5s"
	}
	if c.SlowQueryThreshold == "" {
		c.SlowQueryThreshold = "200ms"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks the configuration. A disabled config is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("database: path is required when enabled")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("database: max_retries must be non-negative, got %d", c.MaxRetries)
	}
	for name, v := range map[string]string{
		"busy_timeout":         c.BusyTimeout,
		"slow_query_threshold": c.SlowQueryThreshold,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("database: invalid %s %q: %w", name, v, err)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("database: unknown log_level %q", c.LogLevel)
	}
	return nil
}

// DSN builds the SQLite connection string with foreign keys on and the
// busy timeout applied.
func (c *Config) DSN() string {
	busy, err := time.ParseDuration(c.BusyTimeout)
	if err != nil {
		busy = 5 * time.Second
	}
	return fmt.Sprintf("%s?_busy_timeout=%d&_foreign_keys=on", c.Path, busy.Milliseconds())
}

// InMemory reports whether the config points at a private in-memory database.
func (c *Config) InMemory() bool {
	return c.Path == MemoryPath
}
