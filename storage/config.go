package storage

import (
	"fmt"
	"strings"
)

// Provider names.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Defaults.
const (
	DefaultProvider    = ProviderLocal
	DefaultPrefix      = "watershed-runs"
	DefaultConcurrency = 4
	DefaultRetries     = 3
)

// Config holds archive configuration. Backend settings live in the
// provider packages' own Config types.
type Config struct {
	// Enabled turns archiving on.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Provider selects the backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider"`

	// Prefix is prepended to every object key.
	Prefix string `mapstructure:"prefix" json:"prefix"`

	// Concurrency bounds parallel uploads.
	Concurrency int `mapstructure:"concurrency" json:"concurrency"`

	// Retries is the number of attempts per object. 1 disables retrying.
	Retries int `mapstructure:"retries" json:"retries"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
}

// Validate checks the provider name and prefix.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal, ProviderS3:
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	if strings.Contains(c.Prefix, "..") {
		return fmt.Errorf("storage: prefix %q must not contain ..", c.Prefix)
	}
	return nil
}
