package local

import "fmt"

// DefaultBasePath is the default archive root.
const DefaultBasePath = "./archive"

// Config holds local filesystem storage configuration.
type Config struct {
	// BasePath is the archive root directory.
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
}

// Validate checks that the local configuration is valid.
func (c *Config) Validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("local: base_path is required")
	}
	return nil
}
