package gateway

import (
	"time"

	"github.com/kbukum/watershed/validation"
)

// Config selects and tunes the toolbox backend.
type Config struct {
	// Backend names a registered backend: "qgis" or "whitebox".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"required"`
	// Binary overrides the backend's executable.
	Binary string `yaml:"binary" mapstructure:"binary"`
	// Timeout bounds each algorithm call. Zero waits for the toolbox.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// GracePeriod is the delay between SIGTERM and SIGKILL on cancellation.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period" validate:"gte=0"`
	// WorkDir is the working directory of toolbox processes.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
	// Algorithms overrides the native algorithm name per algorithm id, e.g.
	// fill-sinks: sagang:fillsinksplanchondarboux on QGIS with SAGA NextGen.
	Algorithms map[string]string `yaml:"algorithms" mapstructure:"algorithms"`
	// Env adds KEY=value pairs to the toolbox environment, e.g. QT_QPA_PLATFORM=offscreen.
	Env []string `yaml:"env" mapstructure:"env"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = "qgis"
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = 10 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// NativeName returns the configured override for alg, or def.
func (c *Config) NativeName(alg AlgorithmID, def string) string {
	if n := c.Algorithms[string(alg)]; n != "" {
		return n
	}
	return def
}
