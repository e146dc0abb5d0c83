package pipeline

import "github.com/kbukum/watershed/validation"

// DefaultStreamThreshold is the accumulation threshold, in cells, used when
// none is configured. The command line and the config loader carry it as
// their default; a Config built in code starts from DefaultConfig.
const DefaultStreamThreshold = 1000

// Config holds the inputs of one run.
type Config struct {
	DEM        string `mapstructure:"dem" validate:"required"`
	PourPoints string `mapstructure:"pour_points" validate:"required"`
	OutputDir  string `mapstructure:"output_dir" validate:"required"`
	// StreamThreshold is the minimum upstream cell count of a stream cell.
	StreamThreshold int `mapstructure:"stream_threshold" validate:"gt=0"`
}

// DefaultConfig returns a Config carrying the default stream threshold.
// A zero threshold is never replaced later: it fails validation.
func DefaultConfig() Config {
	return Config{StreamThreshold: DefaultStreamThreshold}
}

// Validate checks the recognized fields.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
