package gdal

import (
	"time"

	"github.com/kbukum/watershed/validation"
)

// Config names the GDAL command-line tools and bounds each call.
type Config struct {
	GDALInfo      string        `yaml:"gdalinfo" mapstructure:"gdalinfo"`
	OGRInfo       string        `yaml:"ogrinfo" mapstructure:"ogrinfo"`
	OGR2OGR       string        `yaml:"ogr2ogr" mapstructure:"ogr2ogr"`
	GDALTranslate string        `yaml:"gdal_translate" mapstructure:"gdal_translate"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// TempDir hosts intermediate grids. Empty means os.TempDir().
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// ApplyDefaults fills in binary names found on a standard GDAL install.
func (c *Config) ApplyDefaults() {
	if c.GDALInfo == "" {
		c.GDALInfo = "gdalinfo"
	}
	if c.OGRInfo == "" {
		c.OGRInfo = "ogrinfo"
	}
	if c.OGR2OGR == "" {
		c.OGR2OGR = "ogr2ogr"
	}
	if c.GDALTranslate == "" {
		c.GDALTranslate = "gdal_translate"
	}
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Minute
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
