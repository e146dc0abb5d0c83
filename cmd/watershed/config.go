package main

import (
	"fmt"

	"github.com/kbukum/watershed/config"
	"github.com/kbukum/watershed/database"
	"github.com/kbukum/watershed/gateway"
	"github.com/kbukum/watershed/geo/gdal"
	"github.com/kbukum/watershed/observability"
	"github.com/kbukum/watershed/pipeline"
	"github.com/kbukum/watershed/storage"
	"github.com/kbukum/watershed/storage/local"
	"github.com/kbukum/watershed/storage/s3"
	"github.com/kbukum/watershed/validation"
)

// AppConfig is the full configuration of the watershed command.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Pipeline  pipeline.Config      `yaml:"pipeline" mapstructure:"pipeline"`
	Toolbox   gateway.Config       `yaml:"toolbox" mapstructure:"toolbox"`
	GDAL      gdal.Config          `yaml:"gdal" mapstructure:"gdal"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
	Archive   ArchiveConfig        `yaml:"archive" mapstructure:"archive"`
	History   database.Config      `yaml:"history" mapstructure:"history"`
}

// ArchiveConfig adds the backend sections to the archive settings.
type ArchiveConfig struct {
	storage.Config `yaml:",inline" mapstructure:",squash"`

	Local local.Config `yaml:"local" mapstructure:"local"`
	S3    s3.Config    `yaml:"s3" mapstructure:"s3"`
}

// ProviderConfig returns the section of the selected backend.
func (c *ArchiveConfig) ProviderConfig() any {
	if c.Provider == storage.ProviderS3 {
		return &c.S3
	}
	return &c.Local
}

// ApplyDefaults fills every infrastructure section. The pipeline threshold
// default comes from the loader so an explicit zero stays visible.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Toolbox.ApplyDefaults()
	c.GDAL.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Archive.Config.ApplyDefaults()
	c.Archive.Local.ApplyDefaults()
	c.Archive.S3.ApplyDefaults()
	c.History.ApplyDefaults()
}

// Validate checks the infrastructure sections. The pipeline section is
// validated by the run itself so a bad input still produces a Failed run.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Toolbox.Validate(); err != nil {
		return fmt.Errorf("toolbox: %w", err)
	}
	if err := c.GDAL.Validate(); err != nil {
		return fmt.Errorf("gdal: %w", err)
	}
	if err := validation.Validate(&c.Telemetry); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if c.Archive.Enabled {
		if err := c.Archive.Config.Validate(); err != nil {
			return err
		}
		v, ok := c.Archive.ProviderConfig().(interface{ Validate() error })
		if ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}
	return c.History.Validate()
}
