// Package validation provides input validation for configuration and
// toolbox parameters.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection.
//
// # Struct Tag Validation
//
//	type StreamParams struct {
//	    Threshold int `mapstructure:"threshold" validate:"gt=0"`
//	}
//	err := validation.Validate(params)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("dem", cfg.DEM).Positive("stream_threshold", cfg.StreamThreshold)
//	err := v.Validate()
package validation
