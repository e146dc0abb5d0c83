// Package config loads layered configuration for the watershed tools.
//
// Values are resolved with Viper from, in increasing precedence: registered
// defaults, a YAML config file, a .env file and the process environment
// (prefixed, e.g. WATERSHED_PIPELINE_STREAM_THRESHOLD), and explicitly set
// command-line flags.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("watershed", &cfg,
//	    config.WithEnvPrefix("WATERSHED"),
//	    config.WithFlag("pipeline.dem", flags.Lookup("dem")),
//	)
package config
