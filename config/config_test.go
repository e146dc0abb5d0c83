package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

type testPipeline struct {
	DEM             string        `mapstructure:"dem"`
	StreamThreshold int           `mapstructure:"stream_threshold"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pipeline      testPipeline `mapstructure:"pipeline"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	var cfg ServiceConfig
	cfg.ApplyDefaults()
	if cfg.Name != "watershed" {
		t.Errorf("expected default name, got %q", cfg.Name)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected 'development', got %q", cfg.Environment)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info log level, got %q", cfg.Logging.Level)
	}

	debug := ServiceConfig{Debug: true}
	debug.ApplyDefaults()
	if debug.Logging.Level != "debug" {
		t.Errorf("expected debug log level when debug=true, got %q", debug.Logging.Level)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServiceConfig)
		wantErr string
	}{
		{"valid", func(*ServiceConfig) {}, ""},
		{"missing name", func(c *ServiceConfig) { c.Name = "" }, "config.name is required"},
		{"bad environment", func(c *ServiceConfig) { c.Environment = "lab" }, "config.environment must be one of"},
		{"bad log level", func(c *ServiceConfig) { c.Logging.Level = "loud" }, "config.logging"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg ServiceConfig
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: watershed
environment: staging
pipeline:
  dem: /data/dem.tif
  stream_threshold: 500
  timeout: 90s
`)

	var cfg testConfig
	if err := LoadConfig("watershed", &cfg, WithConfigFile(path), WithEnvPrefix("WSTEST_NONE")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected staging, got %q", cfg.Environment)
	}
	if cfg.Pipeline.DEM != "/data/dem.tif" {
		t.Errorf("unexpected dem %q", cfg.Pipeline.DEM)
	}
	if cfg.Pipeline.StreamThreshold != 500 {
		t.Errorf("expected threshold 500, got %d", cfg.Pipeline.StreamThreshold)
	}
	if cfg.Pipeline.Timeout != 90*time.Second {
		t.Errorf("expected 90s timeout, got %v", cfg.Pipeline.Timeout)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("watershed", &cfg,
		WithConfigFile("/nonexistent/path.yml"),
		WithEnvFile("/nonexistent/.env"),
		WithEnvPrefix("WSTEST_NONE"),
		WithDefaults(map[string]any{"pipeline.stream_threshold": 1000}),
	)
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
	if cfg.Pipeline.StreamThreshold != 1000 {
		t.Errorf("expected default threshold, got %d", cfg.Pipeline.StreamThreshold)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "pipeline: [unterminated")
	var cfg testConfig
	if err := LoadConfig("watershed", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
pipeline:
  dem: from-file.tif
  stream_threshold: 200
`)
	t.Setenv("WSTEST_PIPELINE_STREAM_THRESHOLD", "300")
	t.Setenv("WSTEST_PIPELINE_DEM", "from-env.tif")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dem", "", "")
	flags.Int("threshold", 1000, "")
	if err := flags.Parse([]string{"--dem", "from-flag.tif"}); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	err := LoadConfig("watershed", &cfg,
		WithConfigFile(path),
		WithEnvPrefix("WSTEST"),
		WithFlag("pipeline.dem", flags.Lookup("dem")),
		WithFlag("pipeline.stream_threshold", flags.Lookup("threshold")),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Pipeline.DEM != "from-flag.tif" {
		t.Errorf("explicit flag should win, got %q", cfg.Pipeline.DEM)
	}
	if cfg.Pipeline.StreamThreshold != 300 {
		t.Errorf("env should beat file and unset flag, got %d", cfg.Pipeline.StreamThreshold)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "WSTESTENV_PIPELINE_DEM=dotenv.tif\n")
	t.Cleanup(func() { os.Unsetenv("WSTESTENV_PIPELINE_DEM") })

	var cfg testConfig
	if err := LoadConfig("watershed", &cfg, WithEnvFile(envPath), WithEnvPrefix("WSTESTENV")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Pipeline.DEM != "dotenv.tif" {
		t.Errorf("expected dem from .env, got %q", cfg.Pipeline.DEM)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/watershed/config.yml": true,
		"./.env":                     true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("watershed", LoaderConfig{})
	if files.ConfigFile != "./cmd/watershed/config.yml" {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}

	explicit := resolver.ResolveFiles("watershed", LoaderConfig{ConfigFile: "mine.yml"})
	if explicit.ConfigFile != "mine.yml" {
		t.Errorf("explicit config file should win, got %q", explicit.ConfigFile)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("TOOLBOX_GRACE_PERIOD")
	for _, want := range []string{"toolbox_grace_period", "toolbox.grace.period", "toolbox.grace_period", "toolbox_grace.period"} {
		if !slices.Contains(got, want) {
			t.Errorf("expected variant %q in %v", want, got)
		}
	}
	if got := generateEnvKeyVariants("DEBUG"); len(got) != 1 || got[0] != "debug" {
		t.Errorf("unexpected single-part variants %v", got)
	}

	deep := generateEnvKeyVariants("ARCHIVE_S3_ACCESS_KEY")
	if !slices.Contains(deep, "archive.s3.access_key") {
		t.Errorf("expected archive.s3.access_key in %v", deep)
	}
}

func TestWithFlagIgnoresNil(t *testing.T) {
	var lc LoaderConfig
	WithFlag("pipeline.dem", nil)(&lc)
	if len(lc.Flags) != 0 {
		t.Error("expected nil flag to be ignored")
	}
}
