package process

import (
	"context"
	"time"

	"github.com/kbukum/watershed/provider"
)

var _ provider.RequestResponse[Command, *Result] = (*Runner)(nil)

// Config holds defaults applied to every command a Runner executes.
type Config struct {
	// Name identifies this runner in logs and metrics.
	Name string `yaml:"name,omitempty" mapstructure:"name"`
	// GracePeriod is the default grace period for SIGTERM to SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period" validate:"gte=0"`
	// Timeout bounds each command. Zero means wait as long as it takes.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout" validate:"gte=0"`
}

// Runner applies Config defaults and exposes Run as a provider.RequestResponse.
type Runner struct {
	config Config
}

// NewRunner creates a Runner.
func NewRunner(cfg Config) *Runner {
	return &Runner{config: cfg}
}

// Run executes a command, applying runner-level defaults.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 && r.config.GracePeriod > 0 {
		cmd.GracePeriod = r.config.GracePeriod
	}
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}
	return Run(ctx, cmd)
}

func (r *Runner) Name() string { return r.config.Name }

// IsAvailable always returns true. Binaries are checked per command.
func (r *Runner) IsAvailable(_ context.Context) bool { return true }

// Execute implements provider.RequestResponse[Command, *Result].
func (r *Runner) Execute(ctx context.Context, cmd Command) (*Result, error) {
	return r.Run(ctx, cmd)
}
