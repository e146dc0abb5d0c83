package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kbukum/watershed/config"
	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/pipeline"
	"github.com/kbukum/watershed/version"
)

const appName = "watershed"

type command struct {
	name  string
	short string
	run   func(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"run", "run the delineation pipeline (default)", runCommand},
	{"history", "list recorded runs, or show one with --run", historyCommand},
	{"version", "print the build version", versionCommand},
}

// execute dispatches args to a subcommand and returns the exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := commands[0]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "help":
			usage(stdout)
			return 0
		default:
			found := false
			for _, c := range commands {
				if c.name == args[0] {
					cmd, found = c, true
					break
				}
			}
			if !found {
				fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
				usage(stderr)
				return 2
			}
			args = args[1:]
		}
	}

	err := cmd.run(ctx, args, stdout, stderr)
	if err == nil {
		return 0
	}
	if stderrors.Is(err, pflag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return errors.ExitCode(err)
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <command> [flags]\n\nCommands:\n", appName)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.short)
	}
	fmt.Fprintf(w, "\nRun '%s <command> --help' for the flags of a command.\n", appName)
}

// commonFlags are accepted by every command that loads configuration.
type commonFlags struct {
	configFile string
	envFile    string
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configFile, "config", "c", "", "configuration file (YAML)")
	fs.StringVar(&c.envFile, "env-file", "", ".env file loaded before WATERSHED_* variables are read")
}

// loadConfig reads file, .env, environment and flags into an AppConfig.
func loadConfig(common commonFlags, bindings map[string]*pflag.Flag) (*AppConfig, error) {
	opts := []config.LoaderOption{
		config.WithConfigFile(common.configFile),
		config.WithEnvFile(common.envFile),
		config.WithEnvPrefix("WATERSHED"),
		config.WithDefaults(map[string]any{
			"version":                   version.Get().Short(),
			"pipeline.stream_threshold": pipeline.DefaultStreamThreshold,
		}),
	}
	for key, flag := range bindings {
		opts = append(opts, config.WithFlag(key, flag))
	}

	var cfg AppConfig
	if err := config.LoadConfig(appName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// configError marks a configuration problem so it exits with the
// configuration status.
func configError(err error) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	return errors.InvalidInput("config", err.Error()).WithCause(err)
}

func versionCommand(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("version", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	_, err := fmt.Fprintln(stdout, version.Get())
	return err
}

func flagError(err error) error {
	if stderrors.Is(err, pflag.ErrHelp) {
		return err
	}
	return errors.InvalidInput("flags", err.Error()).WithCause(err)
}
