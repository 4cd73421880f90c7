// Package cli implements the landfall command-line interface. Each
// subcommand lives in its own file and registers itself with the root
// command from init().
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/misty-step/landfall/internal/config"
	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/log"
	"github.com/misty-step/landfall/internal/version"
)

var (
	configPathFlag string
	logLevelFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "landfall",
	Short: "Synthesize and distribute user-facing release notes",
	Long: `Landfall turns technical changelogs into user-facing release notes.

It resolves a changelog source, synthesizes notes through an ordered
chain of LLM candidates, validates the output structure, writes
markdown/plaintext/HTML/feed artifacts, and updates the GitHub release
body under a "What's New" section.

Configuration priority: LANDFALL_* environment variables >
.landfall/config.yml > ~/.config/landfall/config.yml > defaults.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Project config path (default .landfall/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log verbosity: debug, info, warn, error")
}

// Execute runs the CLI and prints structured errors before returning.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}

	if pe := pipelineerrors.AsPipelineError(err); pe != nil {
		pipelineerrors.FprintError(os.Stderr, pe)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// loadConfig loads configuration honoring the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPathFlag)
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	return cfg, nil
}

// newLogger builds the structured stderr logger for a command run.
func newLogger(cfg *config.Config) *log.Logger {
	return log.NewStderr(cfg.LogLevel)
}

// cmdContext returns a context cancelled on SIGINT/SIGTERM so network
// stages stop promptly when the run is interrupted.
func cmdContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
