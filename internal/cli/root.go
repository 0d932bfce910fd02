// Package cli implements the trajectly command line: record a
// baseline, run a spec against it, inspect baselines, serve reports
// over HTTP, and verify or replay the audit trail. Each subcommand
// lives in its own file and registers itself with rootCmd from init.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var stateDir string

var rootCmd = &cobra.Command{
	Use:   "trajectly",
	Short: "Trajectory refinement testing for AI agents",
	Long:  "Records an agent's tool and LLM calls as a trusted baseline trajectory, then checks that later runs refine it under a spec's contracts and replay policy.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", ".trajectly", "directory holding baselines, fixtures, reports, and the audit log")
}

// newLogger builds the structured logger every subcommand shares. It
// starts from zap.NewProductionConfig, switches to console encoding
// with no timestamp field, and drops its level to Debug when
// TRAJECTLY_VERBOSE=1, since the
// orchestrator's own log lines are the only feedback a record/run
// invocation gives before the exit code.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	if os.Getenv("TRAJECTLY_VERBOSE") == "1" {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("cli: build logger: %w", err)
	}
	return logger, nil
}

// Execute runs the root command, exiting the process with a non-zero
// status on any error that a subcommand's RunE did not already
// resolve into its own os.Exit call.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
