// Package cmd provides the vectordbctl administrative CLI: operational
// commands that talk to internal/collection directly, for a deployer
// who has no REST surface in front of the library (that surface is out
// of scope for this module).
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aaronbannin/vectordb/internal/config"
	"github.com/aaronbannin/vectordb/internal/logging"
	"github.com/aaronbannin/vectordb/pkg/version"
)

// loggingCleanup holds the flush/close closure returned by the
// PersistentPreRunE logging setup, for PersistentPostRunE to run once
// the subcommand has finished.
var loggingCleanup func()

// NewRootCmd creates the root vectordbctl command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vectordbctl",
		Short:   "Administrative CLI for a vectordb data root",
		Version: version.Version,
		Long: `vectordbctl operates directly on a data directory of vectordb
collections. It is operational tooling, not a query interface: stats,
forced rebuilds, and index/store consistency verification.`,
	}
	cmd.SetVersionTemplate("vectordbctl version {{.Version}}\n")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRunE = teardownLogging

	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newRebuildCmd())
	cmd.AddCommand(newVerifyCmd())
	return cmd
}

// setupLogging loads the config rooted at the subcommand's data-dir
// argument and installs it as slog's default logger, so Logging.Level
// and Logging.File take effect for every subcommand without each one
// wiring logging itself. Commands with no positional data-dir (bare
// vectordbctl, --help, --version) skip setup.
func setupLogging(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	cleanup, err := logging.SetupDefault(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	return nil
}

// teardownLogging flushes and closes the log file opened by setupLogging, if any.
func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
