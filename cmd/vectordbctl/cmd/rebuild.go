package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aaronbannin/vectordb/internal/config"
)

func newRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild <data-dir> <collection>",
		Short: "Force a startup rebuild of every attached index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebuild(cmd, args[0], args[1])
		},
	}
	return cmd
}

func runRebuild(cmd *cobra.Command, dataDir, name string) error {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}

	// openCollection already rebuilds each index once via AddIndex; an
	// explicit StartupRebuild on top of that is what a deployer actually
	// asked for — it re-reads every chunk from disk, picking up manual
	// edits made outside this process.
	c, err := openCollection(dataDir, name, cfg.CollectionDefaults)
	if err != nil {
		return err
	}
	if err := c.StartupRebuild(); err != nil {
		return fmt.Errorf("rebuild collection %q: %w", name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %s\n", name)
	for _, idxType := range indexTypes {
		n, err := c.IndexLen(idxType)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s index: %d\n", idxType, n)
	}
	return nil
}
