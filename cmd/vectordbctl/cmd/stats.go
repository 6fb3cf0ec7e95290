package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aaronbannin/vectordb/internal/config"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <data-dir>",
		Short: "Show per-collection record counts and attached-index sizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args[0])
		},
	}
	return cmd
}

func runStats(cmd *cobra.Command, dataDir string) error {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}

	names, err := listCollections(dataDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no collections found")
		return nil
	}

	for _, name := range names {
		c, err := openCollection(dataDir, name, cfg.CollectionDefaults)
		if err != nil {
			return err
		}

		chunks, err := c.ListChunks()
		if err != nil {
			return err
		}
		libs, err := c.ListLibraries()
		if err != nil {
			return err
		}
		docs, err := c.ListDocuments()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: libraries=%d documents=%d chunks=%d\n", name, len(libs), len(docs), len(chunks))
		for _, idxType := range indexTypes {
			n, err := c.IndexLen(idxType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s index: %d\n", idxType, n)
		}
	}
	return nil
}
