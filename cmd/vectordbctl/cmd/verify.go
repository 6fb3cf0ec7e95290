package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aaronbannin/vectordb/internal/config"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <data-dir> <collection>",
		Short: "Check ids(index) = ids(store) for every attached index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args[0], args[1])
		},
	}
	return cmd
}

func runVerify(cmd *cobra.Command, dataDir, name string) error {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}

	c, err := openCollection(dataDir, name, cfg.CollectionDefaults)
	if err != nil {
		return err
	}

	chunks, err := c.ListChunks()
	if err != nil {
		return err
	}
	storeIDs := make(map[string]struct{}, len(chunks))
	for _, ch := range chunks {
		storeIDs[ch.ID] = struct{}{}
	}

	drift := false
	for _, idxType := range indexTypes {
		ids, ok, err := c.IndexIds(idxType)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: introspection unsupported, skipped\n", idxType)
			continue
		}

		var missing, extra []string
		indexIDs := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			indexIDs[id] = struct{}{}
			if _, ok := storeIDs[id]; !ok {
				extra = append(extra, id)
			}
		}
		for id := range storeIDs {
			if _, ok := indexIDs[id]; !ok {
				missing = append(missing, id)
			}
		}

		if len(missing) == 0 && len(extra) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%d ids)\n", idxType, len(ids))
			continue
		}

		drift = true
		sort.Strings(missing)
		sort.Strings(extra)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: DRIFT missing=%v extra=%v\n", idxType, missing, extra)
	}

	if drift {
		return fmt.Errorf("drift detected in collection %q; run vectordbctl rebuild", name)
	}
	return nil
}
