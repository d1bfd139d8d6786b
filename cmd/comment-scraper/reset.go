package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"commentharvest/internal/adapters/localstorage"
)

func newResetCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the checkpoint so the next run starts from the first video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			store := localstorage.NewCheckpointStore(cfg.Batch.CheckpointPath)
			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s removed\n", cfg.Batch.CheckpointPath)
			return nil
		},
	}
}
