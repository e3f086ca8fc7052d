package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"detail-library/internal/bootstrap"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Embed every detail that has no embedding yet",
	Args:  cobra.NoArgs,
	RunE:  runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *bootstrap.App) error {
		updated, err := a.BackfillService.Run(ctx)
		if err != nil {
			return fmt.Errorf("backfill failed: %w", err)
		}
		cmd.Printf("updated %d details\n", updated)
		return nil
	})
}
