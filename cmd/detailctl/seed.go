package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"detail-library/internal/app"
	"detail-library/internal/bootstrap"
)

var seedBackfill bool

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Import details and usage rules from a JSON catalogue",
	Long: `Imports a JSON array of details, each with optional usage rules.
Details whose title already exists are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedBackfill, "backfill", false, "embed the imported details afterwards")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	entries, err := readCatalog(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *bootstrap.App) error {
		created, err := a.DetailService.Import(ctx, entries)
		if err != nil {
			return fmt.Errorf("import catalogue failed: %w", err)
		}
		cmd.Printf("imported %d of %d details\n", created, len(entries))

		if !seedBackfill {
			return nil
		}
		updated, err := a.BackfillService.Run(ctx)
		if err != nil {
			return fmt.Errorf("backfill failed: %w", err)
		}
		cmd.Printf("updated %d details\n", updated)
		return nil
	})
}

func readCatalog(path string) ([]app.CatalogEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue failed: %w", err)
	}
	var entries []app.CatalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse catalogue failed: %w", err)
	}
	return entries, nil
}
