package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"detail-library/internal/bootstrap"
)

var rootCmd = &cobra.Command{
	Use:          "detailctl",
	Short:        "Operate the detail library",
	Long:         `Maintenance commands for the detail library: seed the catalogue, backfill embeddings, run suggestions and issue admin tokens.`,
	SilenceUsage: true,
}

// withApp runs fn against a fully bootstrapped service graph and closes it
// afterwards. Queue workers are not started.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *bootstrap.App) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap.New(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.Warn("close resources failed", "err", err)
		}
	}()
	return fn(ctx, a)
}
