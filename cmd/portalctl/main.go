// Command portalctl inspects the registration store from the shell.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"regportal/internal/config"
	"regportal/internal/registration"
	"regportal/internal/store"
)

// openRepo is swapped in tests.
var openRepo = func(ctx context.Context) (registration.Repository, error) {
	cfg, err := config.LoadNoAuth()
	if err != nil {
		return nil, err
	}
	return store.OpenRegistrations(ctx, cfg)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "portalctl",
		Short:        "Inspect student registrations",
		Long:         `portalctl reads the registration store configured for the portal (CONFIG_PATH or environment) and prints summaries or exports.`,
		SilenceUsage: true,
	}
	root.AddCommand(newStatsCmd(), newExportCmd())
	return root
}

func loadRecords(ctx context.Context) ([]registration.Record, error) {
	repo, err := openRepo(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = repo.Close() }()

	recs, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	return recs, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
