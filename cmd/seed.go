package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/upnepa/gridlog/config"
	"github.com/upnepa/gridlog/infra/logger"
	"github.com/upnepa/gridlog/infra/sqlite"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the distribution-company region profiles into the store",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.New("seed-command").Errorf("store close: %v", err)
		}
	}()

	count, err := sqlite.SeedRegions(context.Background(), store)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d region profiles\n", count)
	return nil
}
