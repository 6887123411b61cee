package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/upnepa/gridlog/config"
	"github.com/upnepa/gridlog/infra/logger"
	"github.com/upnepa/gridlog/infra/sqlite"
	"github.com/upnepa/gridlog/jobs/sampledata"
)

var (
	generateDays   int
	generateMin    int
	generateMax    int
	generateDryRun bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate randomised power events for all users",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateDays, "days", 7, "number of days to generate data for")
	generateCmd.Flags().IntVar(&generateMin, "min-events", 2, "minimum events per day")
	generateCmd.Flags().IntVar(&generateMax, "max-events", 8, "maximum events per day")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "simulate without inserting rows")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
			logger.New("generate-command").Errorf("store close: %v", err)
		}
	}()

	opts := sampledata.Options{
		DaysBack:  generateDays,
		MinPerDay: generateMin,
		MaxPerDay: generateMax,
		DryRun:    generateDryRun,
	}
	count, err := sampledata.Generate(ctx, store, opts, logger.New("generate-command"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "events generated: %d\n", count)
	return nil
}
