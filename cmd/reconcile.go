package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/upnepa/gridlog/app"
	"github.com/upnepa/gridlog/config"
	"github.com/upnepa/gridlog/infra/logger"
)

var reconcileDryRun bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run a single reconciliation pass over all regions",
	RunE:  runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "count events without persisting them")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("reconcile-command").Errorf("service close: %v", err)
		}
	}()

	count, err := svc.Reconciler.Tick(ctx, time.Now().UTC(), reconcileDryRun)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "events created: %d\n", count)
	return nil
}
