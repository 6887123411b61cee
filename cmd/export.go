package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/upnepa/gridlog/config"
	"github.com/upnepa/gridlog/infra/logger"
	"github.com/upnepa/gridlog/infra/sqlite"
	"github.com/upnepa/gridlog/pkg/export"
)

var (
	exportUser   string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's power log as CSV or JSON",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportUser, "user", "", "username to export (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	_ = exportCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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
			logger.New("export-command").Errorf("store close: %v", err)
		}
	}()

	events, err := store.ListByUser(context.Background(), exportUser, time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch exportFormat {
	case "csv":
		return export.WriteCSV(out, events)
	case "json":
		return export.WriteJSON(out, events)
	default:
		return fmt.Errorf("format must be csv or json")
	}
}
