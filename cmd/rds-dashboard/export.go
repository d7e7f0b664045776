package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mr1hm/rds-dashboard/internal/config"
	"github.com/mr1hm/rds-dashboard/internal/dashboard"
	"github.com/mr1hm/rds-dashboard/internal/export"
	"github.com/mr1hm/rds-dashboard/internal/render"
	"github.com/mr1hm/rds-dashboard/internal/repository"
)

func exportCmd() *cobra.Command {
	var (
		output string
		view   string
		width  int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Evaluate all operations and write the export",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Export.Path = output
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			doc, err := dashboard.Generate(ctx, cfg, dashboard.Options{AppVersion: Version})
			if err != nil {
				return err
			}

			sinks, cleanup, err := buildSinks(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := export.WriteAll(ctx, doc, sinks...); err != nil {
				return err
			}

			if view != "" {
				return render.New(width, "auto").Render(os.Stdout, view, doc)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Export file path (overrides APP_RDS_DASHBOARD_EXPORT_PATH)")
	cmd.Flags().StringVar(&view, "view", "", "Terminal view to print after exporting")
	cmd.Flags().IntVar(&width, "width", 100, "Terminal width for views")

	return cmd
}

// buildSinks returns the enabled sinks in write order: JSON file, history,
// then spreadsheet.
func buildSinks(ctx context.Context, cfg *config.Config) ([]export.Sink, func(), error) {
	sinks := []export.Sink{&export.FileSink{Path: cfg.Export.Path}}
	cleanup := func() {}

	if cfg.History.Enabled {
		db, err := repository.NewSQLiteDB(cfg.History.DBPath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, db)
		cleanup = func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing history database", "error", err)
			}
		}
	}

	if cfg.Sheets.Enabled {
		client, err := export.NewGoogleSheets(ctx, cfg.Sheets.CredentialPath, cfg.Sheets.CredentialScopes, cfg.Sheets.SpreadsheetKey)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		sinks = append(sinks, &export.SheetsSink{
			Client:         client,
			SummarySheet:   cfg.Sheets.SummarySheetName,
			DetailSheet:    cfg.Sheets.DetailSheetName,
			SnapshotPrefix: cfg.Sheets.SnapshotSheetPrefix,
		})
	}

	return sinks, cleanup, nil
}
