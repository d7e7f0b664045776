package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mr1hm/rds-dashboard/internal/dashboard"
	"github.com/mr1hm/rds-dashboard/internal/export"
	"github.com/mr1hm/rds-dashboard/internal/logging"
	"github.com/mr1hm/rds-dashboard/internal/render"
)

func viewCmd() *cobra.Command {
	var (
		input string
		style string
		width int
		fresh bool
	)

	cmd := &cobra.Command{
		Use:   "view [" + strings.Join(render.Views(), "|") + "]",
		Short: "Show an export in the terminal",
		Long: `Renders an export document as a terminal view. By default the document
is read from --input; with --fresh the operations are evaluated first and
nothing is written.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: render.Views(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "totals"
			if len(args) == 1 {
				name = args[0]
			}

			var doc *export.Document
			if fresh {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				// Logs go to stderr so they do not interleave with the view.
				slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
				if doc, err = dashboard.Generate(cmd.Context(), cfg, dashboard.Options{AppVersion: Version}); err != nil {
					return err
				}
			} else {
				var err error
				if doc, err = export.Load(input); err != nil {
					return fmt.Errorf("%w (run export first or pass --fresh)", err)
				}
			}

			return render.New(width, style).Render(os.Stdout, name, doc)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", envOr("APP_RDS_DASHBOARD_EXPORT_PATH", "export.json"), "Export file to read")
	cmd.Flags().StringVar(&style, "style", "auto", "Markdown style for headings (auto, dark, light, notty)")
	cmd.Flags().IntVar(&width, "width", 100, "Terminal width")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Evaluate operations instead of reading an export file")

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
