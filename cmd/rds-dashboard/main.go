package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mr1hm/rds-dashboard/internal/config"
	"github.com/mr1hm/rds-dashboard/internal/logging"
)

const appName = "rds-dashboard"

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	export := exportCmd()

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Rolling Data Scramble dashboard",
		Long: `Evaluates the layers of every configured operation's crash move folder
and exports the results as JSON, to the snapshot history and optionally
to Google Sheets.

Running without a subcommand is the same as "export".`,
		SilenceUsage: true,
		RunE:         export.RunE,
	}
	cmd.Flags().AddFlagSet(export.Flags())

	cmd.AddCommand(export, viewCmd(), serveCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// loadConfig reads configuration from the environment and installs the
// process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
