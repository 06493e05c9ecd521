// Package cmd defines and implements the CLI commands for the golunch
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"golunch/internal/config"
	"golunch/internal/logging"
)

var (
	cfgFile string
	devLog  bool

	// populated by the root PersistentPreRunE before any subcommand runs
	cfg    config.Config
	logger *zap.Logger
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "golunch",
		Short: "Scrapes and serves lunch menus.",
		Long: `golunch collects the day's lunch menus from configured sites,
stores them in Postgres, and serves them over JSON and HTML.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
			if devLog {
				cfg.Logging.Development = true
			}
			logger, err = logging.New(cfg.Logging.Development)
			if err != nil {
				return err
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (config is also read from GOLUNCH_* env vars)")
	cmd.PersistentFlags().BoolVarP(&devLog, "dev", "d", false, "human-readable development logging")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
