package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"golunch/internal/fetch"
	"golunch/internal/scrape"
	"golunch/internal/scrapers"
)

// newScrapeCmd creates the 'scrape' subcommand: one-off by default, or a
// long-running scheduled service with --cron.
func newScrapeCmd() *cobra.Command {
	var (
		cron      string
		cachePath string
		cacheTTL  time.Duration
		legacy    bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Runs the site scrapers",
		Long: `Scrapes all configured sites and stores the results. Without
--cron one full cycle runs and the command exits; with --cron the process
stays up and scrapes on schedule until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("cron") {
				cfg.Scrape.Cron = cron
			}
			if cmd.Flags().Changed("cache-path") {
				cfg.Cache.Path = cachePath
			}
			if cmd.Flags().Changed("cache-ttl") {
				cfg.Cache.TTL = cacheTTL
			}
			if cmd.Flags().Changed("legacy-lindholmen") {
				cfg.Scrape.LegacyLindholmen = legacy
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}

			client := fetch.NewClient(fetch.Options{
				RequestDelay:   cfg.Scrape.RequestDelay,
				RequestTimeout: cfg.Scrape.RequestTimeout,
				CacheTTL:       cfg.Cache.TTL,
				CacheCapacity:  cfg.Cache.Capacity,
				CachePath:      cfg.Cache.Path,
				UserAgent:      cfg.Scrape.UserAgent,
			}, logger.Named("fetch"))

			set, err := scrapers.All(ctx, client, store, scrapers.Options{
				LegacyLindholmen: cfg.Scrape.LegacyLindholmen,
			}, logger)
			if err != nil {
				store.Close()
				return err
			}

			sup := scrape.NewSupervisor(set, store, client, scrape.Config{
				Cron:          cfg.Scrape.Cron,
				ResultBuffer:  cfg.Scrape.ResultBuffer,
				CommandBuffer: cfg.Scrape.CommandBuffer,
			}, logger.Named("scrape"))
			return sup.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&cron, "cron", "", "cron schedule; empty runs one cycle and exits")
	cmd.Flags().StringVar(&cachePath, "cache-path", "", "HTTP cache snapshot file")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 20*time.Minute, "HTTP cache TTL; 0 disables caching")
	cmd.Flags().BoolVar(&legacy, "legacy-lindholmen", false, "scrape lindholmen.se directly instead of the community data set")

	return cmd
}
