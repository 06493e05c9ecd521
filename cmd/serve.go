package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"golunch/internal/api"
	"golunch/internal/lunch"
	"golunch/internal/store/postgres"
	"golunch/internal/web"
)

// newServeCmd groups the serving subcommands.
func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the stored lunch data",
	}
	cmd.PersistentFlags().StringVar(&listen, "listen", "", "listen address (defaults to server.listen)")

	serve := func(cmd *cobra.Command, build func(lunch.Store) http.Handler) error {
		if listen != "" {
			cfg.Server.Listen = listen
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		return api.Serve(ctx, cfg.Server.Listen, build(store), logger)
	}

	jsonCmd := &cobra.Command{
		Use:   "json",
		Short: "Serves the JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, func(store lunch.Store) http.Handler {
				return api.NewServer(store, logger.Named("api")).Handler()
			})
		},
	}

	htmlCmd := &cobra.Command{
		Use:   "html",
		Short: "Serves the HTML menu pages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, func(store lunch.Store) http.Handler {
				return web.NewServer(store, cfg.Server.GTag, logger.Named("web")).Handler()
			})
		},
	}

	cmd.AddCommand(jsonCmd, htmlCmd)
	return cmd
}

func openStore(ctx context.Context) (*postgres.Store, error) {
	store, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.MaxConnLifetime(),
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}
