package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-proxy/internal/cache"
	"github.com/ironsheep/image-proxy/internal/config"
	"github.com/ironsheep/image-proxy/internal/imaging"
	"github.com/ironsheep/image-proxy/internal/origin"
	"github.com/ironsheep/image-proxy/internal/proxy"
	"github.com/ironsheep/image-proxy/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			cfg.ApplyLogLevel()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	c, err := cache.New(cfg.CacheMode(), cfg.Cache.Capacity)
	if err != nil {
		return err
	}

	fetcher := origin.NewHTTPFetcher(
		origin.WithTimeout(cfg.Origin.Timeout),
		origin.WithMaxBytes(cfg.Origin.MaxBytes),
	)
	engine := imaging.NewNativeEngine()

	svc := proxy.New(engine, c, fetcher,
		proxy.WithFormat(cfg.OutputFormat()),
		proxy.WithQuality(cfg.Output.Quality),
	)

	log.Info().
		Str("version", Version).
		Str("engine", engine.Name()).
		Str("cache_mode", string(cfg.CacheMode())).
		Int("cache_capacity", cfg.Cache.Capacity).
		Msg("starting image proxy")

	srv := server.New(svc,
		server.WithAddr(cfg.Server.Addr),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)
	return srv.Run(ctx)
}
