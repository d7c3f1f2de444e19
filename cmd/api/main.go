package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"editlab/internal/editor"
	httpapi "editlab/internal/http"
	"editlab/internal/http/handlers"
	"editlab/internal/infra"
	"editlab/internal/infra/geoip"
	"editlab/internal/metrics"
	"editlab/internal/middleware"
	"editlab/internal/retry"
	"editlab/internal/session"
	"editlab/internal/transform"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	// Konfigurasi & logger
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	// GeoIP untuk deteksi negara (opsional)
	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip lookup disabled")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	// Klien Gemini; kuncinya hanya datang dari environment
	client, err := transform.NewClient(transform.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build transform client")
	}

	policy := retry.Policy{MaxAttempts: cfg.RetryMaxAttempts, BaseDelay: cfg.RetryBaseDelay}
	reg := metrics.NewRegistry()
	sessions := session.NewStore(session.Options{
		Factory: func() *editor.Controller {
			return editor.New(editor.Options{Transformer: client, Retry: policy, Logger: &logger})
		},
		TTL:    cfg.SessionTTL,
		Logger: &logger,
	})

	app := handlers.NewApp(logger, cfg, sessions, reg)
	router := httpapi.NewRouter(app, cfg, lookup)
	server := infra.NewHTTPServer(cfg, router)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Msgf("API listening on %s", server.Addr())
		return server.Run(gctx)
	})
	g.Go(func() error {
		return sessions.Run(gctx, cfg.SessionSweepInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
