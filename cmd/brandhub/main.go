package main

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/brandhub/internal/auth"
	"github.com/gosuda/brandhub/internal/brand"
	"github.com/gosuda/brandhub/internal/config"
	"github.com/gosuda/brandhub/internal/directory"
	"github.com/gosuda/brandhub/internal/integration"
	"github.com/gosuda/brandhub/internal/secrets"
	"github.com/gosuda/brandhub/internal/server"
	"github.com/gosuda/brandhub/internal/store/postgres"
	redisstore "github.com/gosuda/brandhub/internal/store/redis"
	"github.com/gosuda/brandhub/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("BRANDHUB_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("BRANDHUB_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Credential vault for commerce API secrets at rest.
	vault, err := secrets.NewVault(cfg.Secrets.CredentialKeyBytes())
	if err != nil {
		return fmt.Errorf("credential vault: %w", err)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), vault) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	prefs := redisstore.NewPrefStore(pubsub)

	// Brand directory: full snapshots on every change marker.
	dir := directory.New(store.Brands(), pubsub)

	// Integration status: probe commerce platforms, cache results for the TTL.
	badges := integration.NewBadges()
	prober := integration.NewHTTPProber(
		cfg.Integrations.WooCommerceStatusPath,
		cfg.Integrations.ShopifyStatusPath,
		cfg.Integrations.ProbeTimeout,
	)
	status, err := integration.NewStatusCache(store.Brands(), prober, badges, cfg.Integrations.StatusTTL)
	if err != nil {
		return fmt.Errorf("status cache: %w", err)
	}
	defer status.Close()

	// Per-user brand sessions.
	sessions := brand.NewManager(store.Brands(), store.Users(), dir, prefs, status, store.Audit())

	// Create auth service.
	authSvc := auth.NewService(store.Users(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// Prepare embedded dashboard assets (strip "build/" prefix from fs paths).
	webAssets, err := fs.Sub(web.Assets, "build")
	if err != nil {
		return fmt.Errorf("web assets: %w", err)
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(cfg, store, authSvc, sessions, status, webAssets)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	sessions.Close(shutdownCtx)

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
