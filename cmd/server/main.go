package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zhejian/shortcodes/internal/config"
	"github.com/zhejian/shortcodes/internal/events"
	"github.com/zhejian/shortcodes/internal/infra"
	"github.com/zhejian/shortcodes/internal/observability"
	"github.com/zhejian/shortcodes/internal/server"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	obs, err := observability.Setup(ctx, observability.Config{
		ServiceName:  cfg.Observability.ServiceName,
		Environment:  cfg.App.Environment,
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("Failed to set up observability: %v", err)
	}
	logger := obs.Logger
	slog.SetDefault(logger)

	if err := run(ctx, cfg, obs); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		shutdownObservability(obs, cfg.Server.ShutdownTimeout)
		os.Exit(1)
	}
	shutdownObservability(obs, cfg.Server.ShutdownTimeout)
}

func run(ctx context.Context, cfg *config.Config, obs *observability.Observability) error {
	logger := obs.Logger
	var deps server.Dependencies

	if cfg.Database.Store == config.StorePostgres {
		connString := cfg.Database.ConnectionString()

		if cfg.Database.AutoMigrate {
			if err := infra.RunMigrations(connString, cfg.Database.MigrationsPath); err != nil {
				return err
			}
			logger.Info("database migrations applied", slog.String("path", cfg.Database.MigrationsPath))
		}

		db, err := infra.NewPostgresPool(ctx, connString, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return err
		}
		defer db.Close()
		deps.DB = db
		logger.Info("database connected successfully")
	} else {
		logger.Warn("using in-memory store; links are lost on restart")
	}

	if cfg.Cache.Enabled() {
		cache, err := infra.NewCacheClient(ctx, cfg.Cache.ConnectionString())
		if err != nil {
			// The cache is an optimisation; serve from the store without it
			logger.Warn("cache unavailable, continuing without it", slog.String("error", err.Error()))
		} else {
			defer cache.Close()
			deps.Cache = cache
			logger.Info("cache connected successfully")
		}
	}

	if cfg.Events.URL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		conn, err := infra.NewBrokerConnection(dialCtx, cfg.Events.URL)
		cancel()
		if err != nil {
			return err
		}
		defer conn.Close()

		publisher, err := events.NewAMQPPublisher(conn, cfg.Events.Exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		deps.Publisher = publisher
		logger.Info("event publisher ready", slog.String("exchange", cfg.Events.Exchange))
	}

	srv, err := server.NewServer(cfg, deps, obs)
	if err != nil {
		return err
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Server.Port),
			slog.String("base_url", cfg.App.BaseURL),
			slog.String("store", cfg.Database.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	// Wait for interrupt signal (Ctrl+C or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server exited gracefully")
	return nil
}

func shutdownObservability(obs *observability.Observability, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	obs.Shutdown(ctx)
}
