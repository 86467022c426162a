package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Psyche/internal/api"
	"github.com/MikeSquared-Agency/Psyche/internal/cache"
	"github.com/MikeSquared-Agency/Psyche/internal/config"
	"github.com/MikeSquared-Agency/Psyche/internal/directory"
	"github.com/MikeSquared-Agency/Psyche/internal/exporter"
	"github.com/MikeSquared-Agency/Psyche/internal/hermes"
	"github.com/MikeSquared-Agency/Psyche/internal/pipeline"
	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the submission consumer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return exitError(2, "failed to load config: %v", err)
			}
			return runServe(cfg)
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return exitError(2, "failed to load config: %v", err)
			}
			if cfg.Database.URL == "" {
				return exitError(2, "database url is not configured")
			}
			ctx := cmd.Context()
			db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Migrate(ctx)
		},
	}
}

func runServe(cfg *config.Config) error {
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	var db store.Store
	if cfg.Database.URL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return err
			}
			logger.Info("schema applied")
		}
		db = pg
		logger.Info("connected to database")
	} else {
		db = store.NewMemoryStore()
		logger.Warn("no database configured, using in-memory store")
	}
	defer db.Close()

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// Results cache (optional)
	var resultsCache cache.ResultsCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("failed to connect to redis, running without results cache", "error", err)
			_ = rdb.Close()
		} else {
			resultsCache = cache.NewResultsCache(rdb, cfg.ResultsTTL())
			defer rdb.Close()
			logger.Info("connected to redis", "ttl", cfg.ResultsTTL())
		}
	}

	var directoryClient directory.Client
	if cfg.Directory.URL != "" {
		directoryClient = directory.NewHTTPClient(cfg.Directory.URL, cfg.Directory.Token)
	}
	var exporterClient exporter.Client
	if cfg.Exporter.URL != "" {
		exporterClient = exporter.NewHTTPClient(cfg.Exporter.URL)
	}

	svc := pipeline.New(db, hermesClient, directoryClient, exporterClient, resultsCache, cfg.Report, logger)
	if err := svc.SetupSubscriptions(ctx); err != nil {
		logger.Warn("bus intake disabled", "error", err)
	}

	// API server
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(svc, cfg.Server.AdminToken, cfg.Server.RateLimitPerMinute, logger),
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
	return nil
}
