package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/maltedev/supplier-extractor/internal/api"
	"github.com/maltedev/supplier-extractor/internal/config"
	"github.com/maltedev/supplier-extractor/internal/database"
	"github.com/maltedev/supplier-extractor/internal/extractor"
	"github.com/maltedev/supplier-extractor/internal/fetch"
	"github.com/maltedev/supplier-extractor/internal/jobs"
	"github.com/maltedev/supplier-extractor/internal/pricing"
	"github.com/maltedev/supplier-extractor/internal/ratelimit"
	"github.com/maltedev/supplier-extractor/internal/variants"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logging.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var renderer extractor.RendererProvider
	if !cfg.Browser.Disabled {
		renderer = extractor.PlaywrightRenderer(cfg.Browser.Headless, logger)
	}

	factory, err := extractor.NewFactory(extractor.Deps{
		Fetcher: fetch.NewHTTPFetcher(nil, logger),
		Pricing: pricing.NewNormalizer(cfg.PricingPolicy()),
		Colors:  variants.DefaultColorTable(),
		Logger:  logger,
		Options: cfg.ExtractionOptions(),
	}, renderer)
	if err != nil {
		return fmt.Errorf("failed to build extractors: %w", err)
	}

	var (
		jobService api.JobService
		outbox     api.OutboxStats
	)

	if cfg.Import.Enabled {
		db, err := database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}

		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}

		relay := database.NewRelay(database.NewOutboxRepository(db), redisClient, logger, database.RelayConfig{
			PollInterval: cfg.Import.RelayInterval,
			BatchSize:    100,
		})
		go func() {
			if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("relay stopped with error", "error", err)
			}
		}()

		limiter := ratelimit.NewSimpleRateLimiter(cfg.Import.InterCallMin, cfg.Import.InterCallMax)
		manager := jobs.NewManager(database.NewImportJobRepository(db), factory, limiter, logger)
		go manager.StartWorker(ctx, cfg.Import.PollInterval)

		jobService = manager
		outbox = relay
	} else {
		logger.Warn("imports disabled; serving extraction endpoints only")
	}

	handlers := api.NewHandlers(factory, jobService, outbox, logger)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      api.NewRouter(handlers, cfg.Server.AllowedOrigins, cfg.Server.WriteTimeout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}
