package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/availability"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/cartstore"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/config"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/database"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/handler"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/livestatus"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/media"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/optioncache"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/promotion"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/reorder"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/repository"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/router"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/service"

	"github.com/redis/go-redis/v9"
)

// optionSchemaTTL is how long cached option schemas stay fresh.
const optionSchemaTTL = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront order API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize the session slot store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	slots := cartstore.NewRedisStore(redisClient, logger)

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(pool, logger)
	catalogRepo := repository.NewCatalogRepository(pool, logger)
	optionRepo := repository.NewOptionSchemaRepository(pool, logger)
	promotionRepo := repository.NewPromotionRepository(pool, logger)

	// Initialize the image resolver with a passthrough fallback
	var images media.ImageResolver

	if cfg.Storage.Enabled {
		s3Resolver, err := media.NewS3Resolver(ctx, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Storage.URLTTL, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise storage resolver, serving image references as stored")
			images = media.NewPassthroughResolver(logger)
		} else {
			images = s3Resolver
		}
	} else {
		images = media.NewPassthroughResolver(logger)
		logger.Info().Msg("serving image references as stored (storage disabled)")
	}

	// Initialize the availability client and the option schema cache
	stock := availability.NewClient(availability.Config{
		BaseURL: cfg.Availability.BaseURL,
		Timeout: cfg.Availability.Timeout,
	}, logger)
	optionSchemas := optioncache.New(optionRepo, optionSchemaTTL, logger)

	// Initialize services
	validator := reorder.NewValidator(catalogRepo, stock, optionSchemas, logger)
	materializer := reorder.NewMaterializer(catalogRepo, images, logger)
	reorderService := reorder.NewService(validator, materializer, slots, logger)
	historyService := service.NewOrderHistoryService(orderRepo, slots, logger)
	tracker := promotion.NewTracker(promotionRepo, logger)
	statusSource := livestatus.NewPGSource(pool, logger)

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(historyService, reorderService, logger)
	statusHandler := handler.NewStatusStreamHandler(historyService, statusSource, logger)
	promotionHandler := handler.NewPromotionHandler(tracker, logger)

	// Initialize router
	mux := router.New(orderHandler, statusHandler, promotionHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:        cfg.Server.Address(),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// No write timeout: /api/orders/stream holds the response open
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
