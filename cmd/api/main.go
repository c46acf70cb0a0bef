package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/slotwise/marketplace/internal/api/router"
	"github.com/slotwise/marketplace/internal/booking"
	appconfig "github.com/slotwise/marketplace/internal/config"
	"github.com/slotwise/marketplace/internal/http/handlers"
	"github.com/slotwise/marketplace/internal/marketplace"
	"github.com/slotwise/marketplace/internal/observability/metrics"
	"github.com/slotwise/marketplace/pkg/logging"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting marketplace booking API",
		"env", cfg.Env,
		"port", cfg.Port,
		"upstream", cfg.MarketplaceAPIURL,
	)

	metricsHandler, bookingMetrics, gatherer := setupMetrics()

	redisClient := connectRedis(context.Background(), cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	handler := buildRouter(cfg, logger, redisClient, bookingMetrics, gatherer, metricsHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

// setupMetrics builds a dedicated registry with the booking collectors and
// the standard process and Go runtime collectors.
func setupMetrics() (http.Handler, *metrics.BookingMetrics, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bm := metrics.NewBookingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), bm, reg
}

// connectRedis returns nil when no address is configured or the server is
// unreachable; the catalog cache is then disabled.
func connectRedis(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg == nil || cfg.RedisAddr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable; catalog cache disabled", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("catalog cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CatalogCacheTTL)
	return client
}

func buildRouter(
	cfg *appconfig.Config,
	logger *logging.Logger,
	redisClient *redis.Client,
	bm *metrics.BookingMetrics,
	gatherer prometheus.Gatherer,
	metricsHandler http.Handler,
) http.Handler {
	client := marketplace.NewClient(cfg.MarketplaceAPIURL, logger,
		marketplace.WithTimeout(cfg.MarketplaceAPITimeout),
		marketplace.WithClientMetrics(bm),
	)

	var cache marketplace.CatalogCache
	if redisClient != nil {
		cache = marketplace.NewRedisCatalogCache(redisClient, cfg.CatalogCacheTTL)
	}
	adapter := marketplace.NewAdapter(client, cache, logger, bm)

	service := booking.NewService(adapter, logger,
		booking.WithLocation(cfg.Location()),
		booking.WithWindowDays(cfg.BookingWindowDays),
		booking.WithMetrics(bm),
	)
	sessions := booking.NewSessionStore(cfg.BookingSessionTTL)

	return router.New(&router.Config{
		Logger:             logger,
		Catalog:            handlers.NewCatalogHandler(adapter, logger),
		Bookings:           handlers.NewBookingHandler(service, sessions, logger),
		Stats:              handlers.NewStatsHandler(gatherer),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})
}
