package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/liam996405/uv-index-service/internal/cache"
	"github.com/liam996405/uv-index-service/internal/client"
	"github.com/liam996405/uv-index-service/internal/config"
	"github.com/liam996405/uv-index-service/internal/db"
	"github.com/liam996405/uv-index-service/internal/feed"
	httphandler "github.com/liam996405/uv-index-service/internal/http"
	"github.com/liam996405/uv-index-service/internal/lifecycle"
	"github.com/liam996405/uv-index-service/internal/observability"
	"github.com/liam996405/uv-index-service/internal/reference"
	"github.com/liam996405/uv-index-service/internal/repository"
	"github.com/liam996405/uv-index-service/internal/scheduler"
	"github.com/liam996405/uv-index-service/internal/service"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("load .env", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	database, err := db.Open(cfg)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(database); err != nil {
			logger.Error("database close", zap.Error(err))
		}
	}()
	if err := db.Migrate(database, logger); err != nil {
		logger.Fatal("database migrate", zap.Error(err))
	}
	table := reference.Default()
	if cfg.DatabaseSeed {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := db.Seed(seedCtx, database, table, logger)
		seedCancel()
		if err != nil {
			logger.Fatal("database seed", zap.Error(err))
		}
		if n > 0 {
			logger.Info("database seeded", zap.Int("cities", n))
		}
	}
	cities := repository.NewCityRepository(database, logger)

	feedClient, err := client.NewARPANSAClientWithRetry(
		cfg.FeedURL,
		cfg.FeedTimeout,
		cfg.RetryAttempts,
		cfg.RetryBaseDelay,
		cfg.RetryMaxDelay,
	)
	if err != nil {
		logger.Fatal("feed client", zap.Error(err))
	}
	if cfg.BreakerEnabled {
		feedClient.SetCircuitBreaker(client.BreakerConfig{
			FailureThreshold: cfg.BreakerFailureThreshold,
			SuccessThreshold: cfg.BreakerSuccessThreshold,
			Timeout:          cfg.BreakerTimeout,
			OnStateChange: func(name string, from, to gobreaker.State) {
				observability.CircuitBreakerTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
				observability.CircuitBreakerState.Set(float64(to))
				logger.Warn("feed circuit breaker transition", zap.String("from", from.String()), zap.String("to", to.String()))
			},
		})
		observability.CircuitBreakerState.Set(0)
		logger.Info("circuit breaker enabled", zap.Int("failure_threshold", cfg.BreakerFailureThreshold), zap.Duration("timeout", cfg.BreakerTimeout))
	}

	var snapshots cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		snapshots = mc
		logger.Info("snapshot store: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		snapshots = cache.NewInMemoryCache()
		logger.Info("snapshot store: in_memory")
	}

	// One refresh may spend every retry attempt plus the longest backoff.
	refreshTimeout := cfg.FeedTimeout*time.Duration(max(cfg.RetryAttempts, 1)) + cfg.RetryMaxDelay
	feedCache := feed.NewCache(feedClient, cfg.FeedTTL, logger,
		feed.WithSnapshotStore(snapshots),
		feed.WithSnapshotRetention(cfg.SnapshotRetention),
		feed.WithRefreshTimeout(refreshTimeout),
	)
	uvService := service.NewUVService(feedCache, cities, table, logger)

	healthConfig := &httphandler.HealthConfig{
		Window:   cfg.HealthWindow,
		ErrorPct: cfg.HealthErrorPct,
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}
	handler := httphandler.NewHandler(uvService, feedCache, healthConfig, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	router := httphandler.NewRouter(handler, httphandler.RouterConfig{
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	observability.RegisterRateLimitGauges(cfg.HealthWindow)
	if len(cfg.TrackedCities) > 0 {
		observability.SetTrackedCities(cfg.TrackedCities)
	}

	var warmer *scheduler.Warmer
	if cfg.WarmEnabled {
		warmer, err = scheduler.NewWarmer(feedCache, cfg.WarmInterval, refreshTimeout, logger)
		if err != nil {
			logger.Fatal("feed warmer", zap.Error(err))
		}
		if err := warmer.Start(); err != nil {
			logger.Fatal("feed warmer start", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort), zap.String("feed_url", cfg.FeedURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	if warmer != nil {
		warmer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if n := httphandler.InFlightCount(); n > 0 {
		logger.Info("waiting for in-flight requests", zap.Int64("count", n))
		if err := httphandler.WaitForInFlight(shutdownCtx, 50*time.Millisecond); err != nil {
			logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
		}
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
