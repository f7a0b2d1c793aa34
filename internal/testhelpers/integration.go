//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/liam996405/uv-index-service/internal/cache"
	"github.com/liam996405/uv-index-service/internal/client"
	"github.com/liam996405/uv-index-service/internal/config"
	"github.com/liam996405/uv-index-service/internal/db"
	"github.com/liam996405/uv-index-service/internal/feed"
	"github.com/liam996405/uv-index-service/internal/reference"
	"github.com/liam996405/uv-index-service/internal/repository"
	"github.com/liam996405/uv-index-service/internal/service"
)

// IntegrationTestConfig holds configuration for tests that reach the live feed.
type IntegrationTestConfig struct {
	FeedURL       string
	CacheBackend  string // "in_memory" or "memcached"
	MemcachedAddr string
}

// GetIntegrationConfig reads integration settings from the environment.
// Skips the test unless UV_LIVE_FEED is set, since it calls ARPANSA.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	if os.Getenv("UV_LIVE_FEED") == "" {
		t.Skip("UV_LIVE_FEED not set, skipping live feed integration test")
	}

	feedURL := os.Getenv("UV_DATA_URL")
	if feedURL == "" {
		feedURL = config.DefaultFeedURL
	}
	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		FeedURL:       feedURL,
		CacheBackend:  os.Getenv("INTEGRATION_CACHE_BACKEND"),
		MemcachedAddr: memcachedAddr,
	}
}

// SetupIntegrationService builds a UVService over the live feed, a seeded
// in-memory database and the configured snapshot store. The returned feed
// cache is the service's FeedState. Resources are released via t.Cleanup.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.UVService, *feed.Cache) {
	t.Helper()
	logger := zap.NewNop()

	database, err := db.Open(&config.Config{DatabaseDSN: ":memory:", DatabaseMaxOpenConns: 1, DatabaseMaxIdleConns: 1})
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })
	if err := db.Migrate(database, logger); err != nil {
		t.Fatalf("db.Migrate() error = %v", err)
	}
	if _, err := db.Seed(t.Context(), database, reference.Default(), logger); err != nil {
		t.Fatalf("db.Seed() error = %v", err)
	}

	feedClient, err := client.NewARPANSAClient(cfg.FeedURL, 10*time.Second)
	if err != nil {
		t.Fatalf("NewARPANSAClient() error = %v", err)
	}

	var store cache.Cache = cache.NewInMemoryCache()
	if cfg.CacheBackend == "memcached" {
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddr, 500*time.Millisecond, 2)
		if err == nil && mc.Ping() == nil {
			store = mc
			t.Cleanup(func() { _ = mc.Close() })
			t.Logf("Using Memcached snapshot store at %s", cfg.MemcachedAddr)
		} else {
			t.Logf("Memcached not available, using in-memory snapshot store")
		}
	}

	feedCache := feed.NewCache(feedClient, 30*time.Minute, logger, feed.WithSnapshotStore(store))
	uv := service.NewUVService(feedCache, repository.NewCityRepository(database, logger), reference.Default(), logger)
	return uv, feedCache
}
