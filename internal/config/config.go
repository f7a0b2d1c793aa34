package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFeedURL is the ARPANSA real-time UV document.
const DefaultFeedURL = "https://uvdata.arpansa.gov.au/xml/uvvalues.xml"

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	FeedURL     string
	FeedTimeout time.Duration
	FeedTTL     time.Duration

	RequestTimeout time.Duration

	CacheBackend      string // "in_memory" or "memcached"
	SnapshotRetention time.Duration

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	DatabasePath            string
	DatabaseDSN             string
	DatabaseMaxOpenConns    int
	DatabaseMaxIdleConns    int
	DatabaseConnMaxLifetime time.Duration
	DatabaseSeed            bool

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	BreakerEnabled          bool
	BreakerFailureThreshold int
	BreakerSuccessThreshold int
	BreakerTimeout          time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	CORSAllowedOrigins []string

	WarmEnabled  bool
	WarmInterval time.Duration

	ShutdownTimeout time.Duration

	HealthWindow   time.Duration
	HealthErrorPct int

	TrackedCities []string
}

type fileConfig struct {
	Server struct {
		Port               string   `yaml:"port"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Feed struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
		TTL     string `yaml:"ttl"`
	} `yaml:"feed"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend           string `yaml:"backend"`
		SnapshotRetention string `yaml:"snapshot_retention"`
		Memcached         struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Database struct {
		Path            string `yaml:"path"`
		DSN             string `yaml:"dsn"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    *int   `yaml:"max_idle_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		Seed            *bool  `yaml:"seed"`
	} `yaml:"database"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
		RateLimitRPS     int    `yaml:"rate_limit_rps"`
		RateLimitBurst   int    `yaml:"rate_limit_burst"`

		CircuitBreaker struct {
			Enabled          *bool  `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			SuccessThreshold int    `yaml:"success_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"reliability"`

	Scheduler struct {
		WarmEnabled  bool   `yaml:"warm_enabled"`
		WarmInterval string `yaml:"warm_interval"`
	} `yaml:"scheduler"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Health struct {
		Window   string `yaml:"window"`
		ErrorPct int    `yaml:"error_pct"`
	} `yaml:"health"`

	Metrics struct {
		TrackedCities []string `yaml:"tracked_cities"`
	} `yaml:"metrics"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and applies
// env overrides (PORT, UV_DATA_URL, DATABASE_PATH, CACHE_BACKEND, MEMCACHED_ADDRS).
// Call from project root after loading any .env file.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "5000")
	cfg.CORSAllowedOrigins = fc.Server.CORSAllowedOrigins
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	cfg.FeedURL = firstNonEmpty(os.Getenv("UV_DATA_URL"), fc.Feed.URL, DefaultFeedURL)
	cfg.FeedTimeout = parseDurationOrZero(fc.Feed.Timeout, 10*time.Second)
	cfg.FeedTTL = parseDuration(fc.Feed.TTL, 30*time.Minute)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 15*time.Second)

	cfg.CacheBackend = strings.ToLower(firstNonEmpty(os.Getenv("CACHE_BACKEND"), fc.Cache.Backend, "in_memory"))
	cfg.SnapshotRetention = parseDuration(fc.Cache.SnapshotRetention, 24*time.Hour)
	cfg.MemcachedAddrs = firstNonEmpty(os.Getenv("MEMCACHED_ADDRS"), fc.Cache.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.DatabasePath = firstNonEmpty(os.Getenv("DATABASE_PATH"), fc.Database.Path, "data/uvindex.db")
	cfg.DatabaseDSN = strings.TrimSpace(fc.Database.DSN)
	cfg.DatabaseMaxOpenConns = fc.Database.MaxOpenConns
	if cfg.DatabaseMaxOpenConns <= 0 {
		cfg.DatabaseMaxOpenConns = 4
	}
	cfg.DatabaseMaxIdleConns = 2
	if fc.Database.MaxIdleConns != nil {
		cfg.DatabaseMaxIdleConns = *fc.Database.MaxIdleConns
	}
	cfg.DatabaseConnMaxLifetime = parseDuration(fc.Database.ConnMaxLifetime, time.Hour)
	cfg.DatabaseSeed = true
	if fc.Database.Seed != nil {
		cfg.DatabaseSeed = *fc.Database.Seed
	}

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cb := fc.Reliability.CircuitBreaker
	cfg.BreakerEnabled = true
	if cb.Enabled != nil {
		cfg.BreakerEnabled = *cb.Enabled
	}
	cfg.BreakerFailureThreshold = cb.FailureThreshold
	if cfg.BreakerFailureThreshold <= 0 {
		cfg.BreakerFailureThreshold = 5
	}
	cfg.BreakerSuccessThreshold = cb.SuccessThreshold
	if cfg.BreakerSuccessThreshold <= 0 {
		cfg.BreakerSuccessThreshold = 2
	}
	cfg.BreakerTimeout = parseDuration(cb.Timeout, 30*time.Second)

	cfg.WarmEnabled = fc.Scheduler.WarmEnabled
	cfg.WarmInterval = parseDuration(fc.Scheduler.WarmInterval, 25*time.Minute)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.HealthWindow = parseDuration(fc.Health.Window, 5*time.Minute)
	cfg.HealthErrorPct = fc.Health.ErrorPct
	if cfg.HealthErrorPct <= 0 {
		cfg.HealthErrorPct = 50
	}

	cfg.TrackedCities = fc.Metrics.TrackedCities

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. RequestTimeout is raised above
// FeedTimeout so a cold-cache request can wait out one upstream attempt.
func validate(cfg *Config) error {
	if cfg.FeedTimeout <= 0 {
		return fmt.Errorf("feed.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.FeedTimeout {
		cfg.RequestTimeout = cfg.FeedTimeout + time.Second
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	if cfg.WarmEnabled && cfg.WarmInterval >= cfg.FeedTTL {
		return fmt.Errorf("scheduler.warm_interval (%s) must be shorter than feed.ttl (%s)", cfg.WarmInterval, cfg.FeedTTL)
	}
	if cfg.HealthErrorPct > 100 {
		return fmt.Errorf("health.error_pct must be between 1 and 100, got %d", cfg.HealthErrorPct)
	}
	return nil
}
