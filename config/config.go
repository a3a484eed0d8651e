// Package config is env-driven configuration with validation, matching
// the teacher's config/config.go shape (getEnv/getEnvInt/getEnvDuration
// /getEnvFloat/getEnvBool helpers, Load()+Validate()), resectioned for the
// weather-comment batch generator's own components instead of the
// teacher's SaaS/billing surface.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Forecast   ForecastConfig
	Comments   CommentsConfig
	Locations  LocationsConfig
	Cache      CacheConfig
	Batch      BatchConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
	HistoryLog HistoryLogConfig
	Evaluation EvaluationConfig
}

// ServerConfig governs the thin health/cache-stats/metrics HTTP surface in
// cmd/weathercommentd (ambient CLI/infra tooling, not a UI). Batches are
// started from the --locations flag, not over HTTP.
type ServerConfig struct {
	Host                    string
	Port                    int
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	GracefulShutdownTimeout time.Duration
}

// ForecastConfig holds C4's settings. Only APIKey is passed to forecast.New
// by cmd/weathercommentd; the client's base URL, timeout, retry count,
// backoff and rate limit are fixed constants in internal/forecast, so the
// other fields here do not change its behaviour.
type ForecastConfig struct {
	APIKey             string
	BaseURL            string
	Timeout            time.Duration
	MaxRetries         int
	RetryBaseDelay     time.Duration
	RateLimitPerSecond float64
}

// CommentsConfig points C5 at its on-disk reference-comment catalogue.
type CommentsConfig struct {
	Directory string
}

// LocationsConfig points C1 at its catalogue file.
type LocationsConfig struct {
	CatalogueFile string
}

// CacheConfig sets the process-wide memory-pressure monitor's threshold
// and polling interval; per-named-cache TTL/size defaults live in
// internal/cache.DefaultCaches.
type CacheConfig struct {
	MemoryPressureThresholdPct float64
	MemoryCheckInterval        time.Duration
}

// BatchConfig parameterizes C8's scheduling mode. MaxWorkers is validated
// but not passed to the orchestrator, whose pool size comes from
// batch.workerCount (capped at 16).
type BatchConfig struct {
	MaxWorkers         int
	PerLocationTimeout time.Duration
	Deterministic      bool
	PreFetch           bool
	UnifiedMode        bool
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level  string
	Format string // json or text
}

// MetricsConfig configures internal/metrics' in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// HistoryLogConfig points internal/history at its append-only JSONL file.
type HistoryLogConfig struct {
	Path       string
	MaxRecords int
}

// EvaluationConfig selects the evaluator.Mode (strict/moderate/relaxed).
type EvaluationConfig struct {
	Mode string
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:                    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:                    getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:             getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:            getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:             getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			GracefulShutdownTimeout: getEnvDuration("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Forecast: ForecastConfig{
			APIKey:             getEnv("WXTECH_API_KEY", ""),
			BaseURL:            getEnv("WXTECH_BASE_URL", "https://wxtech.weathernews.com/api/v1"),
			Timeout:            getEnvDuration("FORECAST_TIMEOUT", 30*time.Second),
			MaxRetries:         getEnvInt("FORECAST_MAX_RETRIES", 3),
			RetryBaseDelay:     getEnvDuration("FORECAST_RETRY_BASE_DELAY", 1*time.Second),
			RateLimitPerSecond: getEnvFloat("FORECAST_RATE_LIMIT_PER_SECOND", 10.0),
		},
		Comments: CommentsConfig{
			Directory: getEnv("COMMENTS_DIRECTORY", "./data/comments"),
		},
		Locations: LocationsConfig{
			CatalogueFile: getEnv("LOCATIONS_CATALOGUE_FILE", "./data/locations.csv"),
		},
		Cache: CacheConfig{
			MemoryPressureThresholdPct: getEnvFloat("CACHE_MEMORY_PRESSURE_THRESHOLD_PCT", 85.0),
			MemoryCheckInterval:        getEnvDuration("CACHE_MEMORY_CHECK_INTERVAL", 30*time.Second),
		},
		Batch: BatchConfig{
			MaxWorkers:         getEnvInt("BATCH_MAX_WORKERS", 16),
			PerLocationTimeout: getEnvDuration("BATCH_PER_LOCATION_TIMEOUT", 30*time.Second),
			Deterministic:      getEnvBool("BATCH_DETERMINISTIC", false),
			PreFetch:           getEnvBool("BATCH_PRE_FETCH", false),
			UnifiedMode:        getEnvBool("BATCH_UNIFIED_MODE", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
		HistoryLog: HistoryLogConfig{
			Path:       getEnv("HISTORY_LOG_PATH", "./data/history.jsonl"),
			MaxRecords: getEnvInt("HISTORY_LOG_MAX_RECORDS", 100),
		},
		Evaluation: EvaluationConfig{
			Mode: getEnv("EVALUATION_MODE", "moderate"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Forecast.MaxRetries < 1 {
		return fmt.Errorf("forecast max retries must be at least 1")
	}
	if c.Forecast.RateLimitPerSecond <= 0 {
		return fmt.Errorf("forecast rate limit must be positive")
	}
	if c.Batch.MaxWorkers < 1 {
		return fmt.Errorf("batch max workers must be at least 1")
	}
	switch c.Evaluation.Mode {
	case "strict", "moderate", "relaxed":
	default:
		return fmt.Errorf("invalid evaluation mode: %q", c.Evaluation.Mode)
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
