package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"binanceHistory/internal/adapters/logger"
	"binanceHistory/internal/archive"
)

// Cache backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	// Archive Cache
	CacheDir     string
	CacheBackend string // "file" or "sqlite"
	CacheDBPath  string

	// Archive host
	DataBaseURL      string
	HTTPTimeout      time.Duration
	FetchConcurrency int

	// Presentation
	TimeZone *time.Location

	// Exchange metadata
	ValidateSymbols bool

	// API server
	ListenAddr string

	// Logging
	LogLevel  slog.Level
	LogFormat string
	LogFile   string
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Archive Cache
	cfg.CacheDir = getEnv("CACHE_DIR", defaultCacheDir())
	if cfg.CacheDir == "" {
		errs = append(errs, "CACHE_DIR must be set")
	}

	cfg.CacheBackend = strings.ToLower(getEnv("CACHE_BACKEND", BackendFile))
	if cfg.CacheBackend != BackendFile && cfg.CacheBackend != BackendSQLite {
		errs = append(errs, fmt.Sprintf("CACHE_BACKEND must be %q or %q, got %q", BackendFile, BackendSQLite, cfg.CacheBackend))
	}
	cfg.CacheDBPath = getEnv("CACHE_DB_PATH", filepath.Join(cfg.CacheDir, "cache.db"))

	// Archive host
	cfg.DataBaseURL = strings.TrimSuffix(getEnv("DATA_BASE_URL", archive.DefaultBaseURL), "/")
	if !strings.HasPrefix(cfg.DataBaseURL, "http://") && !strings.HasPrefix(cfg.DataBaseURL, "https://") {
		errs = append(errs, "DATA_BASE_URL must be an http(s) URL")
	}

	timeoutSeconds, err := getEnvAsIntRequired("HTTP_TIMEOUT_SECONDS", 60)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HTTP_TIMEOUT_SECONDS: %v", err))
	} else if timeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.FetchConcurrency, err = getEnvAsIntRequired("FETCH_CONCURRENCY", 1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FETCH_CONCURRENCY: %v", err))
	} else if cfg.FetchConcurrency < 1 {
		errs = append(errs, "FETCH_CONCURRENCY must be at least 1")
	}

	// Presentation
	tzName := getEnv("TIMEZONE", "Asia/Shanghai")
	cfg.TimeZone, err = time.LoadLocation(tzName)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TIMEZONE %q: %v", tzName, err))
	}

	cfg.ValidateSymbols = getEnvAsBool("VALIDATE_SYMBOLS", false)

	cfg.ListenAddr = getEnv("LISTEN_ADDR", ":8080")

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be text or json")
	}
	cfg.LogFile = getEnv("LOG_FILE", "")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "binance_history")
	}
	return filepath.Join(home, ".cache", "binance_history")
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
