package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CACHE_DIR", "CACHE_BACKEND", "CACHE_DB_PATH", "DATA_BASE_URL", "HTTP_TIMEOUT_SECONDS",
	"FETCH_CONCURRENCY", "TIMEZONE", "VALIDATE_SYMBOLS", "LISTEN_ADDR",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
}

// clearEnv blanks every key so values from the host or a .env file don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.CacheBackend)
	assert.Equal(t, filepath.Join(cfg.CacheDir, "cache.db"), cfg.CacheDBPath)
	assert.Contains(t, cfg.CacheDir, filepath.Join(".cache", "binance_history"))
	assert.Equal(t, "https://data.binance.vision", cfg.DataBaseURL)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 1, cfg.FetchConcurrency)
	assert.Equal(t, "Asia/Shanghai", cfg.TimeZone.String())
	assert.False(t, cfg.ValidateSymbols)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.LogFile)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("CACHE_DIR", dir)
	t.Setenv("CACHE_BACKEND", "SQLite")
	t.Setenv("DATA_BASE_URL", "http://localhost:9000/")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("FETCH_CONCURRENCY", "4")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("VALIDATE_SYMBOLS", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.CacheDir)
	assert.Equal(t, BackendSQLite, cfg.CacheBackend)
	assert.Equal(t, filepath.Join(dir, "cache.db"), cfg.CacheDBPath)
	assert.Equal(t, "http://localhost:9000", cfg.DataBaseURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, time.UTC, cfg.TimeZone)
	assert.True(t, cfg.ValidateSymbols)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "soon")
	t.Setenv("FETCH_CONCURRENCY", "0")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	t.Setenv("DATA_BASE_URL", "ftp://example.com")

	_, err := LoadConfig()
	require.Error(t, err)
	for _, want := range []string{"CACHE_BACKEND", "HTTP_TIMEOUT_SECONDS", "FETCH_CONCURRENCY", "TIMEZONE", "DATA_BASE_URL"} {
		assert.Contains(t, err.Error(), want)
	}
}
