package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_ADDR", "PORT", "NATS_QUEUE", "ACCESS_CACHE_TTL", "REPLICATION_LAG_DELAY", "ROUTER_MAX_CONCURRENCY", "SLACK_RATE_PER_SECOND", "GITHUB_API_URL", "DELIVERY_RETENTION", "METRICS_ADDR"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "activity-router", cfg.NATSQueue)
	assert.Equal(t, 10*time.Minute, cfg.AccessCacheTTL)
	assert.Equal(t, time.Second, cfg.ReplicationLagDelay)
	assert.Equal(t, 0, cfg.RouterMaxConcurrency)
	assert.Equal(t, 1.0, cfg.SlackRatePerSecond)
	assert.Equal(t, "https://api.github.com", cfg.GitHubAPIURL)
	assert.Equal(t, 72*time.Hour, cfg.DeliveryRetention)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("ACCESS_CACHE_TTL", "90s")
	t.Setenv("REPLICATION_LAG_DELAY", "2")
	t.Setenv("ROUTER_MAX_CONCURRENCY", "16")
	t.Setenv("GITHUB_APP_ID", "12345")
	t.Setenv("GITHUB_APP_PRIVATE_KEY", `-----BEGIN KEY-----\nabc\n-----END KEY-----`)
	t.Setenv("AUTO_MIGRATE", "yes")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 90*time.Second, cfg.AccessCacheTTL)
	assert.Equal(t, 2*time.Second, cfg.ReplicationLagDelay)
	assert.Equal(t, 16, cfg.RouterMaxConcurrency)
	assert.EqualValues(t, 12345, cfg.GitHubAppID)
	assert.Equal(t, "-----BEGIN KEY-----\nabc\n-----END KEY-----", cfg.GitHubAppPrivateKey)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ACCESS_CACHE_TTL", "soon")
	t.Setenv("ROUTER_MAX_CONCURRENCY", "many")
	t.Setenv("SLACK_RATE_PER_SECOND", "-3")

	cfg := Load()
	assert.Equal(t, 10*time.Minute, cfg.AccessCacheTTL)
	assert.Equal(t, 0, cfg.RouterMaxConcurrency)
	assert.Equal(t, 1.0, cfg.SlackRatePerSecond)
}

func TestLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"-4":      slog.LevelDebug,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, Config{Log: in}.LogLevel().Level(), in)
	}
}
