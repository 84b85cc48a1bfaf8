package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env         string
	HTTPAddr    string
	Log         string
	// Listen address of the worker's /metrics endpoint; "off" disables it.
	MetricsAddr string

	DBURL       string
	AutoMigrate bool

	NATSURL   string
	NATSQueue string

	// Optional. Without it access checks are cached per process.
	RedisURL string

	// Used to validate GitHub webhook signatures (X-Hub-Signature-256).
	GitHubWebhookSecret string

	// GitHub App credentials for installation tokens. The private key is
	// PEM; literal "\n" sequences are accepted for single-line env files.
	GitHubAppID         int64
	GitHubAppPrivateKey string
	GitHubAPIURL        string

	SlackAPIURL string
	// Per-workspace chat.postMessage budget.
	SlackRatePerSecond float64

	// Used to decrypt stored Slack and GitHub tokens. Must be 32 bytes base64 (AES-256-GCM key).
	TokenEncKeyB64 string

	AccessCacheTTL       time.Duration
	ReplicationLagDelay  time.Duration
	RouterMaxConcurrency int
	// Re-read issues and pull requests from GitHub before rendering.
	RefreshItems bool
	// How long delivery ids are kept for redelivery detection. Zero keeps
	// them forever.
	DeliveryRetention time.Duration
}

func Load() Config {
	env := getEnv("APP_ENV", "dev")
	logLevel := getEnv("LOG_LEVEL", "info")

	// Prefer HTTP_ADDR if provided, otherwise build it from PORT.
	httpAddr := os.Getenv("HTTP_ADDR")
	if strings.TrimSpace(httpAddr) == "" {
		port := getEnv("PORT", "8080")
		httpAddr = ":" + port
	}

	return Config{
		Env:         env,
		HTTPAddr:    httpAddr,
		Log:         logLevel,
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		DBURL:       getEnv("DB_URL", ""),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", false),

		NATSURL:   getEnv("NATS_URL", ""),
		NATSQueue: getEnv("NATS_QUEUE", "activity-router"),

		RedisURL: getEnv("REDIS_URL", ""),

		GitHubWebhookSecret: getEnv("GITHUB_WEBHOOK_SECRET", ""),

		GitHubAppID:         int64(getEnvInt("GITHUB_APP_ID", 0)),
		GitHubAppPrivateKey: strings.ReplaceAll(getEnv("GITHUB_APP_PRIVATE_KEY", ""), `\n`, "\n"),
		GitHubAPIURL:        getEnv("GITHUB_API_URL", "https://api.github.com"),

		SlackAPIURL:        getEnv("SLACK_API_URL", "https://slack.com/api"),
		SlackRatePerSecond: getEnvFloat("SLACK_RATE_PER_SECOND", 1),

		TokenEncKeyB64: getEnv("TOKEN_ENC_KEY_B64", ""),

		AccessCacheTTL:       getEnvDuration("ACCESS_CACHE_TTL", 10*time.Minute),
		ReplicationLagDelay:  getEnvDuration("REPLICATION_LAG_DELAY", time.Second),
		RouterMaxConcurrency: getEnvInt("ROUTER_MAX_CONCURRENCY", 0),
		RefreshItems:         getEnvBool("REFRESH_ITEMS", false),
		DeliveryRetention:    getEnvDuration("DELIVERY_RETENTION", 72*time.Hour),
	}
}

func (c Config) LogLevel() slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(c.Log)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		// Allow numeric levels for easy tweaking (-4 debug, 0 info, 4 warn, 8 error).
		if n, err := strconv.Atoi(c.Log); err == nil {
			return slog.Level(n)
		}
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

// getEnvDuration accepts Go durations ("90s", "10m") and bare seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
