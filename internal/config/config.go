package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	PublicBaseURL      string
	SessionSecret      string
	JWTSecret          string
	JWTExpirySeconds   int64
	PSPASecret         string
	PSPBShopID         string
	PSPBSecret         string
	ProviderTimeout    time.Duration
	DefaultTimezone    string
	RateLimitPerMinute int
	RabbitMQURL        string
	CorsAllowedOrigins []string
	OutboxPollInterval time.Duration
	SweeperGrace       time.Duration
	TickerInterval     time.Duration
}

func Load() Config {
	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":"+getEnv("HTTP_PORT", "8087")),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:8087"),
		SessionSecret:      getEnv("SESSION_SIGNING_SECRET", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpirySeconds:   getEnvInt64("JWT_EXPIRY", 604800),
		PSPASecret:         getEnv("PSP_A_SECRET", ""),
		PSPBShopID:         getEnv("PSP_B_SHOP_ID", ""),
		PSPBSecret:         getEnv("PSP_B_SECRET", ""),
		ProviderTimeout:    getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		DefaultTimezone:    getEnv("DEFAULT_TIMEZONE", "UTC"),
		RateLimitPerMinute: int(getEnvInt64("RATE_LIMIT_PER_MINUTE", 100)),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		SweeperGrace:       getEnvDuration("SWEEPER_GRACE", 15*time.Minute),
		TickerInterval:     getEnvDuration("JOB_TICKER_INTERVAL", time.Minute),
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SessionSecret
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 100
	}

	return cfg
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
