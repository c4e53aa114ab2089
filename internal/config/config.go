package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Env         string
	MetricsPort int

	// Database URLs
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// Event sink
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Matchday scheduler
	MatchdayHour     int
	MatchdayMinute   int
	MatchdayTimezone string
	IntervalDays     int
	RecoveryAfter    time.Duration
	RecoveryLookback time.Duration
	LockTTL          time.Duration
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		MetricsPort: getEnvInt("METRICS_PORT", 9091),

		WorkerCount:   getEnvInt("WORKER_COUNT", 2),
		QueueSize:     getEnvInt("QUEUE_SIZE", 4096),
		BatchSize:     getEnvInt("BATCH_SIZE", 200),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 1*time.Second),

		MatchdayHour:     getEnvInt("MATCHDAY_HOUR", 9),
		MatchdayMinute:   getEnvInt("MATCHDAY_MINUTE", 0),
		MatchdayTimezone: getEnv("MATCHDAY_TIMEZONE", "Europe/Berlin"),
		IntervalDays:     getEnvInt("MATCHDAY_INTERVAL_DAYS", 1),
		RecoveryAfter:    getEnvDuration("RECOVERY_AFTER", 1*time.Hour),
		RecoveryLookback: getEnvDuration("RECOVERY_LOOKBACK", 24*time.Hour),
		LockTTL:          getEnvDuration("SCHEDULER_LOCK_TTL", 1*time.Minute),
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.ClickHouseURL, err = getEnvRequired("CLICKHOUSE_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}

	if _, err := time.LoadLocation(cfg.MatchdayTimezone); err != nil {
		return nil, fmt.Errorf("invalid MATCHDAY_TIMEZONE %q: %w", cfg.MatchdayTimezone, err)
	}

	return cfg, nil
}

// Location resolves the configured scheduler timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MatchdayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
