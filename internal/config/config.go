package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds the process settings. Values come from the environment, an
// optional .env file, and CLI flags, in increasing precedence.
type Config struct {
	HTTPAddr            string
	DBDriver            string
	DatabaseURL         string
	CacheDriver         string
	RedisURL            string
	LogLevel            string
	LogFormat           string
	ActiveSessionTTL    time.Duration
	SuspendedSessionTTL time.Duration
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8000"),
		DBDriver:    getenv("DB_DRIVER", "sqlite3"),
		DatabaseURL: getenv("DATABASE_URL", "surveychat.db"),
		CacheDriver: getenv("CACHE_DRIVER", CacheMemory),
		RedisURL:    getenv("REDIS_URL", "redis://localhost:6379/0"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.ActiveSessionTTL, err = durationEnv("ACTIVE_SESSION_TTL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SuspendedSessionTTL, err = durationEnv("SUSPENDED_SESSION_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.CacheDriver {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unsupported cache driver %q", c.CacheDriver)
	}
	if c.ActiveSessionTTL <= 0 || c.SuspendedSessionTTL <= 0 {
		return fmt.Errorf("session ttls must be positive")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
