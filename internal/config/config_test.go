package config

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DB_DRIVER", "DATABASE_URL", "CACHE_DRIVER", "REDIS_URL", "LOG_LEVEL", "LOG_FORMAT", "ACTIVE_SESSION_TTL", "SUSPENDED_SESSION_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "surveychat.db", cfg.DatabaseURL)
	assert.Equal(t, CacheMemory, cfg.CacheDriver)
	assert.Equal(t, time.Hour, cfg.ActiveSessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.SuspendedSessionTTL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("ACTIVE_SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, CacheRedis, cfg.CacheDriver)
	assert.Equal(t, 30*time.Minute, cfg.ActiveSessionTTL)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("SUSPENDED_SESSION_TTL", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "invalid SUSPENDED_SESSION_TTL")
	})

	t.Run("bad cache driver", func(t *testing.T) {
		t.Setenv("CACHE_DRIVER", "memcached")
		_, err := Load()
		assert.ErrorContains(t, err, "unsupported cache driver")
	})
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger("warn", "json", buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "value", record["key"])
}
