package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("KAFKA_ENABLED", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := FromEnv()

	assert.Equal(t, ":8084", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "rental_logs.changed", cfg.Redis.Channel)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Stats.CacheTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("STATS_CACHE_TTL_SECONDS", "5")
	t.Setenv("ANON_TOKEN_TTL", "2h")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, cfg.Stats.CacheTTL)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestFromEnvRateLimitAndLogRotation(t *testing.T) {
	t.Setenv("SUBMIT_RATE_PER_MINUTE", "")
	t.Setenv("LOG_MAX_BACKUPS", "3")
	t.Setenv("LOG_COMPRESS", "true")

	cfg := FromEnv()

	assert.Equal(t, 30, cfg.RateLimit.PerMinute)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 3, cfg.Log.MaxBackups)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
	assert.True(t, cfg.Log.Compress)
}
