package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "SENTRY_DSN", "STORE_DRIVER", "KAFKA_BROKERS", "KAFKA_TOPIC"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "activity_events", cfg.KafkaTopic)
	assert.False(t, cfg.EventsEnabled())
	assert.False(t, cfg.IsEnvProd())
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/plan.db")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/plan.db", cfg.SQLitePath)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EventsEnabled())
}

func TestIsEnvProdNeedsSentry(t *testing.T) {
	cfg := &Config{Environment: "prod"}
	assert.False(t, cfg.IsEnvProd())

	cfg.SentryDSN = "https://key@sentry.example.com/1"
	assert.True(t, cfg.IsEnvProd())
}
