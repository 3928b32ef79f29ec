package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 120*time.Second, cfg.SessionTTL)
	assert.Equal(t, 3*time.Second, cfg.RefreshCooldown)
	assert.InDelta(t, 0.01, cfg.PriceEpsilon, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.NotifierInterval)
	assert.Equal(t, 30*time.Second, cfg.SummaryCooldown)
	assert.True(t, cfg.NotifierEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL_MS", "60000")
	t.Setenv("REFRESH_COOLDOWN", "5s")
	t.Setenv("PRICE_EPSILON", "0.5")
	t.Setenv("NOTIFIER_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PUBLIC_BASE_URL", "https://cafe.example/")

	cfg := FromEnv()

	assert.Equal(t, time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5*time.Second, cfg.RefreshCooldown)
	assert.InDelta(t, 0.5, cfg.PriceEpsilon, 1e-9)
	assert.False(t, cfg.NotifierEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "https://cafe.example", cfg.PublicBaseURL)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("SESSION_TTL_MS", "soon")
	t.Setenv("NOTIFIER_INTERVAL", "often")

	cfg := FromEnv()

	assert.Equal(t, 120*time.Second, cfg.SessionTTL)
	assert.Equal(t, 10*time.Second, cfg.NotifierInterval)
}
