package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/tikfind")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5, cfg.DefaultCooldownMinutes)
	assert.Equal(t, 1000, cfg.CoachCacheCapacity)
	assert.Equal(t, 256, cfg.IngestBuffer)
	assert.EqualValues(t, 10000, cfg.MaxWebSocketConnections)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("DEFAULT_COOLDOWN_MINUTES", "0")
	t.Setenv("INGEST_BUFFER", "64")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 0, cfg.DefaultCooldownMinutes)
	assert.Equal(t, 64, cfg.IngestBuffer)
}

func TestLoadRejectsBadRanges(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COACH_CACHE_CAPACITY", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COACH_CACHE_CAPACITY")
}
