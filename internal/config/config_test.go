package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "toolreviews.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
	assert.Equal(t, 5, cfg.FlagThreshold)
	assert.Empty(t, cfg.AdminToken)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOOLREVIEWS_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("TOOLREVIEWS_DB_PATH", "/tmp/reviews.db")
	t.Setenv("TOOLREVIEWS_STATS_CACHE_TTL", "2m")
	t.Setenv("TOOLREVIEWS_FLAG_THRESHOLD", "10")
	t.Setenv("TOOLREVIEWS_ADMIN_TOKEN", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/reviews.db", cfg.DBPath)
	assert.Equal(t, 2*time.Minute, cfg.StatsCacheTTL)
	assert.Equal(t, 10, cfg.FlagThreshold)
	assert.Equal(t, "hunter2", cfg.AdminToken)
}

func TestLoad_ZeroDisables(t *testing.T) {
	t.Setenv("TOOLREVIEWS_STATS_CACHE_TTL", "0s")
	t.Setenv("TOOLREVIEWS_FLAG_THRESHOLD", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.StatsCacheTTL)
	assert.Equal(t, 0, cfg.FlagThreshold)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("TOOLREVIEWS_STATS_CACHE_TTL", "soon")

		_, err := Load()
		assert.ErrorContains(t, err, "TOOLREVIEWS_STATS_CACHE_TTL")
	})

	t.Run("bad threshold", func(t *testing.T) {
		t.Setenv("TOOLREVIEWS_FLAG_THRESHOLD", "many")

		_, err := Load()
		assert.ErrorContains(t, err, "TOOLREVIEWS_FLAG_THRESHOLD")
	})

	t.Run("negative threshold", func(t *testing.T) {
		t.Setenv("TOOLREVIEWS_FLAG_THRESHOLD", "-1")

		_, err := Load()
		assert.ErrorContains(t, err, "TOOLREVIEWS_FLAG_THRESHOLD")
	})
}
