// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr    string
	DBPath        string
	StatsCacheTTL time.Duration
	FlagThreshold int
	AdminToken    string
}

// Load reads configuration from environment variables and returns a
// validated Config. All variables are optional with defaults:
// TOOLREVIEWS_LISTEN_ADDR (127.0.0.1:8080), TOOLREVIEWS_DB_PATH
// (toolreviews.db), TOOLREVIEWS_STATS_CACHE_TTL (30s, 0 disables),
// TOOLREVIEWS_FLAG_THRESHOLD (5, 0 disables), TOOLREVIEWS_ADMIN_TOKEN
// (empty disables the moderation endpoints).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("TOOLREVIEWS_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "toolreviews.db"
	if v, ok := os.LookupEnv("TOOLREVIEWS_DB_PATH"); ok {
		dbPath = v
	}

	statsCacheTTL := 30 * time.Second
	if v, ok := os.LookupEnv("TOOLREVIEWS_STATS_CACHE_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("TOOLREVIEWS_STATS_CACHE_TTL has invalid duration %q: %w", v, err)
		}
		statsCacheTTL = parsed
	}

	flagThreshold := 5
	if v, ok := os.LookupEnv("TOOLREVIEWS_FLAG_THRESHOLD"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("TOOLREVIEWS_FLAG_THRESHOLD has invalid value %q", v)
		}
		flagThreshold = parsed
	}

	return &Config{
		ListenAddr:    listenAddr,
		DBPath:        dbPath,
		StatsCacheTTL: statsCacheTTL,
		FlagThreshold: flagThreshold,
		AdminToken:    os.Getenv("TOOLREVIEWS_ADMIN_TOKEN"),
	}, nil
}
