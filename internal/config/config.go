// Package config loads pipeline settings from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Gemini settings
	GeminiAPIKey string
	GeminiModel  string

	// Crawl settings
	SourcesConfigPath string
	NewsDeadline      time.Duration // overall deadline for portal fan-out
	CommunityDeadline time.Duration // deadline for community board fan-out
	RequestTimeout    time.Duration
	FetchRetries      int
	FetchRetryDelay   time.Duration

	// Aggregation settings
	TrendingLimit  int
	LatestPageSize int
	CacheTTL       time.Duration

	// Summarization settings
	SummarizeCooldown   time.Duration
	MaxPerRun           int
	ChunkSize           int
	InterChunkDelay     time.Duration
	TransientRetryDelay time.Duration
	SummaryRetention    time.Duration

	// Storage settings
	SQLitePath string

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		GeminiModel:         "gemini-2.5-flash-lite",
		SourcesConfigPath:   "configs/sources.yaml",
		NewsDeadline:        12 * time.Second,
		CommunityDeadline:   8 * time.Second,
		RequestTimeout:      10 * time.Second,
		FetchRetries:        2,
		FetchRetryDelay:     500 * time.Millisecond,
		TrendingLimit:       20,
		LatestPageSize:      10,
		CacheTTL:            60 * time.Second,
		SummarizeCooldown:   50 * time.Second,
		MaxPerRun:           30,
		ChunkSize:           30,
		InterChunkDelay:     2 * time.Second,
		TransientRetryDelay: 10 * time.Second,
		SummaryRetention:    7 * 24 * time.Hour,
		SQLitePath:          "newscollect.db",
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.SQLitePath = getEnvOrDefault("SQLITE_PATH", cfg.SQLitePath)
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.GeminiModel = model
	}

	if v := getEnvIntOrDefault("NEWS_DEADLINE_SECONDS", 0); v > 0 {
		cfg.NewsDeadline = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("COMMUNITY_DEADLINE_SECONDS", 0); v > 0 {
		cfg.CommunityDeadline = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("REQUEST_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.RequestTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("FETCH_RETRIES", -1); v >= 0 {
		cfg.FetchRetries = v
	}
	if v := getEnvIntOrDefault("TRENDING_LIMIT", 0); v > 0 {
		cfg.TrendingLimit = v
	}
	if v := getEnvIntOrDefault("LATEST_PAGE_SIZE", 0); v > 0 {
		cfg.LatestPageSize = v
	}
	if v := getEnvIntOrDefault("SUMMARIZE_COOLDOWN_SECONDS", 0); v > 0 {
		cfg.SummarizeCooldown = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("MAX_PER_RUN", 0); v > 0 {
		cfg.MaxPerRun = v
	}
	if v := getEnvIntOrDefault("SUMMARIZE_CHUNK_SIZE", 0); v > 0 {
		cfg.ChunkSize = v
	}
	if v := getEnvIntOrDefault("SUMMARY_RETENTION_DAYS", 0); v > 0 {
		cfg.SummaryRetention = time.Duration(v) * 24 * time.Hour
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.MaxPerRun <= 0 {
		return fmt.Errorf("MAX_PER_RUN must be positive")
	}
	if c.ChunkSize > c.MaxPerRun {
		c.ChunkSize = c.MaxPerRun
	}
	return nil
}
