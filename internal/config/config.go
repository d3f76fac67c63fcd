package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port               string
	Environment        string
	LogLevel           slog.Level
	RedisURL           string
	StoryDataPath      string
	SessionTTL         time.Duration
	WorkerPollInterval time.Duration
	APIBaseURL         string // used by the console client
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:           getEnv("REDIS_URL", "localhost:6379"),
		StoryDataPath:      getEnv("STORY_DATA_PATH", "./data/stories"),
		SessionTTL:         parseDuration(getEnv("SESSION_TTL", "24h"), 24*time.Hour),
		WorkerPollInterval: parseDuration(getEnv("WORKER_POLL_INTERVAL", "2s"), 2*time.Second),
		APIBaseURL:         getEnv("API_URL", "http://localhost:8080"),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
