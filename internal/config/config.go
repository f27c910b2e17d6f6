// Package config centralises configuration parsing for the dashboard backend.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"example.com/fitdash/internal/dataset"
)

// Config captures runtime configuration values for the dashboard backend.
type Config struct {
	HTTPAddress  string
	DataDir      string
	Sources      dataset.Sources
	KafkaBrokers []string // empty disables reload notifications
	ReloadTopic  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load reads environment variables into Config, applying sensible defaults
// for local dev. Individual source paths override the DATA_DIR layout.
func Load() Config {
	cfg := Config{
		HTTPAddress:  getEnv("HTTP_ADDRESS", ":8080"),
		DataDir:      getEnv("DATA_DIR", "data"),
		ReloadTopic:  getEnv("RELOAD_TOPIC", "dataset_reloaded"),
		ReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT", 5*time.Second),
		WriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getDurationEnv("HTTP_IDLE_TIMEOUT", 60*time.Second),
	}

	cfg.Sources = dataset.Sources{
		DailyActivity:   getEnv("DAILY_ACTIVITY_CSV", filepath.Join(cfg.DataDir, "dailyActivity_merged.csv")),
		DailySleep:      getEnv("DAILY_SLEEP_CSV", filepath.Join(cfg.DataDir, "sleepDay_merged.csv")),
		HourlySteps:     getEnv("HOURLY_STEPS_CSV", filepath.Join(cfg.DataDir, "hourlySteps_merged.csv")),
		HourlyIntensity: getEnv("HOURLY_INTENSITY_CSV", filepath.Join(cfg.DataDir, "hourlyIntensities_merged.csv")),
		HourlyCalories:  getEnv("HOURLY_CALORIES_CSV", filepath.Join(cfg.DataDir, "hourlyCalories_merged.csv")),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
