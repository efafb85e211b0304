package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// API server
	APIPort int

	// Scanner configuration
	Scanner ScannerConfig

	// Optional YAML file with detector tuning overrides
	TuningFile string
}

// ScannerConfig holds the periodic scan parameters
type ScannerConfig struct {
	IntervalMinutes int
	Workers         int

	// Symbols restricts the scan universe. Empty means every symbol with
	// bar data in the database.
	Symbols []string

	// Alert levels that trigger webhook delivery (comma separated env)
	AlertLevels []string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "divergence_radar"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "radar"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "radar123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		APIPort: getEnvInt("API_PORT", 8080),

		Scanner: ScannerConfig{
			IntervalMinutes: getEnvInt("SCANNER_INTERVAL_MINUTES", 60),
			Workers:         getEnvInt("SCANNER_WORKERS", 4),
			Symbols:         getEnvList("SCANNER_SYMBOLS"),
			AlertLevels:     getEnvListDefault("SCANNER_ALERT_LEVELS", []string{"high", "imminent"}),
		},

		TuningFile: getEnvOrDefault("DETECTOR_TUNING_FILE", ""),
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable as a slice
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvListDefault(key string, defaultValue []string) []string {
	if list := getEnvList(key); list != nil {
		return list
	}
	return defaultValue
}
