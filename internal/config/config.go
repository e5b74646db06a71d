// Package config loads runtime settings from the environment, with an
// optional .env file for local development. Every knob has a default; bad
// values fall back silently rather than aborting startup.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the conversion pipeline knobs.
const (
	DefaultMaxFileSizeBytes        = 52428800 // 50MB
	DefaultMaxPages                = 100
	DefaultConfidenceThreshold     = 70
	DefaultMinParseSuccessFraction = 0.10
	DefaultTimeout                 = 60 * time.Second
	DefaultMaxConcurrent           = 4
	DefaultQueueTimeout            = 10 * time.Second
	DefaultPageWorkers             = 4
)

// Config is the full runtime configuration.
type Config struct {
	Port        string
	LogLevel    string
	CORSOrigins string

	MaxFileSizeBytes        int64
	MaxPages                int
	ConfidenceThreshold     int
	MinParseSuccessFraction float64
	Timeout                 time.Duration
	MaxConcurrent           int
	QueueTimeout            time.Duration
	PageWorkers             int
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		MaxFileSizeBytes:        getEnvAsInt64("MAX_FILE_SIZE_BYTES", DefaultMaxFileSizeBytes),
		MaxPages:                getEnvAsInt("MAX_PAGES", DefaultMaxPages),
		ConfidenceThreshold:     getEnvAsInt("CONFIDENCE_THRESHOLD", DefaultConfidenceThreshold),
		MinParseSuccessFraction: getEnvAsFloat("MIN_PARSE_SUCCESS_FRACTION", DefaultMinParseSuccessFraction),
		Timeout:                 getEnvAsMillis("TIMEOUT_MS", DefaultTimeout),
		MaxConcurrent:           getEnvAsInt("MAX_CONCURRENT_CONVERSIONS", DefaultMaxConcurrent),
		QueueTimeout:            getEnvAsMillis("QUEUE_TIMEOUT_MS", DefaultQueueTimeout),
		PageWorkers:             getEnvAsInt("PAGE_WORKERS", DefaultPageWorkers),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 && f <= 1 {
			return f
		}
	}
	return fallback
}

func getEnvAsMillis(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}
