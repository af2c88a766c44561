package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingBrokerURL is returned when a consumer process starts without a
// broker connection string.
var ErrMissingBrokerURL = errors.New("RABBITMQ_URL is not set")

// Config holds all configuration for the application.
type Config struct {
	// API
	APIPort string

	// Parts service
	PartsServiceURL string
	PartsTimeout    time.Duration

	// RabbitMQ
	RabbitMQURL string

	// Redis (optional, enables consumer dedupe)
	RedisAddr string
	DedupeTTL time.Duration

	// Consumer metrics listener, empty disables it
	MetricsAddr string

	LogLevel string
}

// Load reads configuration from a .env file (if present) and environment
// variables with sensible defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: could not load .env: %v", err)
	}

	return &Config{
		APIPort:         getEnv("API_PORT", "8080"),
		PartsServiceURL: getEnv("PARTS_SERVICE_URL", getEnv("SERVICE_A_BASE_URL", "http://localhost:8001")),
		PartsTimeout:    getDuration("PARTS_TIMEOUT", 3*time.Second),
		RabbitMQURL:     getEnv("RABBITMQ_URL", os.Getenv("RABBIT_URL")),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		DedupeTTL:       getDuration("DEDUPE_TTL", 24*time.Hour),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

// RequireBroker reports a fatal configuration error when no broker URL is set.
// Consumer processes call it before any connection attempt.
func (c *Config) RequireBroker() error {
	if c.RabbitMQURL == "" {
		return ErrMissingBrokerURL
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("config: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
