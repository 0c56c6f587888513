package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	GoCardlessSecretID  string // Optional: provider secret ID (bank endpoints fail without it)
	GoCardlessSecretKey string // Optional: provider secret key
	GoCardlessBaseURL   string // Optional: provider base URL override (default: production API)

	MongoURI       string        // Optional: MongoDB connection string (default: in-memory store)
	MongoDatabase  string        // Optional: MongoDB database name (default: banksync)
	RedisAddr      string        // Optional: Redis address for the institutions cache (empty disables caching)
	InstitutionTTL time.Duration // Optional: institutions cache TTL (default: 6h)

	DefaultCountry      string        // Optional: country for institution lookups (default: ES)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		GoCardlessSecretID:  os.Getenv("GOCARDLESS_SECRET_ID"),
		GoCardlessSecretKey: os.Getenv("GOCARDLESS_SECRET_KEY"),
		GoCardlessBaseURL:   os.Getenv("GOCARDLESS_BASE_URL"), // Optional override, mainly for sandboxes

		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDatabase:  getEnvOrDefault("MONGO_DATABASE", "banksync"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		InstitutionTTL: getEnvDurationOrDefault("INSTITUTIONS_CACHE_TTL", 6*time.Hour),

		DefaultCountry:      getEnvOrDefault("DEFAULT_COUNTRY", "ES"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
