package app

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	// =========================== REQUIRED ===========================

	// Database configuration (required)
	DSN *string
	// Redis configuration (required)
	RedisAddr *string
	// API secret guarding endpoints that spend the server key (required)
	APISecret *string

	// =========================== OPTIONAL ===========================

	// Owner key signing recovery setup operations. Generated and kept in
	// Redis when unset.
	PrivateKey *string

	// Network registry file
	NetworksFile *string

	// Logging configuration
	LogLevel *string

	// HTTP server configuration
	Port *string
	Host *string

	// Deployment environment: dev, staging or prod
	Environment *string

	// CORS configuration
	AllowOrigins *[]string

	// Receipt polling configuration
	PollingInterval *time.Duration

	// Migration configuration
	MigrationPath *string

	// Redis key prefix
	RedisPrefix *string
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{}

	loadRequiredConfig(config)
	loadOptionalConfig(config)

	return config
}

// IsDev reports whether the service runs in a development environment
func (c *AppConfig) IsDev() bool {
	return *c.Environment == "dev" || *c.Environment == "development"
}

// loadRequiredConfig loads all required configuration values and fails fast if any are missing
func loadRequiredConfig(config *AppConfig) {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatalf("REQUIRED: DB_URL not set in environment")
	}
	config.DSN = &dsn

	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		log.Fatalf("REQUIRED: REDIS_URL not set in environment")
	}
	config.RedisAddr = &redisAddr

	apiSecret := os.Getenv("API_SECRET")
	if apiSecret == "" {
		log.Fatalf("REQUIRED: API_SECRET not set in environment")
	}
	config.APISecret = &apiSecret

	environment := getEnvWithDefault("ENVIRONMENT", "dev")
	config.Environment = &environment

	// CORS origins (required in production, optional in development)
	loadCORSConfig(config)
}

// loadOptionalConfig loads all optional configuration values with sensible defaults
func loadOptionalConfig(config *AppConfig) {
	privateKey := os.Getenv("PRIVATE_KEY")
	config.PrivateKey = &privateKey

	networksFile := getEnvWithDefault("NETWORKS_FILE", "config/networks.yaml")
	config.NetworksFile = &networksFile

	port := getEnvWithDefault("PORT", "8080")
	config.Port = &port

	host := getEnvWithDefault("HOST", "localhost:"+port)
	config.Host = &host

	// Available levels: "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"
	logLevel := getEnvWithDefault("LOG_LEVEL", "debug")
	config.LogLevel = &logLevel

	pollingInterval := getPollingInterval()
	config.PollingInterval = &pollingInterval

	migrationPath := getEnvWithDefault("MIGRATION_PATH", "file://migrations")
	config.MigrationPath = &migrationPath

	redisPrefix := getEnvWithDefault("REDIS_PREFIX", "recovery")
	config.RedisPrefix = &redisPrefix
}

// loadCORSConfig handles CORS origins configuration with environment-specific behavior
func loadCORSConfig(config *AppConfig) {
	var allowOrigins []string

	if allowOriginsStr := os.Getenv("ALLOW_ORIGINS"); allowOriginsStr != "" {
		for _, origin := range strings.Split(allowOriginsStr, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowOrigins = append(allowOrigins, origin)
			}
		}
	} else if config.IsDev() {
		allowOrigins = []string{"http://localhost:5173"}
	} else {
		log.Fatalf("REQUIRED: ALLOW_ORIGINS not set in environment (required in production)")
	}

	config.AllowOrigins = &allowOrigins
}

// getPollingInterval parses the receipt polling interval in seconds
func getPollingInterval() time.Duration {
	const defaultInterval = 15 * time.Second

	pollingIntervalStr := os.Getenv("POLLING_INTERVAL")
	if pollingIntervalStr == "" {
		return defaultInterval
	}

	if parsed, err := strconv.Atoi(pollingIntervalStr); err == nil && parsed > 0 {
		return time.Duration(parsed) * time.Second
	}

	log.Printf("Warning: Invalid POLLING_INTERVAL value '%s', using default %s", pollingIntervalStr, defaultInterval)
	return defaultInterval
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
