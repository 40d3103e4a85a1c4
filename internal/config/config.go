package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	API        APIConfig
	Gateway    GatewayConfig
	Dispatcher DispatcherConfig
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration (campaign locks)
type RedisConfig struct {
	URL string
}

// APIConfig holds API server configuration
type APIConfig struct {
	Port int

	// Shared secret required on the trigger endpoint.
	TriggerSecret string
}

// GatewayConfig holds WhatsApp gateway configuration
type GatewayConfig struct {
	BaseURL string
	APIKey  string

	// Country code prefixed to phone numbers that lack one.
	CountryCode string
}

// DispatcherConfig holds batch dispatcher configuration
type DispatcherConfig struct {
	// Maximum delivery records processed per RunBatch invocation.
	BatchSize int

	// Seconds between dispatcher ticks.
	TickSeconds int

	// TTL in seconds for the per-campaign advisory lock. Must comfortably
	// exceed the longest possible batch (batch size * max send delay).
	LockTTLSeconds int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	apiPort, err := strconv.Atoi(getEnv("API_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_PORT: %w", err)
	}

	batchSize, err := strconv.Atoi(getEnv("DISPATCH_BATCH_SIZE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_BATCH_SIZE: %w", err)
	}

	tickSeconds, err := strconv.Atoi(getEnv("DISPATCH_TICK_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_TICK_SECONDS: %w", err)
	}

	lockTTL, err := strconv.Atoi(getEnv("DISPATCH_LOCK_TTL_SECONDS", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_LOCK_TTL_SECONDS: %w", err)
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "campaign_engine"),
			Password: getEnv("DB_PASSWORD", "campaign_engine"),
			DBName:   getEnv("DB_NAME", "campaign_engine"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		API: APIConfig{
			Port:          apiPort,
			TriggerSecret: getEnv("TRIGGER_SECRET", ""),
		},
		Gateway: GatewayConfig{
			BaseURL:     getEnv("GATEWAY_BASE_URL", "http://localhost:8081"),
			APIKey:      getEnv("GATEWAY_API_KEY", ""),
			CountryCode: getEnv("GATEWAY_COUNTRY_CODE", "55"),
		},
		Dispatcher: DispatcherConfig{
			BatchSize:      batchSize,
			TickSeconds:    tickSeconds,
			LockTTLSeconds: lockTTL,
		},
	}, nil
}

// DSN returns the database connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
