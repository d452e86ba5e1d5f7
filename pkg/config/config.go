package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Analysis AnalysisConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AnalysisConfig holds analysis thresholds and tuning knobs
type AnalysisConfig struct {
	// MinComparables is the minimum number of matching records a
	// (phrase, finder) combination must yield to be accepted
	MinComparables int

	// SeverityStdDevs is the number of standard deviations away from the
	// comparable-set mean at which a proposed price is flagged severe
	SeverityStdDevs float64

	// MinCooccurrence is the minimum pairwise co-occurrence for broadened
	// sub-phrases to be considered coherent
	MinCooccurrence int

	// MinDocumentFrequency restricts the vocabulary to terms appearing in
	// at least this many corpus records
	MinDocumentFrequency int

	// PoolSize is the number of workers analyzing batch rows concurrently
	PoolSize int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "labor_rates"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Analysis: AnalysisConfig{
			MinComparables:       getEnvAsInt("ANALYSIS_MIN_COMPARABLES", 30),
			SeverityStdDevs:      getEnvAsFloat("ANALYSIS_SEVERITY_STDDEVS", 2),
			MinCooccurrence:      getEnvAsInt("ANALYSIS_MIN_COOCCURRENCE", 10),
			MinDocumentFrequency: getEnvAsInt("ANALYSIS_MIN_DOCUMENT_FREQUENCY", 5),
			PoolSize:             getEnvAsInt("ANALYSIS_POOL_SIZE", runtime.NumCPU()),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
