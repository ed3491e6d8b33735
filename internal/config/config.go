// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for databases (defaults to "./data", always absolute)
	ConstraintsFile   string // Optional constraint set file; default set when empty
	LogLevel          string
	LogPretty         bool
	Port              int
	DevMode           bool
	EvaluationWorkers int    // Concurrent Estimate calls per period
	LookupPolicy      string // "abort" or "skip"
}

// HistoryDBPath returns the path of the history database
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CONSTRAINTS_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		ConstraintsFile:   getEnv("CONSTRAINTS_FILE", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", true),
		Port:              getEnvAsInt("GO_PORT", 8002),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		EvaluationWorkers: getEnvAsInt("EVALUATION_WORKERS", 1),
		LookupPolicy:      strings.ToLower(getEnv("LOOKUP_POLICY", "abort")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration values
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.EvaluationWorkers < 1 {
		return fmt.Errorf("EVALUATION_WORKERS must be at least 1, got %d", c.EvaluationWorkers)
	}
	switch c.LookupPolicy {
	case "abort", "skip":
	default:
		return fmt.Errorf("LOOKUP_POLICY must be abort or skip, got %q", c.LookupPolicy)
	}
	if c.ConstraintsFile != "" {
		if _, err := os.Stat(c.ConstraintsFile); err != nil {
			return fmt.Errorf("CONSTRAINTS_FILE: %w", err)
		}
	}
	return nil
}

// Helper functions
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
