// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// DefaultRefreshSchedule reloads ad hoc closures every 15 minutes
const DefaultRefreshSchedule = "0 */15 * * * *"

// DefaultMaxRangeDays caps schedule requests at roughly a century
const DefaultMaxRangeDays = 36600

// Config holds application configuration
type Config struct {
	DataDir         string // Directory holding tradingcal.db (always absolute)
	ProfilesFile    string // Optional YAML exchange definitions replacing the built-in ones
	RefreshSchedule string // Cron spec with seconds field
	LogLevel        string
	Port            int
	MaxRangeDays    int // Largest schedule range served over HTTP
	CacheEnabled    bool
	DevMode         bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("TRADINGCAL_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		ProfilesFile:    getEnv("PROFILES_FILE", ""),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", DefaultRefreshSchedule),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnvAsInt("GO_PORT", 8001),
		MaxRangeDays:    getEnvAsInt("MAX_RANGE_DAYS", DefaultMaxRangeDays),
		CacheEnabled:    getEnvAsBool("CACHE_ENABLED", true),
		DevMode:         getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxRangeDays <= 0 {
		return fmt.Errorf("MAX_RANGE_DAYS must be positive, got %d", c.MaxRangeDays)
	}
	if _, err := ParseSchedule(c.RefreshSchedule); err != nil {
		return fmt.Errorf("invalid REFRESH_SCHEDULE %q: %w", c.RefreshSchedule, err)
	}
	return nil
}

// ParseSchedule parses a six-field cron spec (seconds first), as used by the scheduler
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(spec)
}

// DatabasePath returns the location of the ad hoc closures database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "tradingcal.db")
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
