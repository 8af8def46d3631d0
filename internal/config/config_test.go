package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADINGCAL_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("GO_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REFRESH_SCHEDULE", "")
	t.Setenv("CACHE_ENABLED", "")
	t.Setenv("MAX_RANGE_DAYS", "")
	t.Setenv("PROFILES_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultRefreshSchedule, cfg.RefreshSchedule)
	assert.Equal(t, 36600, cfg.MaxRangeDays)
	assert.True(t, cfg.CacheEnabled)
	assert.Empty(t, cfg.ProfilesFile)
	assert.Equal(t, filepath.Join(dir, "data", "tradingcal.db"), cfg.DatabasePath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TRADINGCAL_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REFRESH_SCHEDULE", "0 0 * * * *")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("PROFILES_FILE", "/etc/tradingcal/exchanges.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0 0 * * * *", cfg.RefreshSchedule)
	assert.False(t, cfg.CacheEnabled)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "/etc/tradingcal/exchanges.yaml", cfg.ProfilesFile)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("TRADINGCAL_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "not-a-port")
	t.Setenv("CACHE_ENABLED", "maybe")
	t.Setenv("REFRESH_SCHEDULE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Port)
	assert.True(t, cfg.CacheEnabled)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DataDir:         "/tmp/tradingcal",
		RefreshSchedule: DefaultRefreshSchedule,
		Port:            8001,
		MaxRangeDays:    366,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"non-positive range", func(c *Config) { c.MaxRangeDays = 0 }},
		{"five field cron", func(c *Config) { c.RefreshSchedule = "*/15 * * * *" }},
		{"garbage cron", func(c *Config) { c.RefreshSchedule = "every now and then" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseSchedule_Descriptor(t *testing.T) {
	_, err := ParseSchedule("@hourly")
	assert.NoError(t, err)
}
