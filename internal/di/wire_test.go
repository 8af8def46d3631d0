package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/tradingcal/internal/config"
	"github.com/aristath/tradingcal/internal/modules/closures"
	"github.com/aristath/tradingcal/internal/modules/exchanges"
	"github.com/golang-sql/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:         t.TempDir(),
		RefreshSchedule: config.DefaultRefreshSchedule,
		MaxRangeDays:    config.DefaultMaxRangeDays,
		CacheEnabled:    true,
		Port:            8001,
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.DB)
	assert.NotNil(t, container.Cache)
	assert.NotNil(t, container.Resolver)
	assert.Equal(t, []string{"XCSE", "XHEL", "XSTO"}, container.Registry.Codes())
	assert.NotNil(t, container.ClosureService)
	assert.NotNil(t, container.MarketHoursService)
	require.NotNil(t, container.Scheduler)
	assert.Equal(t, 2, container.Scheduler.Jobs())

	assert.FileExists(t, filepath.Join(cfg.DataDir, "tradingcal.db"))
	assert.Len(t, jobs.ByName(), 2)
	assert.NoError(t, jobs.CheckDatabase.Run(context.Background()))
}

func TestWire_CacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheEnabled = false

	container, _, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })
	assert.Nil(t, container.Cache)
}

func TestWire_InvalidRefreshSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.RefreshSchedule = "whenever"

	_, _, err := Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire_LoadsStoredClosures(t *testing.T) {
	cfg := testConfig(t)

	first, _, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	_, err = first.ClosureService.Create(closures.CreateRequest{
		Exchange: "XHEL",
		Date:     "2024-01-17",
		Kind:     closures.KindClosed,
	})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// A fresh process sees the stored closure
	second, _, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	hel, err := second.Registry.Lookup("XHEL")
	require.NoError(t, err)
	assert.False(t, second.Resolver.IsTradingDay(hel, civil.Date{Year: 2024, Month: time.January, Day: 17}))
}

func TestLoadProfiles(t *testing.T) {
	cfg := testConfig(t)
	cfg.ProfilesFile = filepath.Join(t.TempDir(), "exchanges.yaml")
	require.NoError(t, os.WriteFile(cfg.ProfilesFile, []byte(`
exchanges:
  - code: XHEL
    name: Helsinki (custom)
    aliases: [HEL]
    timezone: Europe/Helsinki
    open: "10:00"
    close: "18:25"
    strict_hours: true
  - code: XICE
    name: Nasdaq Iceland
    aliases: [ICE]
    timezone: Atlantic/Reykjavik
    open: "09:30"
    close: "15:30"
    holidays:
      - {name: Christmas Day, month: 12, day: 25}
`), 0o644))

	profiles, policies, err := LoadProfiles(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, profiles, 4)
	assert.Equal(t, exchanges.Policy{StrictHours: true}, policies["XHEL"])
	assert.Equal(t, exchanges.Policy{}, policies["XICE"])

	byCode := make(map[string]string, len(profiles))
	for _, p := range profiles {
		byCode[p.Code()] = p.Name()
	}
	assert.Equal(t, "Helsinki (custom)", byCode["XHEL"])
	assert.Equal(t, "Nasdaq Iceland", byCode["XICE"])
	assert.Equal(t, "Nasdaq Stockholm", byCode["XSTO"])

	cfg.ProfilesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = LoadProfiles(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire_AppliesStrictHoursPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.ProfilesFile = filepath.Join(t.TempDir(), "exchanges.yaml")
	require.NoError(t, os.WriteFile(cfg.ProfilesFile, []byte(`
exchanges:
  - code: XSTO
    name: Nasdaq Stockholm
    timezone: Europe/Stockholm
    open: "09:00"
    close: "17:30"
    strict_hours: true
`), 0o644))

	container, _, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.True(t, container.MarketHoursService.RequiresStrictMarketHours("XSTO"))
	assert.False(t, container.MarketHoursService.RequiresStrictMarketHours("XCSE"))
}
