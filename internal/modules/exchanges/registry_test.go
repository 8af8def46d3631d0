package exchanges

import (
	"errors"
	"testing"
	"time"

	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/golang-sql/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuiltinRegistry(t *testing.T) *Registry {
	t.Helper()
	profiles, err := Builtin()
	require.NoError(t, err)
	registry, err := NewRegistry(profiles...)
	require.NoError(t, err)
	return registry
}

func TestRegistry_Lookup(t *testing.T) {
	registry := newBuiltinRegistry(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"XSTO", "XSTO"},
		{"xsto", "XSTO"},
		{"STO", "XSTO"},
		{"stockholm", "XSTO"},
		{" Copenhagen ", "XCSE"},
		{"CSE", "XCSE"},
		{"HEL", "XHEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := registry.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.Code())
		})
	}

	_, err := registry.Lookup("XNYS")
	assert.True(t, errors.Is(err, ErrUnknownExchange))

	assert.Equal(t, []string{"XCSE", "XHEL", "XSTO"}, registry.Codes())
	assert.Len(t, registry.Profiles(), 3)
}

func TestNewRegistry_DuplicateNames(t *testing.T) {
	a, err := Copenhagen()
	require.NoError(t, err)
	b, err := Copenhagen()
	require.NoError(t, err)

	_, err = NewRegistry(a, b)
	assert.Error(t, err)

	_, err = NewRegistry(nil)
	assert.Error(t, err)
}

func TestRegistry_ApplyOverlays(t *testing.T) {
	registry := newBuiltinRegistry(t)
	resolver := calendar.NewResolver(nil, zerolog.Nop())
	storm := civil.Date{Year: 2024, Month: time.April, Day: 24}

	skipped := registry.ApplyOverlays(map[string]calendar.AdHocOverlay{
		"cse": {Closures: calendar.NewDateSet(storm)},
	})
	assert.Empty(t, skipped)

	cse, err := registry.Lookup("XCSE")
	require.NoError(t, err)
	assert.False(t, resolver.IsTradingDay(cse, storm))

	sto, err := registry.Lookup("XSTO")
	require.NoError(t, err)
	assert.True(t, resolver.IsTradingDay(sto, storm))

	// A reload without the closure reverts to the base profile
	assert.Empty(t, registry.ApplyOverlays(nil))
	cse, err = registry.Lookup("XCSE")
	require.NoError(t, err)
	assert.True(t, resolver.IsTradingDay(cse, storm))
}

func TestRegistry_ApplyOverlaysSkipsBadEntries(t *testing.T) {
	registry := newBuiltinRegistry(t)
	resolver := calendar.NewResolver(nil, zerolog.Nop())
	storm := civil.Date{Year: 2024, Month: time.April, Day: 24}
	evening, err := calendar.NewRuleSetBuilder("evening").AdHoc("Evening start", []civil.Date{storm}).Build()
	require.NoError(t, err)

	skipped := registry.ApplyOverlays(map[string]calendar.AdHocOverlay{
		"XNYS": {Closures: calendar.NewDateSet(storm)},
		"XHEL": {Opens: []calendar.SessionOverride{{Time: civil.Time{Hour: 20}, Rules: evening}}},
		"XCSE": {Closures: calendar.NewDateSet(storm)},
	})
	require.Len(t, skipped, 2)
	assert.True(t, errors.Is(skipped["XNYS"], ErrUnknownExchange))
	var cfgErr *calendar.ConfigurationError
	assert.True(t, errors.As(skipped["XHEL"], &cfgErr))

	// The valid overlay is still applied
	cse, err := registry.Lookup("XCSE")
	require.NoError(t, err)
	assert.False(t, resolver.IsTradingDay(cse, storm))

	hel, err := registry.Lookup("XHEL")
	require.NoError(t, err)
	session, ok := resolver.SessionOn(hel, storm)
	require.True(t, ok)
	assert.False(t, session.SpecialOpen)
}

func TestRegistry_Policy(t *testing.T) {
	registry := newBuiltinRegistry(t)

	policy, err := registry.Policy("XSTO")
	require.NoError(t, err)
	assert.False(t, policy.StrictHours)

	require.NoError(t, registry.SetPolicy("sto", Policy{StrictHours: true}))
	policy, err = registry.Policy("Stockholm")
	require.NoError(t, err)
	assert.True(t, policy.StrictHours)

	assert.True(t, errors.Is(registry.SetPolicy("XNYS", Policy{}), ErrUnknownExchange))
	_, err = registry.Policy("XNYS")
	assert.True(t, errors.Is(err, ErrUnknownExchange))
}

func TestRegistry_ConcurrentReload(t *testing.T) {
	registry := newBuiltinRegistry(t)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = registry.ApplyOverlays(map[string]calendar.AdHocOverlay{
				"XHEL": {Closures: calendar.NewDateSet(civil.Date{Year: 2024, Month: time.March, Day: 1 + i%28})},
			})
		}
	}()

	for i := 0; i < 100; i++ {
		p, err := registry.Lookup("HEL")
		require.NoError(t, err)
		require.NotNil(t, p)
	}
	<-done
}
