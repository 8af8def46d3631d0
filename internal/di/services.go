package di

import (
	"fmt"

	"github.com/aristath/tradingcal/internal/config"
	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/aristath/tradingcal/internal/modules/closures"
	"github.com/aristath/tradingcal/internal/modules/exchanges"
	"github.com/aristath/tradingcal/internal/modules/market_hours"
	"github.com/rs/zerolog"
)

// LoadProfiles returns the built-in exchange profiles merged with the
// definitions in cfg.ProfilesFile, together with the order-handling policies
// declared there. A file entry replaces the built-in profile with the same
// code.
func LoadProfiles(cfg *config.Config, log zerolog.Logger) ([]*calendar.Profile, map[string]exchanges.Policy, error) {
	profiles, err := exchanges.Builtin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build built-in profiles: %w", err)
	}
	if cfg.ProfilesFile == "" {
		return profiles, nil, nil
	}

	doc, err := exchanges.LoadFile(cfg.ProfilesFile)
	if err != nil {
		return nil, nil, err
	}
	loaded, err := doc.Profiles()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", cfg.ProfilesFile, err)
	}

	index := make(map[string]int, len(profiles))
	for i, p := range profiles {
		index[p.Code()] = i
	}
	for _, p := range loaded {
		if i, ok := index[p.Code()]; ok {
			log.Info().Str("exchange", p.Code()).Msg("Exchange definition replaces built-in profile")
			profiles[i] = p
			continue
		}
		index[p.Code()] = len(profiles)
		profiles = append(profiles, p)
	}

	log.Info().
		Str("file", cfg.ProfilesFile).
		Int("definitions", len(loaded)).
		Msg("Exchange definitions loaded")
	return profiles, doc.Policies(), nil
}

// InitializeCalendar builds the registry, cache and resolver
func InitializeCalendar(container *Container, cfg *config.Config, log zerolog.Logger) error {
	profiles, policies, err := LoadProfiles(cfg, log)
	if err != nil {
		return err
	}

	registry, err := exchanges.NewRegistry(profiles...)
	if err != nil {
		return fmt.Errorf("failed to build exchange registry: %w", err)
	}
	for code, policy := range policies {
		if err := registry.SetPolicy(code, policy); err != nil {
			return fmt.Errorf("failed to set policy of %s: %w", code, err)
		}
	}
	container.Registry = registry

	if cfg.CacheEnabled {
		container.Cache = calendar.NewCache(0)
	}
	container.Resolver = calendar.NewResolver(container.Cache, log)

	log.Info().
		Strs("exchanges", registry.Codes()).
		Bool("cache", cfg.CacheEnabled).
		Msg("Calendar engine initialized")
	return nil
}

// InitializeServices creates the repositories and services and loads the
// stored ad hoc closures into the registry
func InitializeServices(container *Container, log zerolog.Logger) error {
	container.ClosureRepo = closures.NewRepository(container.DB.Conn(), log)
	container.ClosureService = closures.NewService(container.ClosureRepo, container.Registry, log)
	container.MarketHoursService = market_hours.NewMarketHoursService(container.Registry, container.Resolver, log)

	if err := container.ClosureService.Reload(); err != nil {
		return fmt.Errorf("failed to load ad hoc closures: %w", err)
	}
	return nil
}
