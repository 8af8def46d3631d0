package di

import (
	"fmt"

	"github.com/aristath/tradingcal/internal/config"
	"github.com/aristath/tradingcal/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the closures database and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileDurable,
		Name:    "tradingcal",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tradingcal database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate tradingcal database: %w", err)
	}

	log.Info().Str("path", db.Path()).Msg("Database initialized")
	return &Container{DB: db}, nil
}
