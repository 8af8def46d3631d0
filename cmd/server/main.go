// Package main is the entry point for the tradingcal HTTP service.
// It serves exchange trading calendars and market status, stores ad hoc
// closures in SQLite and reloads them on a cron schedule.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aristath/tradingcal/internal/config"
	"github.com/aristath/tradingcal/internal/di"
	"github.com/aristath/tradingcal/internal/server"
	"github.com/aristath/tradingcal/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	if version := os.Getenv("VERSION"); version != "" {
		server.Version = version
	}
	log.Info().Str("version", server.Version).Msg("Starting tradingcal")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:         log,
		DB:          container.DB,
		Config:      cfg,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		MarketHours: container.MarketHoursService,
		Closures:    container.ClosureService,
		Cache:       container.Cache,
	})
	srv.SetJobs(jobs.ByName())

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	container.Scheduler.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	container.Scheduler.Stop()

	// Give in-flight requests up to 10 seconds
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
