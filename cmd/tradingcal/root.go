package main

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/aristath/tradingcal/internal/config"
	"github.com/aristath/tradingcal/internal/di"
	"github.com/aristath/tradingcal/internal/modules/market_hours"
	"github.com/aristath/tradingcal/pkg/logger"
	"github.com/spf13/cobra"
)

var version = "dev"

// app holds the flags and the services shared by all subcommands
type app struct {
	profilesFile string
	dataDir      string
	output       string
	logLevel     string
	now          func() time.Time

	service   *market_hours.MarketHoursService
	container *di.Container
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	rootCmd := &cobra.Command{
		Use:   "tradingcal",
		Short: "Exchange trading calendars",
		Long: `tradingcal resolves exchange trading calendars: which dates an exchange
trades, its open and close on each date, its holidays and whether it is
open right now.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	// Flags
	rootCmd.PersistentFlags().StringVarP(&a.profilesFile, "profiles", "p", "", "YAML exchange definitions added to the built-in exchanges")
	rootCmd.PersistentFlags().StringVarP(&a.dataDir, "data-dir", "d", "", "Data directory of a tradingcal server; applies its stored ad hoc closures")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", outputText, "Output format: text, json or yaml")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	// Subcommands
	rootCmd.AddCommand(a.scheduleCmd())
	rootCmd.AddCommand(a.holidaysCmd())
	rootCmd.AddCommand(a.exchangesCmd())
	rootCmd.AddCommand(a.statusCmd())

	return rootCmd
}

// setup builds the calendar services. With a data directory the full
// container is wired so stored closures apply; otherwise only the exchange
// profiles are loaded.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	switch a.output {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unsupported output format %q", a.output)
	}

	log := logger.New(logger.Config{
		Level:  a.logLevel,
		Pretty: true,
		Output: cmd.ErrOrStderr(),
	})

	cfg := &config.Config{
		DataDir:         a.dataDir,
		ProfilesFile:    a.profilesFile,
		RefreshSchedule: config.DefaultRefreshSchedule,
		MaxRangeDays:    config.DefaultMaxRangeDays,
		CacheEnabled:    true,
	}

	if a.dataDir != "" {
		container, _, err := di.Wire(cfg, log)
		if err != nil {
			return err
		}
		a.container = container
		a.service = container.MarketHoursService
		return nil
	}

	container := &di.Container{}
	if err := di.InitializeCalendar(container, cfg, log); err != nil {
		return err
	}
	a.service = market_hours.NewMarketHoursService(container.Registry, container.Resolver, log)
	return nil
}

func (a *app) close() error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close()
	a.container = nil
	return err
}
