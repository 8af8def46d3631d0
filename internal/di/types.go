// Package di wires databases, repositories, services and jobs into a
// single Container.
package di

import (
	"github.com/aristath/tradingcal/internal/database"
	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/aristath/tradingcal/internal/modules/closures"
	"github.com/aristath/tradingcal/internal/modules/exchanges"
	"github.com/aristath/tradingcal/internal/modules/market_hours"
	"github.com/aristath/tradingcal/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	DB *database.DB

	// Calendar engine
	Cache    *calendar.Cache // nil when caching is disabled
	Resolver *calendar.Resolver
	Registry *exchanges.Registry

	// Services
	ClosureRepo        *closures.Repository
	ClosureService     *closures.Service
	MarketHoursService *market_hours.MarketHoursService

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered background jobs
type JobInstances struct {
	RefreshClosures *scheduler.RefreshClosuresJob
	CheckDatabase   *scheduler.CheckDatabaseJob
}

// ByName returns the jobs keyed by job name
func (j *JobInstances) ByName() map[string]scheduler.Job {
	return map[string]scheduler.Job{
		j.RefreshClosures.Name(): j.RefreshClosures,
		j.CheckDatabase.Name():   j.CheckDatabase,
	}
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
