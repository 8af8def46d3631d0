package di

import (
	"fmt"

	"github.com/aristath/tradingcal/internal/config"
	"github.com/aristath/tradingcal/internal/scheduler"
	"github.com/rs/zerolog"
)

// checkDatabaseSchedule runs the integrity check daily at 03:00
const checkDatabaseSchedule = "0 0 3 * * *"

// RegisterJobs creates the background jobs and schedules them. The
// scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		RefreshClosures: scheduler.NewRefreshClosuresJob(container.ClosureService),
		CheckDatabase:   scheduler.NewCheckDatabaseJob(container.DB),
	}
	jobs.RefreshClosures.SetLogger(log.With().Str("job", jobs.RefreshClosures.Name()).Logger())
	jobs.CheckDatabase.SetLogger(log.With().Str("job", jobs.CheckDatabase.Name()).Logger())

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.RefreshSchedule, jobs.RefreshClosures); err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", jobs.RefreshClosures.Name(), err)
	}
	if err := sched.AddJob(checkDatabaseSchedule, jobs.CheckDatabase); err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", jobs.CheckDatabase.Name(), err)
	}
	container.Scheduler = sched

	return jobs, nil
}
