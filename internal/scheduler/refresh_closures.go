package scheduler

import (
	"context"

	"github.com/rs/zerolog"
)

// ClosureReloader rebuilds the ad hoc calendar overlays from storage
type ClosureReloader interface {
	Reload() error
}

// RefreshClosuresJob re-reads ad hoc closures so rows written by other
// processes reach the exchange registry
type RefreshClosuresJob struct {
	log      zerolog.Logger
	reloader ClosureReloader
}

// NewRefreshClosuresJob creates a new RefreshClosuresJob
func NewRefreshClosuresJob(reloader ClosureReloader) *RefreshClosuresJob {
	return &RefreshClosuresJob{
		log:      zerolog.Nop(),
		reloader: reloader,
	}
}

// SetLogger sets the logger for the job
func (j *RefreshClosuresJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *RefreshClosuresJob) Name() string {
	return "refresh_closures"
}

// Run executes the refresh closures job
func (j *RefreshClosuresJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := j.reloader.Reload(); err != nil {
		j.log.Error().Err(err).Msg("Failed to reload ad hoc closures")
		return err
	}
	j.log.Debug().Msg("Ad hoc closures refreshed")
	return nil
}
