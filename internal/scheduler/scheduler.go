// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultJobTimeout bounds a single scheduled run
const DefaultJobTimeout = 5 * time.Minute

// Job is a unit of background work. Run must return once ctx is done.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler triggers jobs on cron schedules. Overlapping runs of the same
// entry are skipped and panics are recovered and logged. Every run gets a
// context that is canceled by Stop or when the job timeout elapses.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	log     zerolog.Logger
}

// New creates a new scheduler. Schedules take a leading seconds field.
func New(log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:     ctx,
		cancel:  cancel,
		timeout: DefaultJobTimeout,
		log:     log,
	}
}

// SetJobTimeout changes the per-run timeout. Call it before Start.
func (s *Scheduler) SetJobTimeout(d time.Duration) {
	s.timeout = d
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Dur("job_timeout", s.timeout).Msg("Scheduler started")
}

// Stop cancels running jobs and waits for them to return. The scheduler
// cannot be restarted afterwards.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers job under a cron schedule, for example
// "0 */15 * * * *", "@hourly" or "@every 30s".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	id, err := s.cron.AddJob(schedule, cron.FuncJob(func() { s.run(job) }))
	if err != nil {
		return fmt.Errorf("schedule %q for %s: %w", schedule, job.Name(), err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Int("entry", int(id)).
		Msg("Job registered")
	return nil
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// run executes one scheduled run. Errors are logged, not returned.
func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	event := s.log.Debug()
	msg := "Job completed"
	if err != nil {
		event = s.log.Error().Err(err)
		msg = "Job failed"
	}
	event.Str("job", job.Name()).Dur("took", time.Since(start)).Msg(msg)
}

// RunNow executes a job immediately, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run(ctx)
}

// cronLogger routes cron's own logging into zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	withPairs(l.log.Debug(), keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	withPairs(l.log.Error().Err(err), keysAndValues).Msg(msg)
}

func withPairs(e *zerolog.Event, keysAndValues []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		e = e.Interface(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	return e
}
