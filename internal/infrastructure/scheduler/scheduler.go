package scheduler

import (
	"context"
	"fmt"
	"time"

	"villa-portal-service/pkg/logger"
	"villa-portal-service/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// Job is a named periodic task
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs jobs on cron schedules in the property timezone.
// A run still in progress when its next tick fires is skipped.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	timeout time.Duration
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewScheduler creates a scheduler; each run gets a context derived from ctx bounded by timeout
func NewScheduler(ctx context.Context, location *time.Location, timeout time.Duration, metrics *metrics.Metrics, logger logger.Logger) *Scheduler {
	cronLogger := cronLogAdapter{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		ctx:     ctx,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// Add registers job; an invalid spec is an error
func (s *Scheduler) Add(job Job) error {
	if _, err := s.cron.AddFunc(job.Spec, s.wrap(job)); err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", job.Name, job.Spec, err)
	}
	s.logger.Info("Scheduled job", "job", job.Name, "spec", job.Spec)
	return nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops new runs and waits for running ones until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) wrap(job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.metrics.ErrorsCount.WithLabelValues("job_" + job.Name).Inc()
			s.logger.Error("Scheduled job failed", "job", job.Name, "error", err)
			return
		}
		s.logger.Debug("Scheduled job finished", "job", job.Name, "duration", time.Since(start).String())
	}
}

// cronLogAdapter routes cron's own logging into logger.Logger
type cronLogAdapter struct {
	logger logger.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}
