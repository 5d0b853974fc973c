// Package cron runs the retention sweep that removes aged terminal tasks
// from the in-process scheduler on a cron schedule.
package cron

import (
	"fmt"
	"log/slog"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/praaatap/vibeedit-backend/internal/task"
)

// Sweeper owns a single cron entry that calls Scheduler.Cleanup with the
// configured retention age.
type Sweeper struct {
	runner   *cronlib.Cron
	logger   *slog.Logger
	schedule string
	maxAge   time.Duration
}

// NewSweeper validates the cron expression and registers the sweep job.
// The expression uses the standard 5-field format, e.g. "*/15 * * * *".
func NewSweeper(schedule string, maxAge time.Duration, scheduler *task.Scheduler, logger *slog.Logger) (*Sweeper, error) {
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive, got %s", maxAge)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "retention_sweeper"))

	runner := cronlib.New()
	s := &Sweeper{
		runner:   runner,
		logger:   logger,
		schedule: schedule,
		maxAge:   maxAge,
	}

	if _, err := runner.AddFunc(schedule, func() {
		removed := scheduler.Cleanup(maxAge)
		s.logger.Info("retention sweep completed",
			"removed", removed,
			"max_age", maxAge.String())
	}); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start begins firing the sweep on its schedule in a background goroutine.
func (s *Sweeper) Start() {
	s.runner.Start()
	s.logger.Info("retention sweeper started",
		"schedule", s.schedule,
		"max_age", s.maxAge.String())
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	<-s.runner.Stop().Done()
	s.logger.Info("retention sweeper stopped")
}
