package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Task is a unit of maintenance work.
type Task func(ctx context.Context) error

// Scheduler runs a maintenance task on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	name    string
	task    Task
	timeout time.Duration
}

// NewScheduler creates a scheduler for task. spec accepts the standard five
// field format and descriptors such as @daily.
func NewScheduler(spec, name string, task Task) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		name:    name,
		task:    task,
		timeout: 5 * time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the scheduler in its own goroutine.
func (s *Scheduler) Run() {
	log.Info().Str("task", s.name).Msg("Starting maintenance scheduler...")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Str("task", s.name).Msg("Stopped maintenance scheduler.")
}

// Next reports when the task will fire next, or the zero time if not started.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce executes the task immediately.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.task(ctx); err != nil {
		log.Error().Err(err).Str("task", s.name).Msg("Maintenance task failed")
		return
	}
	log.Info().Str("task", s.name).Dur("took", time.Since(start)).Msg("Maintenance task completed")
}
