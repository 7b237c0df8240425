// Package scheduler triggers refreshes on an interval and on demand.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/jwulff/nightscout-go/internal/logger"
)

// Job is one refresh run.
type Job func(ctx context.Context)

// Scheduler runs a job every interval and whenever Trigger is called.
// Runs may overlap; the job is expected to order its own results.
type Scheduler struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	job       Job
	log       *logger.Logger
	wg        sync.WaitGroup
}

// New creates a new Scheduler.
func New(interval time.Duration, job Job, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		job:       job,
		log:       log,
	}
}

// Start schedules the periodic job, runs it once immediately and starts
// the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: invalid interval %s", s.interval)
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.run("interval")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started", logger.Duration("interval", s.interval))
	return nil
}

// Trigger runs the job now without waiting for it, e.g. after a wake event.
func (s *Scheduler) Trigger(reason string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(reason)
	}()
}

func (s *Scheduler) run(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
	defer cancel()

	s.log.Debug("scheduler: running refresh", logger.String("reason", reason))
	s.job(ctx)
}

// timeout bounds a run so a hung request cannot outlive the next tick by much.
func (s *Scheduler) timeout() time.Duration {
	if s.interval < 30*time.Second {
		return 30 * time.Second
	}
	return s.interval
}

// Stop stops the scheduler and waits for triggered runs to finish.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.wg.Wait()
}
