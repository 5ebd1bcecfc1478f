package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-location-api/internal/logger"
)

// OrphanCounter counts weather records no location references.
type OrphanCounter interface {
	CountOrphanWeather(ctx context.Context) (int64, error)
}

// Scheduler periodically audits orphan weather records. It only reads and reports;
// nothing is reclaimed.
type Scheduler struct {
	scheduler *gocron.Scheduler
	counter   OrphanCounter
	interval  time.Duration
	timeout   time.Duration
	log       logger.Logger

	last atomic.Int64
}

// New creates a new Scheduler. An interval of zero disables the job.
func New(counter OrphanCounter, interval time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		counter:   counter,
		interval:  interval,
		timeout:   30 * time.Second,
		log:       log.WithField("component", "orphan_audit"),
	}
}

// Start schedules the audit job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("orphan audit disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Errorf("orphan audit failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Infof("orphan audit scheduled every %s", s.interval)
	return nil
}

// RunOnce performs a single audit and records the result.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.counter.CountOrphanWeather(ctx)
	if err != nil {
		return 0, err
	}
	s.last.Store(n)

	if n > 0 {
		s.log.Warnf("%d weather records are not referenced by any location", n)
	} else {
		s.log.Debug("no orphan weather records")
	}
	return n, nil
}

// LastCount returns the orphan count seen by the most recent audit.
func (s *Scheduler) LastCount() int64 {
	return s.last.Load()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
