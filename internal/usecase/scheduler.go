package usecase

import (
	"context"
	"time"

	"MarketBriefing/internal/ports"
)

// RunFunc produces one briefing for the trigger time.
type RunFunc func(ctx context.Context, trigger time.Time) error

// Scheduler wires the cron driver with the briefing run.
type Scheduler struct {
	driver ports.Scheduler
	run    RunFunc
	onErr  func(error)
}

// NewScheduler returns a helper to start/stop recurring briefings. onErr may be nil.
func NewScheduler(driver ports.Scheduler, run RunFunc, onErr func(error)) *Scheduler {
	return &Scheduler{driver: driver, run: run, onErr: onErr}
}

// Start registers the run with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.run == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if ctx.Err() != nil {
			return
		}
		if err := s.run(ctx, trigger); err != nil && s.onErr != nil {
			s.onErr(err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
