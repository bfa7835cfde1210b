package pipeline

import (
	"context"
	"time"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
)

// Scheduler polls an event source on a fixed interval and submits what it
// gets to a runner. A failed tick is logged and the next tick proceeds.
type Scheduler struct {
	src      interfaces.EventSource
	runner   *Runner
	interval time.Duration
	batch    int
}

func NewScheduler(src interfaces.EventSource, runner *Runner, interval time.Duration, batch int) *Scheduler {
	if batch < 1 {
		batch = 1
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Scheduler{src: src, runner: runner, interval: interval, batch: batch}
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	logger.Info(ctx, "Scheduler started", "interval", s.interval.String(), "batch", s.batch)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Scheduler stopped")
			return
		case <-tick.C:
			if _, err := s.Tick(ctx); err != nil {
				logger.ErrorWithErr(ctx, "Scheduler tick failed", err)
			}
		}
	}
}

// Tick fetches one batch and submits it. It returns how many events were
// submitted.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	events, err := s.src.Fetch(ctx, s.batch)
	submitted := 0
	for _, ev := range events {
		if serr := s.runner.Submit(ctx, ev); serr != nil {
			return submitted, serr
		}
		submitted++
	}
	return submitted, err
}
