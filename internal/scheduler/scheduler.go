// Package scheduler wires up the cron job that periodically runs the full
// pipeline for every configured query.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RunFunc executes one full cycle across all configured queries.
type RunFunc func(ctx context.Context)

// Scheduler wraps robfig/cron and manages the periodic pipeline loop.
type Scheduler struct {
	cron   *cron.Cron
	run    RunFunc
	spec   string // cron spec, e.g. "@every 6h"
	logger *slog.Logger
}

// New creates a Scheduler that fires every interval.
func New(run RunFunc, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		run:    run,
		spec:   fmt.Sprintf("@every %s", interval),
		logger: logger,
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so the store is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)

	// Run immediately on startup (non-blocking).
	go s.run(ctx)

	return nil
}

// Stop shuts down the scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
}
