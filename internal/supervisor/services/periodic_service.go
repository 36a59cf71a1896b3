// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package services

import (
	"context"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
)

// TaskFunc is one run of a housekeeping task. It returns how many items it
// removed or refreshed.
type TaskFunc func(ctx context.Context) (int, error)

// PeriodicService runs a housekeeping task on a fixed interval: expired
// bans, elapsed rate-limit windows, old audit entries and stale threat
// cache entries.
//
// A failing run is logged and counted; it does not stop the service, since
// the next tick is the retry.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     TaskFunc
	timeout  time.Duration
}

// NewPeriodicService creates a service running task every interval. Each
// run is bounded by the interval itself.
func NewPeriodicService(name string, interval time.Duration, task TaskFunc) *PeriodicService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &PeriodicService{
		name:     name,
		interval: interval,
		task:     task,
		timeout:  interval,
	}
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs the task immediately.
func (s *PeriodicService) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.task(runCtx)
	if err != nil {
		metrics.RecordJob(s.name, "failed")
		logging.Warn().Err(err).Str("task", s.name).Msg("Housekeeping task failed")
		return
	}

	metrics.RecordJob(s.name, "processed")
	if n > 0 {
		logging.Info().
			Str("task", s.name).
			Int("items", n).
			Dur("duration", time.Since(start)).
			Msg("Housekeeping task completed")
	}
}

func (s *PeriodicService) String() string {
	return s.name
}
