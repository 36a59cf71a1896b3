// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// QueueRunner is the verification queue as seen by the supervisor.
type QueueRunner interface {
	Run(ctx context.Context) error
	Close() error
}

// QueueService runs the background verification queue.
//
// A Watermill router cannot be started twice, so when Run fails the service
// stops the queue and asks suture not to restart it. Until the process is
// restarted, collision scans fall back to running inline.
type QueueService struct {
	queue QueueRunner
	name  string
}

// NewQueueService wraps queue.
func NewQueueService(queue QueueRunner) *QueueService {
	return &QueueService{queue: queue, name: "verification-queue"}
}

// Serve implements suture.Service.
func (s *QueueService) Serve(ctx context.Context) error {
	err := s.queue.Run(ctx)
	closeErr := s.queue.Close()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: verification queue stopped: %v", suture.ErrDoNotRestart, err)
	}
	return suture.ErrDoNotRestart
}

func (s *QueueService) String() string {
	return s.name
}
