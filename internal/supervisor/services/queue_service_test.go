// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*QueueService)(nil)

type fakeQueue struct {
	mu       sync.Mutex
	runErr   error
	closeErr error
	closed   int
}

func (f *fakeQueue) Run(ctx context.Context) error {
	f.mu.Lock()
	err := f.runErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (f *fakeQueue) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return f.closeErr
}

func (f *fakeQueue) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestQueueService_StopsOnCancel(t *testing.T) {
	q := &fakeQueue{}
	svc := NewQueueService(q)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if q.closeCount() != 1 {
		t.Errorf("queue closed %d times, want 1", q.closeCount())
	}
}

func TestQueueService_RunFailureIsNotRestarted(t *testing.T) {
	runErr := errors.New("router: handler already registered")
	q := &fakeQueue{runErr: runErr}

	err := NewQueueService(q).Serve(context.Background())
	if !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("expected ErrDoNotRestart, got %v", err)
	}
	if q.closeCount() != 1 {
		t.Errorf("queue closed %d times, want 1", q.closeCount())
	}
}

func TestQueueService_String(t *testing.T) {
	if got := NewQueueService(&fakeQueue{}).String(); got != "verification-queue" {
		t.Errorf("String() = %q", got)
	}
}
