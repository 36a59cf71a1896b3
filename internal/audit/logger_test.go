// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
)

// blockingStore blocks Save until released.
type blockingStore struct {
	*MemoryStore
	release chan struct{}
	mu      sync.Mutex
	saves   int
}

func (b *blockingStore) Save(ctx context.Context, entry *Entry) error {
	<-b.release
	b.mu.Lock()
	b.saves++
	b.mu.Unlock()
	return b.MemoryStore.Save(ctx, entry)
}

type failingStore struct {
	*MemoryStore
}

func (f *failingStore) Save(ctx context.Context, entry *Entry) error {
	return errors.New("disk full")
}

func TestLogger_WritesAndFlushesOnClose(t *testing.T) {
	store := NewMemoryStore(100)
	logger := NewLogger(store, Config{BufferSize: 16})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := logger.SaveSecurityAuditLog(ctx, &Entry{Type: TypeSecurityAnalysis, UserID: "u1"}); err != nil {
			t.Fatalf("SaveSecurityAuditLog() error = %v", err)
		}
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	count, err := logger.Count(ctx, QueryFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 5 {
		t.Errorf("Count() = %d, want 5", count)
	}

	// Close is idempotent.
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestLogger_DropsWhenFull(t *testing.T) {
	store := &blockingStore{MemoryStore: NewMemoryStore(100), release: make(chan struct{})}
	logger := NewLogger(store, Config{BufferSize: 1})

	before := testutil.ToFloat64(metrics.AuditEventsDropped)

	ctx := context.Background()
	// One entry may be held by the writer, one sits in the buffer; the
	// rest must be dropped without blocking.
	for i := 0; i < 10; i++ {
		if err := logger.SaveSecurityAuditLog(ctx, &Entry{Type: TypeSecurityAnalysis}); err != nil {
			t.Fatalf("SaveSecurityAuditLog() error = %v", err)
		}
	}

	dropped := testutil.ToFloat64(metrics.AuditEventsDropped) - before
	if dropped < 8 {
		t.Errorf("dropped = %v, want at least 8", dropped)
	}

	close(store.release)
	_ = logger.Close()
}

func TestLogger_CancelledContext(t *testing.T) {
	logger := NewLogger(NewMemoryStore(10), Config{})
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := logger.SaveSecurityAuditLog(ctx, &Entry{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLogger_StoreFailureIsLogged(t *testing.T) {
	logger := NewLogger(&failingStore{MemoryStore: NewMemoryStore(10)}, Config{})
	if err := logger.SaveSecurityAuditLog(context.Background(), &Entry{}); err != nil {
		t.Fatalf("SaveSecurityAuditLog() error = %v", err)
	}
	// Close must not hang or panic on write failures.
	_ = logger.Close()
}

func TestLogger_Cleanup(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	_ = store.Save(ctx, &Entry{ID: "old", Timestamp: time.Now().UTC().Add(-48 * time.Hour)})
	_ = store.Save(ctx, &Entry{ID: "new", Timestamp: time.Now().UTC()})

	logger := NewLogger(store, Config{Retention: 24 * time.Hour})
	defer logger.Close()

	deleted, err := logger.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := logger.Get(ctx, "new"); err != nil {
		t.Errorf("Get(new) error = %v", err)
	}
}
