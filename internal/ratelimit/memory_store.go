// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/cache"
)

// MemoryStore keeps windows in a bounded LRU cache. Entries expire with
// their window so the cache never serves a stale counter.
type MemoryStore struct {
	windows *cache.LRUCache[State]
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryStore creates a store holding at most capacity keys. When full,
// the least recently used key is evicted, which resets its window.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 100000
	}
	return &MemoryStore{
		windows: cache.NewLRUCache[State](capacity, time.Hour),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	s.windows.SetClock(now)
}

func (s *MemoryStore) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

// Name implements Store.
func (s *MemoryStore) Name() string { return "memory" }

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (State, bool, error) {
	st, ok := s.windows.Get(key)
	if !ok || st.Expired(s.clock()) {
		return State{}, false, nil
	}
	return st, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key string, state State) error {
	state.Key = key
	ttl := state.ResetTime.Sub(s.clock())
	if ttl <= 0 {
		s.windows.Remove(key)
		return nil
	}
	s.windows.AddWithTTL(key, state, ttl)
	return nil
}

// Increment implements Store. The read-modify-write runs under the cache
// lock.
func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (State, error) {
	now := s.clock()
	st := s.windows.Upsert(key, func(cur State, exists bool) (State, time.Duration) {
		if !exists || cur.Expired(now) {
			cur = State{Key: key, Count: 0, ResetTime: now.Add(window)}
		}
		cur.Count++
		return cur, cur.ResetTime.Sub(now)
	})
	return st, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.windows.Remove(key)
	return nil
}

// Cleanup implements Store.
func (s *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	return s.windows.CleanupExpired(), nil
}

// Len returns the number of tracked keys, expired or not.
func (s *MemoryStore) Len() int {
	return s.windows.Len()
}
