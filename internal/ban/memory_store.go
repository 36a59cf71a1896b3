// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package ban

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	bans map[string]*BannedDevice
	mu   sync.Mutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bans: make(map[string]*BannedDevice)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, hash string) (*BannedDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bans[hash]
	if !ok {
		return nil, fmt.Errorf("ban %s: %w", hash, models.ErrNotFound)
	}
	return b.clone(), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, ban *BannedDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans[ban.DeviceHash] = ban.clone()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.bans[hash]
	delete(s.bans, hash)
	return ok, nil
}

// List implements Store, oldest ban first.
func (s *MemoryStore) List(ctx context.Context) ([]*BannedDevice, error) {
	s.mu.Lock()
	out := make([]*BannedDevice, 0, len(s.bans))
	for _, b := range s.bans {
		out = append(out, b.clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].BannedAt.Before(out[j].BannedAt)
	})
	return out, nil
}

// Update implements Store under the store lock.
func (s *MemoryStore) Update(ctx context.Context, hash string, fn UpdateFunc) (*BannedDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *BannedDevice
	if b, ok := s.bans[hash]; ok {
		current = b.clone()
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		delete(s.bans, hash)
		return nil, nil
	}
	s.bans[hash] = next.clone()
	return next.clone(), nil
}
