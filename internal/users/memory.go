// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package users

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// MemoryStore keeps users in a map. Returned users are copies.
type MemoryStore struct {
	users map[string]*models.User
	now   func() time.Time
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*models.User),
		now:   time.Now,
	}
}

// GetUser implements Store.
func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return copyUser(u), nil
}

// CreateUser implements Store. Creating an existing ID is an error.
func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return &models.ValidationError{Field: "id", Reason: "user id is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	u := copyUser(user)
	if u.RegisteredAt.IsZero() {
		u.RegisteredAt = s.now().UTC()
	}
	s.users[user.ID] = u
	return nil
}

// UpdateUser implements Store.
func (s *MemoryStore) UpdateUser(ctx context.Context, id string, update models.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	applyUpdate(u, update)
	return nil
}

// BlockUser implements Store. Blocking an already blocked user keeps the
// original timestamp and refreshes the reason.
func (s *MemoryStore) BlockUser(ctx context.Context, id string, details models.BlockDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	if u.BlockedAt == nil {
		now := s.now().UTC()
		u.BlockedAt = &now
	}
	u.IsBlocked = true
	u.BlockReason = details.Reason
	u.BlockedBy = details.BlockedBy
	return nil
}

// IsUserBlocked implements Store. Unknown users are not blocked.
func (s *MemoryStore) IsUserBlocked(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	return ok && u.IsBlocked, nil
}

// GetUsersRegisteredRecently implements Store, newest first.
func (s *MemoryStore) GetUsersRegisteredRecently(ctx context.Context, window time.Duration) ([]*models.User, error) {
	cutoff := s.now().UTC().Add(-window)

	s.mu.RLock()
	var out []*models.User
	for _, u := range s.users {
		if !u.RegisteredAt.Before(cutoff) {
			out = append(out, copyUser(u))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	return out, nil
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.LastLocation != nil {
		loc := *u.LastLocation
		c.LastLocation = &loc
	}
	if u.BlockedAt != nil {
		t := *u.BlockedAt
		c.BlockedAt = &t
	}
	return &c
}
