// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// TouchUpdate is applied when a known (hash, user) pair is seen again.
type TouchUpdate struct {
	SeenAt      time.Time
	RiskScore   float64
	RiskFactors []models.RiskFactor
	Quality     Quality
	Network     NetworkSignals
	Behavioral  BehavioralSignals
}

// Store persists fingerprints, one record per (hash, user) pair.
// Lookups of a single record return models.ErrNotFound (wrapped) when
// absent.
type Store interface {
	Save(ctx context.Context, fp *DeviceFingerprint) error
	Get(ctx context.Context, hash, userID string) (*DeviceFingerprint, error)
	FindByHash(ctx context.Context, hash string) ([]*DeviceFingerprint, error)
	FindByUser(ctx context.Context, userID string) ([]*DeviceFingerprint, error)
	All(ctx context.Context) ([]*DeviceFingerprint, error)
	// Recent returns fingerprints seen in the last days days.
	Recent(ctx context.Context, days int) ([]*DeviceFingerprint, error)
	Count(ctx context.Context) (int64, error)
	// Touch bumps LastSeenAt and UsageCount, refreshes the volatile groups
	// and appends a seen event.
	Touch(ctx context.Context, hash, userID string, update TouchUpdate) (*DeviceFingerprint, error)
	// RecordCollision merges similar into SimilarDevices with set
	// semantics, sets CollisionCount to the resulting size and returns how
	// many entries were new.
	RecordCollision(ctx context.Context, hash, userID string, similar []string) (int, error)
	AppendVerification(ctx context.Context, hash, userID string, event VerificationEvent) error
	// MarkBlocked flags every record with hash and returns how many changed.
	MarkBlocked(ctx context.Context, hash string) (int, error)
}

// RawScanner is implemented by stores that can read records leniently
// when the typed query path fails. It backs the degraded collision scan.
type RawScanner interface {
	ScanRaw(ctx context.Context, limit int) ([]*DeviceFingerprint, error)
}

// MemoryStore implements Store in memory.
type MemoryStore struct {
	records map[string]*DeviceFingerprint
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*DeviceFingerprint),
		now:     time.Now,
	}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, fp *DeviceFingerprint) error {
	c := fp.clone()
	if c.ID == "" {
		c.ID = RecordID(c.Hash, c.UserID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[c.ID] = c
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, hash, userID string) (*DeviceFingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fp, ok := s.records[RecordID(hash, userID)]
	if !ok {
		return nil, fmt.Errorf("fingerprint %s: %w", RecordID(hash, userID), models.ErrNotFound)
	}
	return fp.clone(), nil
}

func (s *MemoryStore) filter(keep func(*DeviceFingerprint) bool) []*DeviceFingerprint {
	s.mu.RLock()
	out := make([]*DeviceFingerprint, 0)
	for _, fp := range s.records {
		if keep(fp) {
			out = append(out, fp.clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastSeenAt.Equal(out[j].LastSeenAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastSeenAt.After(out[j].LastSeenAt)
	})
	return out
}

// FindByHash implements Store.
func (s *MemoryStore) FindByHash(ctx context.Context, hash string) ([]*DeviceFingerprint, error) {
	return s.filter(func(fp *DeviceFingerprint) bool { return fp.Hash == hash }), nil
}

// FindByUser implements Store.
func (s *MemoryStore) FindByUser(ctx context.Context, userID string) ([]*DeviceFingerprint, error) {
	return s.filter(func(fp *DeviceFingerprint) bool { return fp.UserID == userID }), nil
}

// All implements Store.
func (s *MemoryStore) All(ctx context.Context) ([]*DeviceFingerprint, error) {
	return s.filter(func(*DeviceFingerprint) bool { return true }), nil
}

// Recent implements Store.
func (s *MemoryStore) Recent(ctx context.Context, days int) ([]*DeviceFingerprint, error) {
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.filter(func(fp *DeviceFingerprint) bool { return !fp.LastSeenAt.Before(cutoff) }), nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *MemoryStore) mutate(hash, userID string, fn func(*DeviceFingerprint)) (*DeviceFingerprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, ok := s.records[RecordID(hash, userID)]
	if !ok {
		return nil, fmt.Errorf("fingerprint %s: %w", RecordID(hash, userID), models.ErrNotFound)
	}
	fn(fp)
	return fp.clone(), nil
}

// Touch implements Store.
func (s *MemoryStore) Touch(ctx context.Context, hash, userID string, update TouchUpdate) (*DeviceFingerprint, error) {
	return s.mutate(hash, userID, func(fp *DeviceFingerprint) {
		fp.LastSeenAt = update.SeenAt
		fp.UsageCount++
		fp.RiskScore = update.RiskScore
		fp.Quality = update.Quality
		fp.Components.Network = update.Network
		fp.Components.Behavioral = update.Behavioral
		fp.Metadata.RiskFactors = append(fp.Metadata.RiskFactors, update.RiskFactors...)
		fp.Metadata.VerificationHistory = append(fp.Metadata.VerificationHistory,
			VerificationEvent{Type: EventSeen, Timestamp: update.SeenAt})
	})
}

// RecordCollision implements Store.
func (s *MemoryStore) RecordCollision(ctx context.Context, hash, userID string, similar []string) (int, error) {
	added := 0
	_, err := s.mutate(hash, userID, func(fp *DeviceFingerprint) {
		before := len(fp.Metadata.SimilarDevices)
		fp.Metadata.SimilarDevices = unionStrings(fp.Metadata.SimilarDevices, similar)
		fp.Metadata.CollisionCount = len(fp.Metadata.SimilarDevices)
		added = fp.Metadata.CollisionCount - before
	})
	return added, err
}

// AppendVerification implements Store.
func (s *MemoryStore) AppendVerification(ctx context.Context, hash, userID string, event VerificationEvent) error {
	_, err := s.mutate(hash, userID, func(fp *DeviceFingerprint) {
		fp.Metadata.VerificationHistory = append(fp.Metadata.VerificationHistory, event)
	})
	return err
}

// MarkBlocked implements Store.
func (s *MemoryStore) MarkBlocked(ctx context.Context, hash string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	now := s.now().UTC()
	for _, fp := range s.records {
		if fp.Hash != hash || fp.IsBlocked {
			continue
		}
		fp.IsBlocked = true
		fp.Metadata.VerificationHistory = append(fp.Metadata.VerificationHistory,
			VerificationEvent{Type: EventBlocked, Timestamp: now})
		changed++
	}
	return changed, nil
}

// unionStrings appends the members of b missing from a, keeping order.
func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range b {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
