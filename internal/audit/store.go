// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// MemoryStore implements Store using in-memory storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	entries []Entry
	mu      sync.RWMutex
	maxLen  int
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		entries: make([]Entry, 0, 64),
		maxLen:  maxLen,
	}
}

// Save persists an entry.
func (s *MemoryStore) Save(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Enforce max length by removing the oldest 10%
	if len(s.entries) >= s.maxLen {
		removeCount := s.maxLen / 10
		if removeCount == 0 {
			removeCount = 1
		}
		s.entries = append(s.entries[:0:0], s.entries[removeCount:]...)
	}

	s.entries = append(s.entries, *entry)
	return nil
}

// SaveSecurityAuditLog implements Sink.
func (s *MemoryStore) SaveSecurityAuditLog(ctx context.Context, entry *Entry) error {
	prepareEntry(entry)
	return s.Save(ctx, entry)
}

// Get retrieves an entry by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			entry := s.entries[i]
			return &entry, nil
		}
	}
	return nil, fmt.Errorf("audit entry %s: %w", id, models.ErrNotFound)
}

// Query returns matching entries newest first.
func (s *MemoryStore) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Entry
	skipped := 0
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := &s.entries[i]
		if !matchesFilter(entry, &filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		results = append(results, *entry)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

// Count returns the number of entries matching the filter.
func (s *MemoryStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for i := range s.entries {
		if matchesFilter(&s.entries[i], &filter) {
			count++
		}
	}
	return count, nil
}

// Delete removes entries older than the given time.
func (s *MemoryStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	var deleted int64
	for idx := range s.entries {
		if s.entries[idx].Timestamp.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, s.entries[idx])
	}
	s.entries = kept
	return deleted, nil
}

// Len returns the number of entries in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetStats returns statistics for the memory store.
func (s *MemoryStore) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		TotalEntries:      int64(len(s.entries)),
		EntriesByType:     make(map[string]int64),
		EntriesBySeverity: make(map[string]int64),
	}
	for idx := range s.entries {
		entry := &s.entries[idx]
		stats.EntriesByType[string(entry.Type)]++
		stats.EntriesBySeverity[string(entry.Severity)]++

		if stats.OldestEntry == nil || entry.Timestamp.Before(*stats.OldestEntry) {
			t := entry.Timestamp
			stats.OldestEntry = &t
		}
		if stats.NewestEntry == nil || entry.Timestamp.After(*stats.NewestEntry) {
			t := entry.Timestamp
			stats.NewestEntry = &t
		}
	}
	return stats, nil
}

func matchesFilter(entry *Entry, filter *QueryFilter) bool {
	if len(filter.Types) > 0 && !contains(filter.Types, entry.Type) {
		return false
	}
	if len(filter.Severities) > 0 && !contains(filter.Severities, entry.Severity) {
		return false
	}
	if filter.UserID != "" && entry.UserID != filter.UserID {
		return false
	}
	if filter.DeviceHash != "" && entry.DeviceHash != filter.DeviceHash {
		return false
	}
	if filter.StartTime != nil && entry.Timestamp.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && entry.Timestamp.After(*filter.EndTime) {
		return false
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
