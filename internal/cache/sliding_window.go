// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package cache

import (
	"sync"
	"time"
)

// SlidingWindowCounter counts events over a sliding window split into buckets.
//
// Complexity:
//   - Increment: O(1)
//   - Count: O(k) where k = number of buckets
//   - Memory: O(k) per counter
type SlidingWindowCounter struct {
	mu         sync.Mutex
	buckets    []int64
	bucketSize time.Duration
	numBuckets int
	current    int
	lastUpdate time.Time
	now        func() time.Time
}

// NewSlidingWindowCounter creates a counter whose window is divided into
// numBuckets buckets. NewSlidingWindowCounter(time.Minute, 6) tracks the last
// minute at ten-second resolution.
func NewSlidingWindowCounter(windowSize time.Duration, numBuckets int) *SlidingWindowCounter {
	return newSlidingWindowCounter(windowSize, numBuckets, time.Now)
}

func newSlidingWindowCounter(windowSize time.Duration, numBuckets int, now func() time.Time) *SlidingWindowCounter {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	if windowSize <= 0 {
		windowSize = 5 * time.Minute
	}
	bucketSize := windowSize / time.Duration(numBuckets)
	if bucketSize <= 0 {
		bucketSize = time.Millisecond
	}

	return &SlidingWindowCounter{
		buckets:    make([]int64, numBuckets),
		bucketSize: bucketSize,
		numBuckets: numBuckets,
		lastUpdate: now(),
		now:        now,
	}
}

// Increment adds delta to the current bucket and returns the window total.
func (sw *SlidingWindowCounter) Increment(delta int64) int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance()
	sw.buckets[sw.current] += delta
	return sw.sum()
}

// Count returns the sum of all buckets in the window.
func (sw *SlidingWindowCounter) Count() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance()
	return sw.sum()
}

func (sw *SlidingWindowCounter) sum() int64 {
	var total int64
	for _, count := range sw.buckets {
		total += count
	}
	return total
}

// advance rotates the ring for elapsed buckets. Lock held.
func (sw *SlidingWindowCounter) advance() {
	now := sw.now()
	elapsed := int(now.Sub(sw.lastUpdate) / sw.bucketSize)
	if elapsed <= 0 {
		return
	}

	if elapsed >= sw.numBuckets {
		for i := range sw.buckets {
			sw.buckets[i] = 0
		}
		sw.current = 0
	} else {
		for i := 0; i < elapsed; i++ {
			sw.current = (sw.current + 1) % sw.numBuckets
			sw.buckets[sw.current] = 0
		}
	}

	// Keep lastUpdate aligned to bucket boundaries so partial buckets are not lost.
	sw.lastUpdate = sw.lastUpdate.Add(time.Duration(elapsed) * sw.bucketSize)
}

// SlidingWindowStore keeps one SlidingWindowCounter per key, for per-user
// event rates.
//
//	store := NewSlidingWindowStore(time.Minute, 6, 100000)
//	n := store.Increment("user:123")
type SlidingWindowStore struct {
	mu         sync.RWMutex
	counters   map[string]*SlidingWindowCounter
	windowSize time.Duration
	numBuckets int
	maxKeys    int // 0 = unlimited
	now        func() time.Time
}

// NewSlidingWindowStore creates a store for sliding window counters.
func NewSlidingWindowStore(windowSize time.Duration, numBuckets, maxKeys int) *SlidingWindowStore {
	return &SlidingWindowStore{
		counters:   make(map[string]*SlidingWindowCounter),
		windowSize: windowSize,
		numBuckets: numBuckets,
		maxKeys:    maxKeys,
		now:        time.Now,
	}
}

// SetClock replaces the time source for counters created afterwards.
func (s *SlidingWindowStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Increment adds one event for key and returns the count within the window.
func (s *SlidingWindowStore) Increment(key string) int64 {
	return s.IncrementBy(key, 1)
}

// IncrementBy adds delta events for key and returns the count within the window.
func (s *SlidingWindowStore) IncrementBy(key string, delta int64) int64 {
	s.mu.Lock()
	counter, exists := s.counters[key]
	if !exists {
		if s.maxKeys > 0 && len(s.counters) >= s.maxKeys {
			s.evictOne()
		}
		counter = newSlidingWindowCounter(s.windowSize, s.numBuckets, s.now)
		s.counters[key] = counter
	}
	s.mu.Unlock()

	return counter.Increment(delta)
}

// Count returns the count for key within the window.
func (s *SlidingWindowStore) Count(key string) int64 {
	s.mu.RLock()
	counter, exists := s.counters[key]
	s.mu.RUnlock()

	if !exists {
		return 0
	}
	return counter.Count()
}

// Remove drops the counter for key.
func (s *SlidingWindowStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
}

// Len returns the number of tracked keys.
func (s *SlidingWindowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counters)
}

// CleanupInactive removes counters with no events in the window.
func (s *SlidingWindowStore) CleanupInactive() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, counter := range s.counters {
		if counter.Count() == 0 {
			delete(s.counters, key)
			removed++
		}
	}
	return removed
}

// evictOne drops an arbitrary counter at capacity. Lock held.
func (s *SlidingWindowStore) evictOne() {
	for key := range s.counters {
		delete(s.counters, key)
		return
	}
}

// UniqueValueStore tracks distinct values per key within a window, such as
// the accounts seen from one IP address. Values expire individually.
type UniqueValueStore struct {
	mu      sync.Mutex
	window  time.Duration
	maxKeys int
	values  map[string]map[string]time.Time
	now     func() time.Time
}

// NewUniqueValueStore creates a distinct-value tracker.
func NewUniqueValueStore(window time.Duration, maxKeys int) *UniqueValueStore {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &UniqueValueStore{
		window:  window,
		maxKeys: maxKeys,
		values:  make(map[string]map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *UniqueValueStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Add records value under key and returns the distinct count in the window.
func (s *UniqueValueStore) Add(key, value string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.values[key]
	if !exists {
		if s.maxKeys > 0 && len(s.values) >= s.maxKeys {
			for k := range s.values {
				delete(s.values, k)
				break
			}
		}
		set = make(map[string]time.Time)
		s.values[key] = set
	}
	set[value] = s.now()
	return s.pruneLocked(set)
}

// CountUnique returns the distinct count for key within the window.
func (s *UniqueValueStore) CountUnique(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.values[key]
	if !exists {
		return 0
	}
	return s.pruneLocked(set)
}

// CleanupInactive removes keys whose values have all expired.
func (s *UniqueValueStore) CleanupInactive() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, set := range s.values {
		if s.pruneLocked(set) == 0 {
			delete(s.values, key)
			removed++
		}
	}
	return removed
}

func (s *UniqueValueStore) pruneLocked(set map[string]time.Time) int {
	cutoff := s.now().Add(-s.window)
	for v, seen := range set {
		if seen.Before(cutoff) {
			delete(set, v)
		}
	}
	return len(set)
}
