// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package cache

import (
	"sync"
	"time"
)

// lruEntry is a node in the LRU list.
type lruEntry[V any] struct {
	key       string
	value     V
	prev      *lruEntry[V]
	next      *lruEntry[V]
	expiresAt time.Time
}

// LRUCache is a thread-safe least recently used cache with per-entry TTL.
//
// Key features:
//   - O(1) Get, Add, Upsert and Remove
//   - O(1) eviction of the least recently used entry at capacity
//   - Lazy expiration plus an explicit CleanupExpired sweep
//   - Injectable clock for deterministic tests
//
// Eviction only means the value must be recomputed or re-read. Callers never
// treat a miss as "no data exists".
type LRUCache[V any] struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*lruEntry[V]

	// head.next is the most recently used, tail.prev the least
	head *lruEntry[V]
	tail *lruEntry[V]

	hits      int64
	misses    int64
	evictions int64
}

// NewLRUCache creates a cache holding at most capacity entries, each living
// for ttl unless a per-entry TTL is given.
func NewLRUCache[V any](capacity int, ttl time.Duration) *LRUCache[V] {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c := &LRUCache[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*lruEntry[V], capacity),
		head:     &lruEntry[V]{},
		tail:     &lruEntry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// SetClock replaces the time source. Intended for tests.
func (c *LRUCache[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the value for key if present and unexpired, marking it as
// most recently used.
func (c *LRUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.moveToFront(entry)
	c.hits++
	return entry.value, true
}

// Contains checks for an unexpired key without updating access order.
func (c *LRUCache[V]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	return exists && c.now().Before(entry.expiresAt)
}

// Add inserts or replaces key using the cache default TTL.
func (c *LRUCache[V]) Add(key string, value V) {
	c.AddWithTTL(key, value, 0)
}

// AddWithTTL inserts or replaces key with an explicit TTL.
// A non-positive ttl falls back to the cache default.
func (c *LRUCache[V]) AddWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value, ttl)
}

// Upsert atomically reads and replaces the value for key. fn receives the
// current unexpired value (or the zero value with exists=false) and returns
// the new value and its TTL. The whole read-modify-write happens under the
// cache lock, so concurrent Upserts on the same key never lose updates.
func (c *LRUCache[V]) Upsert(key string, fn func(current V, exists bool) (V, time.Duration)) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	var current V
	entry, exists := c.lookup(key)
	if exists {
		current = entry.value
	}

	next, ttl := fn(current, exists)
	c.set(key, next, ttl)
	return next
}

// Remove deletes key. Returns true if it was present.
func (c *LRUCache[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.items[key]; exists {
		c.removeEntry(entry)
		return true
	}
	return false
}

// Len returns the number of entries, expired ones included until swept.
func (c *LRUCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *LRUCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*lruEntry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired removes all expired entries and returns how many were removed.
func (c *LRUCache[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0

	for entry := c.tail.prev; entry != c.head; {
		prev := entry.prev
		if !now.Before(entry.expiresAt) {
			c.removeEntry(entry)
			removed++
		}
		entry = prev
	}

	return removed
}

// Stats returns hit, miss and eviction counters and the current size.
func (c *LRUCache[V]) Stats() (hits, misses, evictions int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.evictions, len(c.items)
}

// lookup returns an unexpired entry, dropping it if expired. Lock held.
func (c *LRUCache[V]) lookup(key string) (*lruEntry[V], bool) {
	entry, exists := c.items[key]
	if !exists {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		c.removeEntry(entry)
		return nil, false
	}
	return entry, true
}

// set writes key with ttl and evicts over capacity. Lock held.
func (c *LRUCache[V]) set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	expiresAt := c.now().Add(ttl)

	if entry, exists := c.items[key]; exists {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return
	}

	entry := &lruEntry[V]{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

func (c *LRUCache[V]) addToFront(entry *lruEntry[V]) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRUCache[V]) moveToFront(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *LRUCache[V]) removeEntry(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}

func (c *LRUCache[V]) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
	c.evictions++
}

// DedupCache remembers keys for a TTL. Used to drop repeated job deliveries.
type DedupCache struct {
	lru *LRUCache[time.Time]
}

// NewDedupCache creates a dedup cache.
func NewDedupCache(capacity int, ttl time.Duration) *DedupCache {
	return &DedupCache{lru: NewLRUCache[time.Time](capacity, ttl)}
}

// IsDuplicate reports whether key was seen within the TTL and records it if not.
func (d *DedupCache) IsDuplicate(key string) bool {
	seen := true
	d.lru.Upsert(key, func(current time.Time, exists bool) (time.Time, time.Duration) {
		if exists {
			return current, 0
		}
		seen = false
		return d.lru.now(), 0
	})
	return seen
}

// Forget removes key so a later delivery is processed again.
func (d *DedupCache) Forget(key string) {
	d.lru.Remove(key)
}
