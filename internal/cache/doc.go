// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package cache provides the in-memory data structures the fraud engine keeps
hot state in.

# Components

  - LRUCache[V]: generic LRU with per-entry TTL and an atomic Upsert. Backs
    the in-memory rate-limit store and the threat analysis cache.
  - DedupCache: TTL set used to drop redelivered background jobs.
  - SlidingWindowStore: per-key event counters over a sliding window, used by
    the real-time monitor to spot rapid-fire events.
  - UniqueValueStore: distinct values per key over a window (accounts per IP).
  - AhoCorasick and UserAgentDetector: single-pass multi-pattern matching of
    user agents against automation, headless and HTTP-client signatures.

# Semantics

Every cache here is lossy. An evicted or expired entry must be recomputed or
re-read from its store; callers never treat a miss as proof that no data
exists.

# Thread Safety

All types are safe for concurrent use.
*/
package cache
