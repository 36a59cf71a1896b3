// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package ratelimit

import (
	"context"
	"time"
)

// State is one fixed window counter.
type State struct {
	Key       string    `json:"key" bson:"_id"`
	Count     int64     `json:"count" bson:"count"`
	ResetTime time.Time `json:"reset_time" bson:"resetTime"`
}

// Expired reports whether the window of s has elapsed at now.
func (s State) Expired(now time.Time) bool {
	return !now.Before(s.ResetTime)
}

// Store persists window counters.
//
// Increment must be atomic per key: concurrent callers never observe the
// same post-increment count, and a new window with Count 1 starts once the
// previous ResetTime has passed.
type Store interface {
	// Get returns the current state for key. The second result is false when
	// no unexpired window exists.
	Get(ctx context.Context, key string) (State, bool, error)

	// Set overwrites the state for key.
	Set(ctx context.Context, key string, state State) error

	// Increment adds one to the counter for key and returns the new state.
	Increment(ctx context.Context, key string, window time.Duration) (State, error)

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired windows and returns how many were removed.
	// Stores that expire keys natively return 0.
	Cleanup(ctx context.Context) (int, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}

// Config describes one limit.
type Config struct {
	MaxRequests int
	Window      time.Duration

	// KeyGenerator builds the store key. Defaults to the identifier itself.
	KeyGenerator func(identifier string) string

	// SkipIf exempts identifiers from the limit entirely.
	SkipIf func(identifier string) bool

	// OnLimitReached is called once for every denied check.
	OnLimitReached func(identifier string, result Result)
}

// Result is the outcome of a limit check.
type Result struct {
	Allowed   bool      `json:"allowed"`
	ResetTime time.Time `json:"reset_time"`
	Remaining int       `json:"remaining"`
	Total     int       `json:"total"`
	Skipped   bool      `json:"skipped,omitempty"`
	FailOpen  bool      `json:"fail_open,omitempty"`
}
