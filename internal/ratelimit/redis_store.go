// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript adds one to KEYS[1] and sets its expiry to ARGV[1]
// milliseconds only when the key has none, so the first request of a window
// fixes the reset time. Returns {count, pttl}.
var incrementScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore keeps each window as a Redis counter with a TTL. Redis expires
// elapsed windows itself.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore wraps client. prefix is prepended to every key.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// Name implements Store.
func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (State, bool, error) {
	pipe := s.client.Pipeline()
	get := pipe.Get(ctx, s.key(key))
	pttl := pipe.PTTL(ctx, s.key(key))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return State{}, false, fmt.Errorf("get rate limit %s: %w", key, err)
	}

	count, err := get.Int64()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("get rate limit %s: %w", key, err)
	}
	ttl := pttl.Val()
	if ttl <= 0 {
		return State{}, false, nil
	}
	return State{Key: key, Count: count, ResetTime: s.now().Add(ttl)}, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, state State) error {
	ttl := state.ResetTime.Sub(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, key)
	}
	if err := s.client.Set(ctx, s.key(key), state.Count, ttl).Err(); err != nil {
		return fmt.Errorf("set rate limit %s: %w", key, err)
	}
	return nil
}

// Increment implements Store.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (State, error) {
	ms := window.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	vals, err := incrementScript.Run(ctx, s.client, []string{s.key(key)}, ms).Slice()
	if err != nil {
		return State{}, fmt.Errorf("increment rate limit %s: %w", key, err)
	}
	if len(vals) != 2 {
		return State{}, fmt.Errorf("increment rate limit %s: unexpected reply %v", key, vals)
	}
	count, ok1 := vals[0].(int64)
	ttl, ok2 := vals[1].(int64)
	if !ok1 || !ok2 {
		return State{}, fmt.Errorf("increment rate limit %s: unexpected reply %v", key, vals)
	}
	return State{
		Key:       key,
		Count:     count,
		ResetTime: s.now().Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete rate limit %s: %w", key, err)
	}
	return nil
}

// Cleanup implements Store. Redis expires keys natively.
func (s *RedisStore) Cleanup(ctx context.Context) (int, error) {
	return 0, nil
}
