// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package ratelimit provides fixed-window admission control for the
sensitive actions of the platform.

A Limiter counts requests per (action, identifier) key in a Store. Three
stores are provided:

  - MemoryStore keeps counters in a bounded LRU cache. It is the fastest
    backend but counters are lost on restart and are not shared between
    processes.
  - MongoStore uses a single FindOneAndUpdate with a pipeline update, so the
    reset-or-increment decision happens atomically on the server.
  - RedisStore runs INCR and sets the key expiry only when the key has none.

External stores can be wrapped in a BreakerStore so a struggling backend is
skipped quickly instead of slowing every request.

Every store increments by exactly one per call, even under concurrent
callers sharing a key, and starts a new window once now >= ResetTime.

# Failure Policy

The limiter fails open. When the store returns an error the request is
allowed as if it were the first in a fresh window, a warning is logged and
salada_ratelimit_store_errors_total is incremented.

# Usage

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(100000), cfg.RateLimit)
	res, err := limiter.Check(ctx, ratelimit.ActionPointClaim, userID)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return errTooManyRequests(res.ResetTime)
	}
*/
package ratelimit
