// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

// Package audit stores the append-only security log.
//
// The engines write through the Sink interface: compact analysis records,
// device bans and unbans, appeals and user blocks. The same records back the
// rate-of-violation query used by the quick security check (how many
// high/critical analyses a user produced in the last day).
//
// Backends:
//
//   - MemoryStore: bounded slice, oldest 10% trimmed on overflow
//   - DuckDBStore: durable table with indexes on user, device and time
//
// Logger wraps a Store with a buffered channel so callers on the request
// path never wait on disk. A full buffer drops the entry, logs a warning and
// increments salada_audit_events_dropped_total. Cleanup enforces retention
// and is run periodically by the supervisor.
package audit
