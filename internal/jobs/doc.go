// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

// Package jobs runs background verification work on an in-process Watermill
// router.
//
// Fuzzy collision scans over a large fingerprint population are too slow for
// the request path. The fingerprint service hands them to a Queue, which
// publishes them on a Go channel pub/sub and processes them with retries.
// Delivery is at least once. Scan messages are keyed by device hash and user,
// so redeliveries within the dedup TTL are dropped, and the scan itself is
// idempotent.
//
// Messages that still fail after all retries go to a poison topic where they
// are logged, counted and released from the dedup cache so a later request
// can schedule the scan again.
package jobs
