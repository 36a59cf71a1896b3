// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

// Package metrics defines the Prometheus collectors for the fraud engine.
//
// Collectors are registered on the default registry through promauto and
// exposed by the HTTP server at /metrics. Label values are bounded enums
// (threat levels, actions, outcomes); user IDs and device hashes are never
// used as labels.
package metrics
