// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

// Package services adapts engine components to suture.Service.
//
//   - HTTPServerService wraps an *http.Server with graceful shutdown.
//   - QueueService runs the verification job queue.
//   - PeriodicService runs a housekeeping task on a fixed interval.
package services
