// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

// Package database opens the engine's backing databases.
//
// DuckDB holds the security audit log. MongoDB is the shared document store
// for users, device fingerprints and rate-limit windows when those stores are
// configured as "mongo". Each store package owns its own collection schema
// and indexes; this package only dials, pings and hands out handles.
package database
