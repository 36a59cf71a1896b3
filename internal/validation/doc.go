// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

// Package validation wraps go-playground/validator v10 with a shared
// instance and translates failures into *models.ValidationError.
//
// Beyond the built-in tags it registers:
//   - resolution: a screen size in WIDTHxHEIGHT form (x, X, × or * separators)
//   - devicehash: a lower-case 64-character hex SHA-256 digest
//
// Error field names come from json tags, so a bad screen size on a signal
// bundle is reported as "hardware.screen_resolution".
package validation
