// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package logging provides the zerolog-based logger used across the engine.

# Quick Start

	logging.Init(logging.Config{Level: "info", Format: "json"})

	logging.Info().Msg("Server starting")
	logging.Error().Err(err).Msg("Ban store unavailable")

	ctx = logging.ContextWithNewCorrelationID(ctx)
	ctx = logging.ContextWithUserID(ctx, userID)
	logging.Ctx(ctx).Info().Str("stage", "multi_account").Msg("Stage complete")

# Security Events

SecurityLogger writes fraud events (device bans, collisions, blocks, limiter
store failures) with sanitized identifiers:

	sec := logging.NewSecurityLogger()
	sec.LogDeviceBanned(hash, "system", "multi_account", 3, true)

Device hashes are reduced to HashPrefix (12 characters). Salts, tokens and raw
canvas or audio fingerprints are masked by SanitizeValue.

# slog Bridge

NewSlogLogger returns an *slog.Logger that writes through zerolog. The
supervisor tree and the Watermill router take it so that library logs share
the process format.

Always terminate event chains with Msg or Send, otherwise nothing is written.
*/
package logging
