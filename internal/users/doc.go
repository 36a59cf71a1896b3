// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

// Package users provides the user store the fraud engines read and block
// through. The account record itself is owned by the host application; the
// engine only updates risk, location and block state.
package users
