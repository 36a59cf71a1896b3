// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package security is the single entry point most callers need. Engine runs
five weighted stages over a user and their device:

	multi-account    0.30  device collisions, shared IPs, referral abuse
	behavioral       0.25  mouse, keyboard and session automation
	device trust     0.20  collisions and spoofing indicators
	network          0.10  anonymizers and impossible travel
	threat patterns  0.15  catalog match over every raised indicator

A confirmed multi-account finding (confidence above 0.5) overrides the
weighted score: the user is rated critical with a permanent block.

AnalyzeUser only decides. The returned Analysis carries an enforcement
Plan which Enforce applies. AnalyzeAndEnforce does both, and with zero
tolerance enabled blocks the user the moment an exact device match is
found.

QuickSecurityCheck is a cheap read-only check for high-frequency call
sites.
*/
package security
