// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package fingerprint turns raw device-signal bundles into stable device
identities and finds accounts that share a device.

# Hashing

A bundle has five groups. Only hardware, browser and rendering feed the
hash; network and behavioral signals vary between sessions. Before
hashing, Normalize sorts and lower-cases lists, puts the larger screen
side first and folds timezone spellings onto UTC±HH:MM (IANA names are
kept). The hash is the hex SHA-256 of the canonical JSON of the three
groups followed by the configured salt, so capture order never changes it.

# Comparison

CompareFingerprints is a flat exact-match table. PerformAdvancedComparison
weighs six critical components (canvas, WebGL, screen, user agent, core
count, memory) and five secondary ones, using edit-distance ratios where a
value drifts between releases.

# Collision checks

CheckDeviceCollision always runs the exact-hash lookup. Populations above
Config.AsyncScanThreshold have their fuzzy scan queued through an Enqueuer;
RunCollisionScan is the job body and is idempotent. When the store cannot be
read the check falls back to RawScanner, and failing that returns an empty
result flagged Degraded.

# Registration

GenerateFingerprint fails closed: a banned device gets a DeviceBannedError
and an unreadable ban store gets a StoreUnavailableError.
*/
package fingerprint
