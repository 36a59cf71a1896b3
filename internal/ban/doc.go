// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package ban owns device bans.

A ban is keyed by device hash. Temporary bans carry ExpiresAt and are
appealable; permanent bans are not. Expiry is lazy: IsDeviceBanned deletes
an expired record when it reads one, so correctness never depends on the
periodic CleanupExpiredBans sweep.

Banning cascades to the user store. The triggering user and every related
account are blocked one by one, and a failure on one account does not stop
the others.

Two stores are provided:

  - MemoryStore for tests and single-node development
  - BadgerStore for durable storage, using entry TTLs for temporary bans
    and retrying optimistic transactions on badger.ErrConflict

Concurrent BanDevice calls for one hash go through Store.Update, so the
second caller merges onto the first record.
*/
package ban
