// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package api is the HTTP surface of the engine, built on go-chi.

Three audiences use it:

  - The captcha page posts device bundles to /api/v1/fingerprints and ban
    appeals to /api/v1/appeals. These routes are public and limited per IP
    with go-chi/httprate.
  - Trusted collaborators (captcha backend, bot process) hold a "service"
    token and call the analysis, quick-check, realtime event and rate-limit
    routes.
  - Operators hold an "admin" token for ban management, rate-limit resets
    and the audit log.

Every response uses the models.APIResponse envelope. A banned device or
blocked account gets 403 POLICY_VIOLATION whose only detail is whether an
appeal is possible.
*/
package api
