// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package main is the entry point of the Salada device trust engine.

The server decides whether a Telegram airdrop participant is a legitimate
person or a multi-account farmer. It registers device fingerprints, runs
the unified security analysis, enforces device bans and serves action rate
limits to the bot and the captcha backend.

# Process Tree

	salada
	├── maintenance-layer
	│   ├── ban-cleanup
	│   ├── ratelimit-cleanup
	│   ├── audit-retention
	│   └── threat-cache-cleanup
	├── jobs-layer
	│   └── verification-queue (jobs.enabled)
	└── api-layer
	    └── http-server

# Stores

Each store is selected in configuration and defaults to memory:

	users.store          memory | mongo
	fingerprint.store    memory | mongo
	ban.store            memory | badger
	audit.store          memory | duckdb
	ratelimit.backend    memory | mongo | redis

Set ratelimit.breaker_enabled to put a circuit breaker in front of an
external rate limit store.

# Tokens

The service and admin endpoints take HS256 bearer tokens signed with
security.admin_jwt_secret. Mint one with:

	salada -issue-token captcha-backend:service
	salada -issue-token alice:admin

# Signal Handling

SIGINT and SIGTERM cancel the tree. The HTTP server drains in-flight
requests for server.shutdown_timeout, the verification queue finishes its
current scans, and the stores are closed last.
*/
package main
