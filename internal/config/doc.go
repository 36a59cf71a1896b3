// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package config loads engine configuration with koanf v2.

# Sources

Configuration is layered, later sources winning:

 1. Built-in defaults (defaultConfig)
 2. YAML file from CONFIG_PATH, ./config.yaml or /etc/salada/config.yaml
 3. Environment variables with an explicit mapping table

Only mapped environment variables are read. Comma-separated values are split
for slice fields such as CORS_ORIGINS and RATELIMIT_ADMIN_EXEMPTIONS.

# Key Variables

  - HTTP_PORT, ENVIRONMENT, LOG_LEVEL, LOG_FORMAT
  - MASTER_SECRET: seeds the fingerprint salt via HKDF-SHA256
  - FINGERPRINT_SALT: explicit salt, overrides derivation
  - ADMIN_JWT_SECRET: HMAC key for admin bearer tokens
  - BAN_STORE (memory, badger), RATELIMIT_BACKEND (memory, mongo, redis)
  - USERS_STORE, FINGERPRINT_STORE (memory, mongo), AUDIT_STORE (memory, duckdb)
  - MONGO_URI, MONGO_DATABASE, REDIS_ADDR

# Example

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	salt, err := cfg.FingerprintSalt()

# Production Checks

With ENVIRONMENT=production, Validate requires a master secret (or explicit
salt) and an admin JWT secret of at least 32 characters, and rejects a
wildcard CORS origin.

The Config struct is not modified after Load returns and is safe to share.
*/
package config
