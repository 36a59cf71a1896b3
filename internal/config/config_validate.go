// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package config

import (
	"fmt"
	"strings"
	"time"
)

// minSecretLength is the shortest master or JWT secret accepted in production.
const minSecretLength = 32

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateSecurity,
		c.validateFingerprint,
		c.validateEngine,
		c.validateThreat,
		c.validateBan,
		c.validateRateLimit,
		c.validateStores,
		c.validateAudit,
		c.validateJobs,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, production or test, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "off":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

// validateSecurity requires real secrets in production. In development an
// empty master secret is allowed and a fixed development salt is derived.
func (c *Config) validateSecurity() error {
	if c.IsProduction() {
		if len(c.Security.MasterSecret) < minSecretLength && c.Fingerprint.Salt == "" {
			return fmt.Errorf("MASTER_SECRET must be at least %d characters in production", minSecretLength)
		}
		if len(c.Security.AdminJWTSecret) < minSecretLength {
			return fmt.Errorf("ADMIN_JWT_SECRET must be at least %d characters in production", minSecretLength)
		}
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
	}
	if !c.Security.HTTPRateLimitOff {
		if c.Security.HTTPRateLimitReqs < 1 {
			return fmt.Errorf("HTTP_RATE_LIMIT_REQS must be at least 1")
		}
		if c.Security.HTTPRateLimitWin < time.Second {
			return fmt.Errorf("HTTP_RATE_LIMIT_WINDOW must be at least 1s")
		}
	}
	return nil
}

func (c *Config) validateFingerprint() error {
	f := c.Fingerprint
	if err := oneOf("fingerprint.store", f.Store, "memory", "mongo"); err != nil {
		return err
	}
	if err := unitInterval("fingerprint.similarity_threshold", f.SimilarityThreshold); err != nil {
		return err
	}
	if err := unitInterval("fingerprint.bot_threshold", f.BotThreshold); err != nil {
		return err
	}
	if f.AsyncScanThreshold < 0 {
		return fmt.Errorf("fingerprint.async_scan_threshold must not be negative")
	}
	if f.MaxSimilarDevices < 1 {
		return fmt.Errorf("fingerprint.max_similar_devices must be at least 1")
	}
	if f.ScanWindowDays < 1 {
		return fmt.Errorf("fingerprint.scan_window_days must be at least 1")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.TemporaryBanHours < 1 {
		return fmt.Errorf("engine.temporary_ban_hours must be at least 1")
	}
	if c.Engine.ImpossibleTravelKmh <= 0 {
		return fmt.Errorf("engine.impossible_travel_kmh must be positive")
	}
	if c.Engine.RecentRegistrationWindow <= 0 {
		return fmt.Errorf("engine.recent_registration_window must be positive")
	}
	return nil
}

func (c *Config) validateThreat() error {
	if c.Threat.Sensitivity <= 0 {
		return fmt.Errorf("threat.sensitivity must be positive")
	}
	if c.Threat.MaxPointsPerDay <= 0 {
		return fmt.Errorf("threat.max_points_per_day must be positive")
	}
	if c.Threat.CacheTTL <= 0 {
		return fmt.Errorf("threat.cache_ttl must be positive")
	}
	if c.Threat.RapidFireThreshold < 1 || c.Threat.RapidFireWindow <= 0 {
		return fmt.Errorf("threat rapid-fire window and threshold must be positive")
	}
	return nil
}

func (c *Config) validateBan() error {
	if err := oneOf("ban.store", c.Ban.Store, "memory", "badger"); err != nil {
		return err
	}
	if c.Ban.Store == "badger" && c.Ban.BadgerPath == "" {
		return fmt.Errorf("ban.badger_path is required when ban.store=badger")
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	if err := oneOf("ratelimit.backend", c.RateLimit.Backend, "memory", "mongo", "redis"); err != nil {
		return err
	}
	if c.RateLimit.Backend == "memory" && c.RateLimit.MemoryCapacity < 1 {
		return fmt.Errorf("ratelimit.memory_capacity must be at least 1")
	}
	for name, p := range c.RateLimit.Presets {
		if p.MaxRequests < 1 || p.Window <= 0 {
			return fmt.Errorf("ratelimit.presets.%s needs positive max_requests and window", name)
		}
	}
	return nil
}

func (c *Config) validateStores() error {
	if err := oneOf("users.store", c.Users.Store, "memory", "mongo"); err != nil {
		return err
	}
	if c.usesMongo() {
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DATABASE are required when a mongo store is selected")
		}
		if c.Mongo.Timeout <= 0 {
			return fmt.Errorf("mongo.timeout must be positive")
		}
	}
	if c.RateLimit.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when ratelimit.backend=redis")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if err := oneOf("audit.store", c.Audit.Store, "memory", "duckdb"); err != nil {
		return err
	}
	if c.Audit.Store == "duckdb" && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required when audit.store=duckdb")
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("audit.buffer_size must be at least 1")
	}
	if c.Audit.Retention < time.Hour {
		return fmt.Errorf("audit.retention must be at least 1h")
	}
	return nil
}

func (c *Config) validateJobs() error {
	if !c.Jobs.Enabled {
		return nil
	}
	if c.Jobs.MaxRetries < 0 {
		return fmt.Errorf("jobs.max_retries must not be negative")
	}
	if c.Jobs.CloseTimeout <= 0 {
		return fmt.Errorf("jobs.close_timeout must be positive")
	}
	return nil
}

// usesMongo reports whether any component is configured for MongoDB.
func (c *Config) usesMongo() bool {
	return c.Users.Store == "mongo" || c.Fingerprint.Store == "mongo" || c.RateLimit.Backend == "mongo"
}

// UsesMongo is the exported form of usesMongo for process wiring.
func (c *Config) UsesMongo() bool {
	return c.usesMongo()
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, ", "), value)
}

func unitInterval(name string, v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
	}
	return nil
}
