// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package config

import (
	"time"
)

// Config holds all engine configuration.
//
// Loading order (koanf v2):
//  1. Defaults from defaultConfig
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables listed in envTransformFunc
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Security    SecurityConfig    `koanf:"security"`
	Fingerprint FingerprintConfig `koanf:"fingerprint"`
	Engine      EngineConfig      `koanf:"engine"`
	Threat      ThreatConfig      `koanf:"threat"`
	Ban         BanConfig         `koanf:"ban"`
	RateLimit   RateLimitConfig   `koanf:"ratelimit"`
	Users       UsersConfig       `koanf:"users"`
	Mongo       MongoConfig       `koanf:"mongo"`
	Redis       RedisConfig       `koanf:"redis"`
	Audit       AuditConfig       `koanf:"audit"`
	Jobs        JobsConfig        `koanf:"jobs"`
	VPN         VPNConfig         `koanf:"vpn"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds secrets and HTTP protection settings.
type SecurityConfig struct {
	// MasterSecret seeds the fingerprint salt through HKDF when no explicit
	// salt is configured.
	MasterSecret string `koanf:"master_secret"`

	// AdminJWTSecret signs bearer tokens for the ban management endpoints.
	AdminJWTSecret string `koanf:"admin_jwt_secret"`

	// AdminTokenTTL is the lifetime of issued admin tokens.
	AdminTokenTTL time.Duration `koanf:"admin_token_ttl"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	HTTPRateLimitReqs int           `koanf:"http_rate_limit_reqs"`
	HTTPRateLimitWin  time.Duration `koanf:"http_rate_limit_window"`
	HTTPRateLimitOff  bool          `koanf:"http_rate_limit_disabled"`
}

// FingerprintConfig tunes fingerprint generation and collision detection.
type FingerprintConfig struct {
	Store               string  `koanf:"store"` // memory or mongo
	Salt                string  `koanf:"salt"`
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
	BotThreshold        float64 `koanf:"bot_threshold"`
	AsyncScanThreshold  int     `koanf:"async_scan_threshold"`
	MaxSimilarDevices   int     `koanf:"max_similar_devices"`
	ScanWindowDays      int     `koanf:"scan_window_days"`
}

// EngineConfig controls the unified security analysis.
type EngineConfig struct {
	EnableMultiAccount   bool `koanf:"enable_multi_account"`
	EnableBehavioral     bool `koanf:"enable_behavioral"`
	EnableDeviceTrust    bool `koanf:"enable_device_trust"`
	EnableNetwork        bool `koanf:"enable_network"`
	EnableThreatPatterns bool `koanf:"enable_threat_patterns"`

	// ZeroTolerance blocks a user on an exact device-hash collision before
	// the remaining stages run.
	ZeroTolerance bool `koanf:"zero_tolerance"`

	TemporaryBanHours        int           `koanf:"temporary_ban_hours"`
	ImpossibleTravelKmh      float64       `koanf:"impossible_travel_kmh"`
	RecentRegistrationWindow time.Duration `koanf:"recent_registration_window"`
}

// ThreatConfig tunes the threat analyzer.
type ThreatConfig struct {
	Sensitivity        float64       `koanf:"sensitivity"`
	MaxPointsPerDay    float64       `koanf:"max_points_per_day"`
	CacheTTL           time.Duration `koanf:"cache_ttl"`
	CacheSize          int           `koanf:"cache_size"`
	RapidFireWindow    time.Duration `koanf:"rapid_fire_window"`
	RapidFireThreshold int           `koanf:"rapid_fire_threshold"`
}

// BanConfig selects the ban store.
type BanConfig struct {
	Store           string        `koanf:"store"` // memory or badger
	BadgerPath      string        `koanf:"badger_path"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// PresetConfig overrides one rate-limit preset.
type PresetConfig struct {
	MaxRequests int           `koanf:"max_requests"`
	Window      time.Duration `koanf:"window"`
}

// RateLimitConfig selects the limiter backend.
type RateLimitConfig struct {
	Backend         string                  `koanf:"backend"` // memory, mongo or redis
	MemoryCapacity  int                     `koanf:"memory_capacity"`
	AdminExemptions []string                `koanf:"admin_exemptions"`
	BreakerEnabled  bool                    `koanf:"breaker_enabled"`
	CleanupInterval time.Duration           `koanf:"cleanup_interval"`
	Presets         map[string]PresetConfig `koanf:"presets"`
}

// UsersConfig selects the user store.
type UsersConfig struct {
	Store string `koanf:"store"` // memory or mongo
}

// MongoConfig configures the shared MongoDB client.
type MongoConfig struct {
	URI      string        `koanf:"uri"`
	Database string        `koanf:"database"`
	Timeout  time.Duration `koanf:"timeout"`
}

// RedisConfig configures the Redis client used by the rate limiter.
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// AuditConfig selects the security audit store.
type AuditConfig struct {
	Store      string        `koanf:"store"` // memory or duckdb
	Path       string        `koanf:"path"`
	MaxEntries int           `koanf:"max_entries"`
	BufferSize int           `koanf:"buffer_size"`
	Retention  time.Duration `koanf:"retention"`
}

// JobsConfig tunes the background verification queue.
type JobsConfig struct {
	Enabled              bool          `koanf:"enabled"`
	BufferSize           int64         `koanf:"buffer_size"`
	MaxRetries           int           `koanf:"max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
	DedupTTL             time.Duration `koanf:"dedup_ttl"`
}

// VPNConfig points at an optional network intelligence list.
type VPNConfig struct {
	ListPath       string        `koanf:"list_path"`
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
