// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/salada/config.yaml",
	"/etc/salada/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. Thresholds match the
// production values of the detection pipeline.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8088,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Security: SecurityConfig{
			MasterSecret:      "",
			AdminJWTSecret:    "",
			AdminTokenTTL:     12 * time.Hour,
			CORSOrigins:       []string{"*"},
			HTTPRateLimitReqs: 120,
			HTTPRateLimitWin:  time.Minute,
			HTTPRateLimitOff:  false,
		},
		Fingerprint: FingerprintConfig{
			Store:               "memory",
			Salt:                "",
			SimilarityThreshold: 0.75,
			BotThreshold:        0.5,
			AsyncScanThreshold:  5000,
			MaxSimilarDevices:   15,
			ScanWindowDays:      90,
		},
		Engine: EngineConfig{
			EnableMultiAccount:       true,
			EnableBehavioral:         true,
			EnableDeviceTrust:        true,
			EnableNetwork:            true,
			EnableThreatPatterns:     true,
			ZeroTolerance:            true,
			TemporaryBanHours:        24,
			ImpossibleTravelKmh:      1000,
			RecentRegistrationWindow: 24 * time.Hour,
		},
		Threat: ThreatConfig{
			Sensitivity:        1.0,
			MaxPointsPerDay:    10000,
			CacheTTL:           5 * time.Minute,
			CacheSize:          10000,
			RapidFireWindow:    time.Minute,
			RapidFireThreshold: 30,
		},
		Ban: BanConfig{
			Store:           "memory",
			BadgerPath:      "/data/bans",
			CleanupInterval: time.Hour,
		},
		RateLimit: RateLimitConfig{
			Backend:         "memory",
			MemoryCapacity:  100000,
			AdminExemptions: []string{},
			BreakerEnabled:  true,
			CleanupInterval: 5 * time.Minute,
			Presets:         map[string]PresetConfig{},
		},
		Users: UsersConfig{
			Store: "memory",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://127.0.0.1:27017",
			Database: "salada",
			Timeout:  10 * time.Second,
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			Password:  "",
			DB:        0,
			KeyPrefix: "salada:rl:",
		},
		Audit: AuditConfig{
			Store:      "memory",
			Path:       "/data/audit.duckdb",
			MaxEntries: 100000,
			BufferSize: 1024,
			Retention:  90 * 24 * time.Hour,
		},
		Jobs: JobsConfig{
			Enabled:              true,
			BufferSize:           256,
			MaxRetries:           3,
			RetryInitialInterval: 200 * time.Millisecond,
			CloseTimeout:         15 * time.Second,
			DedupTTL:             10 * time.Minute,
		},
		VPN: VPNConfig{
			ListPath:       "",
			ReloadInterval: 6 * time.Hour,
		},
	}
}

// Load loads configuration from defaults, an optional YAML file and the
// environment, in that order of increasing precedence, then validates it.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile loads configuration with an explicit YAML file path.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH if it exists, else the first existing
// default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"ratelimit.admin_exemptions",
}

// processSliceFields splits comma-separated strings for known slice fields.
// Values from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to config paths.
// Unlisted variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	// Server
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",
	"environment":        "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Security
	"master_secret":           "security.master_secret",
	"admin_jwt_secret":        "security.admin_jwt_secret",
	"admin_token_ttl":         "security.admin_token_ttl",
	"cors_origins":            "security.cors_origins",
	"http_rate_limit_reqs":    "security.http_rate_limit_reqs",
	"http_rate_limit_window":  "security.http_rate_limit_window",
	"disable_http_rate_limit": "security.http_rate_limit_disabled",

	// Fingerprint
	"fingerprint_store":                "fingerprint.store",
	"fingerprint_salt":                 "fingerprint.salt",
	"fingerprint_similarity_threshold": "fingerprint.similarity_threshold",
	"fingerprint_bot_threshold":        "fingerprint.bot_threshold",
	"fingerprint_async_scan_threshold": "fingerprint.async_scan_threshold",
	"fingerprint_scan_window_days":     "fingerprint.scan_window_days",

	// Engine
	"engine_zero_tolerance":       "engine.zero_tolerance",
	"engine_temporary_ban_hours":  "engine.temporary_ban_hours",
	"engine_enable_multi_account": "engine.enable_multi_account",
	"engine_enable_behavioral":    "engine.enable_behavioral",
	"engine_enable_device_trust":  "engine.enable_device_trust",
	"engine_enable_network":       "engine.enable_network",
	"engine_enable_threat":        "engine.enable_threat_patterns",

	// Threat
	"threat_sensitivity":        "threat.sensitivity",
	"threat_max_points_per_day": "threat.max_points_per_day",
	"threat_cache_ttl":          "threat.cache_ttl",

	// Bans
	"ban_store":       "ban.store",
	"ban_badger_path": "ban.badger_path",

	// Rate limiting
	"ratelimit_backend":          "ratelimit.backend",
	"ratelimit_admin_exemptions": "ratelimit.admin_exemptions",
	"ratelimit_breaker_enabled":  "ratelimit.breaker_enabled",

	// Stores
	"users_store":      "users.store",
	"mongo_uri":        "mongo.uri",
	"mongo_database":   "mongo.database",
	"mongo_timeout":    "mongo.timeout",
	"redis_addr":       "redis.addr",
	"redis_password":   "redis.password",
	"redis_db":         "redis.db",
	"audit_store":      "audit.store",
	"audit_path":       "audit.path",
	"audit_retention":  "audit.retention",
	"jobs_enabled":     "jobs.enabled",
	"jobs_max_retries": "jobs.max_retries",
	"vpn_list_path":    "vpn.list_path",
	"vpn_reload":       "vpn.reload_interval",
}

// envTransformFunc maps an environment variable name to a koanf path.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - RATELIMIT_BACKEND -> ratelimit.backend
//   - MASTER_SECRET -> security.master_secret
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
