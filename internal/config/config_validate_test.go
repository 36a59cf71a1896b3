// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	strong := strings.Repeat("s", 40)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad env", func(c *Config) { c.Server.Environment = "staging" }, "ENVIRONMENT"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"bad rate limit backend", func(c *Config) { c.RateLimit.Backend = "memcached" }, "ratelimit.backend"},
		{"badger without path", func(c *Config) { c.Ban.Store = "badger"; c.Ban.BadgerPath = "" }, "badger_path"},
		{"similarity out of range", func(c *Config) { c.Fingerprint.SimilarityThreshold = 1.5 }, "similarity_threshold"},
		{"redis without addr", func(c *Config) { c.RateLimit.Backend = "redis"; c.Redis.Addr = "" }, "REDIS_ADDR"},
		{"mongo without uri", func(c *Config) { c.Users.Store = "mongo"; c.Mongo.URI = "" }, "MONGO_URI"},
		{"bad preset", func(c *Config) {
			c.RateLimit.Presets = map[string]PresetConfig{"x": {MaxRequests: 0, Window: time.Minute}}
		}, "ratelimit.presets.x"},
		{"production without secrets", func(c *Config) { c.Server.Environment = "production" }, "MASTER_SECRET"},
		{"production wildcard cors", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.MasterSecret = strong
			c.Security.AdminJWTSecret = strong
		}, "CORS_ORIGINS"},
		{"production ok", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.MasterSecret = strong
			c.Security.AdminJWTSecret = strong
			c.Security.CORSOrigins = []string{"https://admin.example"}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
