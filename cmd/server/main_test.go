// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/auth"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ratelimit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/vpn"
)

func TestPrintToken_Validation(t *testing.T) {
	m, err := auth.NewJWTManager(&config.SecurityConfig{AdminJWTSecret: "main-test-secret-with-enough-length-0123"})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	tests := []struct {
		arg     string
		wantErr string
	}{
		{"alice", "username:role"},
		{":admin", "username:role"},
		{"alice:root", "unknown role"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			err := printToken(m, tt.arg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("printToken(%q) = %v, want error containing %q", tt.arg, err, tt.wantErr)
			}
		})
	}
}

func TestFingerprintConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Fingerprint.Salt = "explicit-salt"
	cfg.Fingerprint.SimilarityThreshold = 0.9

	fc, err := fingerprintConfig(cfg)
	if err != nil {
		t.Fatalf("fingerprintConfig: %v", err)
	}
	defaults := fingerprint.DefaultConfig()
	if fc.Salt != "explicit-salt" {
		t.Errorf("Salt = %q, want explicit-salt", fc.Salt)
	}
	if fc.SimilarityThreshold != 0.9 {
		t.Errorf("SimilarityThreshold = %v, want 0.9", fc.SimilarityThreshold)
	}
	if fc.AsyncScanThreshold != defaults.AsyncScanThreshold {
		t.Errorf("AsyncScanThreshold = %d, want default %d", fc.AsyncScanThreshold, defaults.AsyncScanThreshold)
	}

	prod := &config.Config{}
	prod.Server.Environment = "production"
	if _, err := fingerprintConfig(prod); err == nil {
		t.Error("fingerprintConfig in production without salt or master secret succeeded")
	}
}

func TestOpenBackends_Memory(t *testing.T) {
	ctx := context.Background()
	b, err := openBackends(ctx, &config.Config{})
	if err != nil {
		t.Fatalf("openBackends: %v", err)
	}
	defer b.Close(ctx)

	if _, ok := b.bans.(*ban.MemoryStore); !ok {
		t.Errorf("ban store = %T, want memory", b.bans)
	}
	if _, ok := b.rateLimits.(*ratelimit.MemoryStore); !ok {
		t.Errorf("rate limit store = %T, want memory", b.rateLimits)
	}
	if b.users == nil || b.fingerprints == nil || b.auditStore == nil {
		t.Error("a memory store was not created")
	}
	if len(b.readiness) != 0 {
		t.Errorf("memory backends registered %d readiness checks, want 0", len(b.readiness))
	}
}

type countingCleaner struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (c *countingCleaner) hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[name]++
}

func (c *countingCleaner) CleanupExpiredBans(context.Context) (int, error) {
	c.hit("bans")
	return 2, c.err
}

func (c *countingCleaner) Cleanup(context.Context) (int, error) {
	c.hit("windows")
	return 3, nil
}

func (c *countingCleaner) CleanupExpired() int {
	c.hit("threats")
	return 1
}

type auditCleanerFunc func(ctx context.Context) (int64, error)

func (f auditCleanerFunc) Cleanup(ctx context.Context) (int64, error) { return f(ctx) }

func TestMaintenanceTasks(t *testing.T) {
	cfg := &config.Config{}
	cfg.Ban.CleanupInterval = time.Hour
	cfg.RateLimit.CleanupInterval = time.Minute

	c := &countingCleaner{calls: make(map[string]int), err: errors.New("store down")}
	auditLog := auditCleanerFunc(func(context.Context) (int64, error) {
		c.hit("audit")
		return 4, nil
	})

	tasks := maintenanceTasks(cfg, c, c, auditLog, c)
	if len(tasks) != 4 {
		t.Fatalf("got %d tasks, want 4", len(tasks))
	}

	names := make([]string, 0, len(tasks))
	for _, task := range tasks {
		names = append(names, task.String())
		// A failing task logs and carries on.
		task.RunOnce(context.Background())
	}

	want := []string{taskBanCleanup, taskRateLimitCleanup, taskAuditRetention, taskThreatCacheCleanup}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("task %d = %q, want %q", i, names[i], name)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range []string{"bans", "windows", "audit", "threats"} {
		if c.calls[key] != 1 {
			t.Errorf("%s cleanup ran %d times, want 1", key, c.calls[key])
		}
	}
}

type fakeReloader struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeReloader) Reload(context.Context) (*vpn.ImportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &vpn.ImportResult{AddressesImported: 2, PrefixesImported: 1}, nil
}

func TestNetworkListTask(t *testing.T) {
	r := &fakeReloader{}
	if task := networkListTask(config.VPNConfig{}, r); task != nil {
		t.Fatal("task created without a list path")
	}

	task := networkListTask(config.VPNConfig{ListPath: "/etc/salada/networks.json", ReloadInterval: time.Hour}, r)
	if task == nil {
		t.Fatal("no task for a configured list")
	}
	if task.String() != taskNetworkListReload {
		t.Errorf("name = %q, want %q", task.String(), taskNetworkListReload)
	}
	task.RunOnce(context.Background())

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls != 1 {
		t.Errorf("Reload called %d times, want 1", r.calls)
	}
}
