// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"context"
	"sync"
	"testing"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/audit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/threat"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/users"
)

func boolPtr(b bool) *bool { return &b }

func desktopSignals() *fingerprint.DeviceSignals {
	return &fingerprint.DeviceSignals{
		Hardware: fingerprint.HardwareSignals{
			ScreenResolution:    "2560x1440",
			ColorDepth:          24,
			HardwareConcurrency: 12,
			DeviceMemory:        16,
			Platform:            "Win32",
		},
		Browser: fingerprint.BrowserSignals{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Language:       "en-GB",
			Languages:      []string{"en-GB", "en"},
			Timezone:       "Europe/London",
			Plugins:        []string{"PDF Viewer", "Chrome PDF Viewer"},
			MimeTypes:      []string{"application/pdf"},
			CookiesEnabled: boolPtr(true),
		},
		Rendering: fingerprint.RenderingSignals{
			Canvas:        "cv-91a0f3e2b7c4d5e6",
			WebGLVendor:   "Google Inc. (NVIDIA)",
			WebGLRenderer: "ANGLE (NVIDIA, NVIDIA GeForce RTX 4070 Direct3D11 vs_5_0 ps_5_0, D3D11)",
			WebGLVersion:  "WebGL 1.0 (OpenGL ES 2.0 Chromium)",
			Audio:         "124.0434",
			Fonts:         []string{"Arial", "Calibri", "Segoe UI"},
		},
		Network: fingerprint.NetworkSignals{
			IPAddress: "203.0.113.20",
			WebRTCIPs: []string{"192.168.0.12"},
		},
		Behavioral: fingerprint.BehavioralSignals{
			TimingSamples:  []float64{140, 380, 95, 610},
			EventIntervals: []float64{120, 260, 85, 430, 175},
		},
	}
}

// laptopSignals differs from desktopSignals on every critical component.
func laptopSignals() *fingerprint.DeviceSignals {
	s := desktopSignals()
	s.Hardware = fingerprint.HardwareSignals{
		ScreenResolution:    "1440x900",
		ColorDepth:          30,
		HardwareConcurrency: 8,
		DeviceMemory:        8,
		Platform:            "MacIntel",
	}
	s.Browser.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15"
	s.Browser.Timezone = "America/New_York"
	s.Browser.Language = "en-US"
	s.Rendering = fingerprint.RenderingSignals{
		Canvas:        "zz-00ff11ee22dd33cc",
		WebGLVendor:   "Apple Inc.",
		WebGLRenderer: "Apple M2",
		Fonts:         []string{"Helvetica", "Menlo"},
	}
	s.Network.IPAddress = "198.51.100.77"
	return s
}

type harness struct {
	engine  *Engine
	users   *users.MemoryStore
	devices *fingerprint.Service
	bans    *ban.Service
	audit   *audit.MemoryStore
	threats *threat.Analyzer
}

func allStages() config.EngineConfig {
	return config.EngineConfig{
		EnableMultiAccount:   true,
		EnableBehavioral:     true,
		EnableDeviceTrust:    true,
		EnableNetwork:        true,
		EnableThreatPatterns: true,
	}
}

func newHarness(t *testing.T, cfg config.EngineConfig) *harness {
	t.Helper()
	h := &harness{
		users:   users.NewMemoryStore(),
		audit:   audit.NewMemoryStore(1000),
		threats: threat.NewAnalyzer(config.ThreatConfig{}),
	}
	h.devices = fingerprint.NewService(fingerprint.NewMemoryStore(), fingerprint.Config{Salt: "test-salt"})
	h.bans = ban.NewService(ban.NewMemoryStore(), h.users, h.audit)
	h.devices.SetBanChecker(h.bans)
	h.engine = NewEngine(cfg, h.users, h.devices, h.threats, h.bans, h.audit)
	return h
}

func (h *harness) createUser(t *testing.T, u *models.User) *models.User {
	t.Helper()
	if err := h.users.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", u.ID, err)
	}
	got, err := h.users.GetUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetUser(%s): %v", u.ID, err)
	}
	return got
}

type fakeBans struct {
	mu     sync.Mutex
	banned map[string]bool
	err    error
	calls  []ban.BanRequest
}

func (f *fakeBans) IsDeviceBanned(ctx context.Context, hash string) (ban.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return ban.Status{}, f.err
	}
	return ban.Status{IsBanned: f.banned[hash]}, nil
}

func (f *fakeBans) BanDevice(ctx context.Context, req ban.BanRequest) (*ban.BannedDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &ban.BannedDevice{DeviceHash: req.DeviceHash}, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*audit.Entry
	count   int64
	err     error
}

func (f *fakeAudit) SaveSecurityAuditLog(ctx context.Context, e *audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) Count(ctx context.Context, filter audit.QueryFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count, f.err
}
