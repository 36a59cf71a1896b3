// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"testing"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/vpn"
)

func newTestLookup(t *testing.T, ip string) *vpn.Lookup {
	t.Helper()
	l := vpn.NewLookup()
	if err := l.AddAddress(ip, vpn.CategoryVPN, "testvpn"); err != nil {
		t.Fatalf("AddAddress() error = %v", err)
	}
	return l
}

func TestDetectBotBehavior(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(s *DeviceSignals)
		wantBot    bool
		wantCat    BotCategory
		indicators []string
	}{
		{
			name:    "human",
			mutate:  func(*DeviceSignals) {},
			wantCat: BotCategoryHuman,
		},
		{
			name:       "no webrtc only",
			mutate:     func(s *DeviceSignals) { s.Network.WebRTCIPs = nil },
			wantCat:    BotCategoryHuman,
			indicators: []string{IndicatorNoWebRTC},
		},
		{
			name: "headless with cookies off",
			mutate: func(s *DeviceSignals) {
				s.Browser.UserAgent = "Mozilla/5.0 HeadlessChrome/120.0.0.0"
				s.Browser.CookiesEnabled = boolPtr(false)
			},
			wantBot:    true,
			wantCat:    BotCategoryAutomated,
			indicators: []string{IndicatorAutomatedUserAgent, IndicatorMissingFeatures},
		},
		{
			name: "software renderer and fixed intervals",
			mutate: func(s *DeviceSignals) {
				s.Rendering.WebGLRenderer = "Google SwiftShader"
				s.Behavioral.EventIntervals = []float64{100, 100, 101, 100, 99}
			},
			wantBot:    true,
			wantCat:    BotCategoryAutomated,
			indicators: []string{IndicatorWebGLInconsistency, IndicatorFixedEventIntervals},
		},
		{
			name: "everything wrong",
			mutate: func(s *DeviceSignals) {
				s.Browser.UserAgent = "python-requests/2.31"
				s.Hardware.HardwareConcurrency = 256
				s.Browser.Plugins = nil
				s.Behavioral.TimingSamples = []float64{10, 11, 10, 12}
			},
			wantBot: true,
			wantCat: BotCategoryBot,
		},
	}

	svc := NewService(NewMemoryStore(), Config{Salt: "s"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := sampleSignals()
			tt.mutate(raw)
			fp := fingerprintFor(raw, "s")

			got := svc.DetectBotBehavior(fp, raw)
			if got.IsBot != tt.wantBot {
				t.Errorf("IsBot = %v, want %v (score %v, indicators %v)", got.IsBot, tt.wantBot, got.Score, got.Indicators)
			}
			if got.Category != tt.wantCat {
				t.Errorf("Category = %s, want %s (score %v)", got.Category, tt.wantCat, got.Score)
			}
			if got.Score < 0 || got.Score > 1 {
				t.Errorf("Score = %v out of range", got.Score)
			}
			if tt.indicators != nil && !equalStrings(got.Indicators, tt.indicators) {
				t.Errorf("Indicators = %v, want %v", got.Indicators, tt.indicators)
			}
		})
	}
}

func TestDetectBotBehavior_Confidence(t *testing.T) {
	svc := NewService(NewMemoryStore(), Config{Salt: "s"})
	raw := sampleSignals()
	if got := svc.DetectBotBehavior(fingerprintFor(raw, "s"), raw); got.Confidence != 0.5 {
		t.Errorf("Confidence with no indicators = %v, want 0.5", got.Confidence)
	}

	raw.Network.WebRTCIPs = nil
	raw.Browser.CookiesEnabled = boolPtr(false)
	if got := svc.DetectBotBehavior(fingerprintFor(raw, "s"), raw); got.Confidence != 0.7 {
		t.Errorf("Confidence with two indicators = %v, want 0.7", got.Confidence)
	}
}

func TestDetectBotBehavior_AnonymizedNetwork(t *testing.T) {
	svc := NewService(NewMemoryStore(), Config{Salt: "s"})
	svc.SetNetworkClassifier(vpn.NewServiceWithLookup(newTestLookup(t, "203.0.113.7")))

	raw := sampleSignals()
	got := svc.DetectBotBehavior(fingerprintFor(raw, "s"), raw)
	if !equalStrings(got.Indicators, []string{IndicatorAnonymizedNetwork}) {
		t.Errorf("Indicators = %v, want anonymized network", got.Indicators)
	}
	if got.Score != 0.2 {
		t.Errorf("Score = %v, want 0.2", got.Score)
	}
}

func TestHardwareInconsistencies(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *DeviceSignals)
		want   int
	}{
		{"plausible", func(*DeviceSignals) {}, 0},
		{"tiny memory", func(s *DeviceSignals) { s.Hardware.DeviceMemory = 0.1 }, 1},
		{"desktop touch", func(s *DeviceSignals) { s.Hardware.MaxTouchPoints = 20 }, 1},
		{"mobile touch", func(s *DeviceSignals) {
			s.Hardware.MaxTouchPoints = 20
			s.Browser.UserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148"
		}, 0},
		{"tiny screen", func(s *DeviceSignals) { s.Hardware.ScreenResolution = "200x100" }, 1},
		{"extreme aspect", func(s *DeviceSignals) { s.Hardware.ScreenResolution = "5000x1000" }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSignals()
			tt.mutate(s)
			n := Normalize(s)
			if got := hardwareInconsistencies(&n); len(got) != tt.want {
				t.Errorf("hardwareInconsistencies() = %v, want %d issues", got, tt.want)
			}
		})
	}
}

func TestDetectBotBehavior_AutomationUserAgentWithoutPlugins(t *testing.T) {
	svc := NewService(NewMemoryStore(), DefaultConfig())
	raw := sampleSignals()
	raw.Browser.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) Puppeteer/21.0"
	raw.Browser.Plugins = nil

	got := svc.DetectBotBehavior(fingerprintFor(raw, ""), raw)
	if !got.IsBot {
		t.Errorf("IsBot = false, want true (score %v)", got.Score)
	}
	if got.Category != BotCategoryAutomated && got.Category != BotCategoryBot {
		t.Errorf("Category = %s, want automated or bot", got.Category)
	}
}
