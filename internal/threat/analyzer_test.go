// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package threat

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer(cfg config.ThreatConfig) *Analyzer {
	a := NewAnalyzer(cfg)
	a.SetClock(func() time.Time { return testNow })
	return a
}

func deviceComponents() fingerprint.DeviceSignals {
	return fingerprint.DeviceSignals{
		Hardware: fingerprint.HardwareSignals{
			ScreenResolution:    "1920x1080",
			HardwareConcurrency: 8,
			DeviceMemory:        8,
			Platform:            "win32",
		},
		Browser: fingerprint.BrowserSignals{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0 Safari/537.36",
			Language:  "en-us",
			Timezone:  "Europe/Berlin",
			Plugins:   []string{"pdf viewer"},
		},
		Rendering: fingerprint.RenderingSignals{
			Canvas:        "c4nv4s-7f3a9b2e41d06c58",
			WebGLVendor:   "Google Inc. (NVIDIA)",
			WebGLRenderer: "ANGLE (NVIDIA GeForce RTX 3060)",
			Fonts:         []string{"arial", "calibri"},
		},
	}
}

func hasFactor(factors []models.RiskFactor, t models.RiskFactorType) bool {
	for _, f := range factors {
		if f.Type == t {
			return true
		}
	}
	return false
}

func hasPattern(matches []PatternMatch, name string) bool {
	for _, m := range matches {
		if m.Name == name {
			return true
		}
	}
	return false
}

func TestAnalyzeUser_CleanUser(t *testing.T) {
	a := newTestAnalyzer(config.ThreatConfig{})
	user := &models.User{ID: "u1", Points: 300, RegisteredAt: testNow.Add(-90 * 24 * time.Hour)}

	got := a.AnalyzeUser(context.Background(), Input{User: user})

	if got.OverallRiskScore != 0 {
		t.Errorf("OverallRiskScore = %v, want 0", got.OverallRiskScore)
	}
	if got.ThreatLevel != models.ThreatLow {
		t.Errorf("ThreatLevel = %s, want low", got.ThreatLevel)
	}
	if len(got.MatchedPatterns) != 0 {
		t.Errorf("unexpected patterns %v", got.MatchedPatterns)
	}
	if len(got.CategoryScores) != 4 {
		t.Errorf("CategoryScores has %d entries, want 4", len(got.CategoryScores))
	}
	if got.Metadata.Cached {
		t.Error("first analysis should not be cached")
	}
}

func TestAnalyzeUser_NilUser(t *testing.T) {
	a := newTestAnalyzer(config.ThreatConfig{})
	got := a.AnalyzeUser(context.Background(), Input{})
	if got.ThreatLevel != models.ThreatLow || got.OverallRiskScore != 0 {
		t.Errorf("nil user analysis = %+v", got)
	}
}

func TestAnalyzeUser_SharedDeviceAndNetwork(t *testing.T) {
	a := newTestAnalyzer(config.ThreatConfig{})
	registered := testNow.Add(-30 * 24 * time.Hour)

	user := &models.User{ID: "u1", RegisteredAt: registered, LastIP: "198.51.100.4"}
	fp := &fingerprint.DeviceFingerprint{Hash: "h1", UserID: "u1", Components: deviceComponents()}

	in := Input{
		User:        user,
		Fingerprint: fp,
		RelatedUsers: []*models.User{
			{ID: "u2", RegisteredAt: registered, LastIP: "198.51.100.4"},
			{ID: "u3", RegisteredAt: registered, LastIP: "198.51.100.99"},
		},
		RelatedFingerprints: []*fingerprint.DeviceFingerprint{
			{Hash: "h1", UserID: "u2", Components: deviceComponents()},
			{Hash: "h9", UserID: "u3", Components: deviceComponents()},
			{Hash: "h1", UserID: "u1", Components: deviceComponents()},
		},
	}

	got := a.AnalyzeUser(context.Background(), in)

	for _, want := range []models.RiskFactorType{
		models.FactorIdenticalDeviceFingerprint,
		models.FactorSimilarDeviceFingerprint,
		models.FactorSharedIP,
	} {
		if !hasFactor(got.RiskFactors, want) {
			t.Errorf("missing factor %s in %v", want, models.FactorTypes(got.RiskFactors))
		}
	}
	if got.CategoryScores[CategoryDevice] != 1.0 {
		t.Errorf("device score = %v, want 1.0 (clamped)", got.CategoryScores[CategoryDevice])
	}
	if !hasPattern(got.MatchedPatterns, "multi_account_farm") {
		t.Errorf("multi_account_farm not matched: %v", got.MatchedPatterns)
	}
	if hasPattern(got.MatchedPatterns, "bot_farm") {
		t.Error("bot_farm requires all indicators and must not match")
	}
}

func TestAnalyzeUser_AccountHeuristics(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.ThreatConfig
		user        *models.User
		wantAge     bool
		wantVel     bool
		wantReferal bool
	}{
		{
			name:    "new account with points",
			user:    &models.User{ID: "a", Points: 500, RegisteredAt: testNow.Add(-2 * time.Hour)},
			wantAge: true,
		},
		{
			name: "new account below point floor",
			user: &models.User{ID: "b", Points: 100, RegisteredAt: testNow.Add(-2 * time.Hour)},
		},
		{
			name:    "points velocity above daily cap",
			user:    &models.User{ID: "c", Points: 50000, RegisteredAt: testNow.Add(-48 * time.Hour)},
			wantVel: true,
		},
		{
			name:    "sensitivity lowers the cap",
			cfg:     config.ThreatConfig{Sensitivity: 2},
			user:    &models.User{ID: "d", Points: 14000, RegisteredAt: testNow.Add(-48 * time.Hour)},
			wantVel: true,
		},
		{
			name: "velocity under default cap",
			user: &models.User{ID: "e", Points: 14000, RegisteredAt: testNow.Add(-48 * time.Hour)},
		},
		{
			name:        "burst of referrals on young account",
			user:        &models.User{ID: "f", ReferralCount: 25, RegisteredAt: testNow.Add(-72 * time.Hour)},
			wantReferal: true,
		},
		{
			name: "referrals on established account",
			user: &models.User{ID: "g", ReferralCount: 25, RegisteredAt: testNow.Add(-60 * 24 * time.Hour)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(tt.cfg)
			got := a.AnalyzeUser(context.Background(), Input{User: tt.user})

			if hasFactor(got.RiskFactors, models.FactorAccountAgeAnomaly) != tt.wantAge {
				t.Errorf("account_age_anomaly = %v, want %v", !tt.wantAge, tt.wantAge)
			}
			if hasFactor(got.RiskFactors, models.FactorPointsVelocityAnomaly) != tt.wantVel {
				t.Errorf("points_velocity_anomaly = %v, want %v", !tt.wantVel, tt.wantVel)
			}
			if hasFactor(got.RiskFactors, models.FactorRapidReferrals) != tt.wantReferal {
				t.Errorf("rapid_referrals = %v, want %v", !tt.wantReferal, tt.wantReferal)
			}
		})
	}
}

func TestAnalyzeUser_Behavior(t *testing.T) {
	a := newTestAnalyzer(config.ThreatConfig{RapidFireWindow: time.Minute, RapidFireThreshold: 5})
	user := &models.User{ID: "u1", RegisteredAt: testNow.Add(-30 * 24 * time.Hour)}

	var regular []Activity
	for i := 0; i < 8; i++ {
		regular = append(regular, Activity{Type: "point_claim", Timestamp: testNow.Add(-time.Duration(i) * 5 * time.Second)})
	}

	got := a.AnalyzeUser(context.Background(), Input{User: user, RecentActivity: regular})
	if !hasFactor(got.RiskFactors, models.FactorAutomationDetected) {
		t.Error("evenly spaced events should raise automation_detected")
	}
	if !hasFactor(got.RiskFactors, models.FactorRapidFireEvents) {
		t.Error("8 events in a minute over threshold 5 should raise rapid_fire_events")
	}

	a.Invalidate("u1")
	human := []Activity{
		{Timestamp: testNow.Add(-50 * time.Minute)},
		{Timestamp: testNow.Add(-41 * time.Minute)},
		{Timestamp: testNow.Add(-40 * time.Minute)},
		{Timestamp: testNow.Add(-12 * time.Minute)},
		{Timestamp: testNow.Add(-2 * time.Minute)},
	}
	got = a.AnalyzeUser(context.Background(), Input{User: user, RecentActivity: human})
	if len(got.RiskFactors) != 0 {
		t.Errorf("irregular activity raised %v", models.FactorTypes(got.RiskFactors))
	}
}

func TestAnalyzeUser_CacheAndInvalidate(t *testing.T) {
	clock := testNow
	a := NewAnalyzer(config.ThreatConfig{CacheTTL: time.Minute})
	a.SetClock(func() time.Time { return clock })

	user := &models.User{ID: "u1", Points: 500, RegisteredAt: testNow.Add(-time.Hour)}
	first := a.AnalyzeUser(context.Background(), Input{User: user})
	if first.Metadata.Cached {
		t.Fatal("first call should compute")
	}

	second := a.AnalyzeUser(context.Background(), Input{User: user})
	if !second.Metadata.Cached {
		t.Error("second call within TTL should be served from cache")
	}
	if second.OverallRiskScore != first.OverallRiskScore {
		t.Errorf("cached score %v != computed %v", second.OverallRiskScore, first.OverallRiskScore)
	}

	second.RiskFactors = nil
	third := a.AnalyzeUser(context.Background(), Input{User: user})
	if len(third.RiskFactors) == 0 {
		t.Error("mutating a returned analysis must not affect the cache")
	}

	a.Invalidate("u1")
	if got := a.AnalyzeUser(context.Background(), Input{User: user}); got.Metadata.Cached {
		t.Error("analysis after Invalidate should be recomputed")
	}

	clock = clock.Add(2 * time.Minute)
	if got := a.AnalyzeUser(context.Background(), Input{User: user}); got.Metadata.Cached {
		t.Error("analysis after TTL should be recomputed")
	}
}

// A cached analysis is only reused for the same device and related set.
func TestAnalyzeUser_CacheKeyedByInputs(t *testing.T) {
	a := NewAnalyzer(config.ThreatConfig{CacheTTL: time.Minute})
	a.SetClock(func() time.Time { return testNow })

	registered := testNow.Add(-30 * 24 * time.Hour)
	user := &models.User{ID: "u1", RegisteredAt: registered}
	fp := &fingerprint.DeviceFingerprint{Hash: "h1", UserID: "u1", Components: deviceComponents()}
	base := Input{User: user, Fingerprint: fp}

	if got := a.AnalyzeUser(context.Background(), base); got.Metadata.Cached {
		t.Fatal("first call should compute")
	}

	shared := base
	shared.RelatedFingerprints = []*fingerprint.DeviceFingerprint{
		{Hash: "h1", UserID: "u2", Components: deviceComponents()},
	}
	shared.RelatedUsers = []*models.User{{ID: "u2", RegisteredAt: registered}}

	tests := []struct {
		name       string
		in         Input
		wantCached bool
	}{
		{name: "same inputs", in: base, wantCached: true},
		{name: "other device", in: Input{User: user, Fingerprint: &fingerprint.DeviceFingerprint{Hash: "h2", UserID: "u1", Components: deviceComponents()}}},
		{name: "new related set", in: shared},
		{name: "new activity", in: Input{User: user, Fingerprint: fp, RecentActivity: []Activity{{Type: "task_submission", Timestamp: testNow}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Re-seed the cache with the base inputs each time.
			a.AnalyzeUser(context.Background(), base)
			got := a.AnalyzeUser(context.Background(), tt.in)
			if got.Metadata.Cached != tt.wantCached {
				t.Errorf("Cached = %v, want %v", got.Metadata.Cached, tt.wantCached)
			}
		})
	}

	a.AnalyzeUser(context.Background(), base)
	got := a.AnalyzeUser(context.Background(), shared)
	if !hasFactor(got.RiskFactors, models.FactorIdenticalDeviceFingerprint) {
		t.Errorf("factors = %v, want the shared device reported", models.FactorTypes(got.RiskFactors))
	}
}

func TestCalculateThreatScore(t *testing.T) {
	tests := []struct {
		name           string
		factors        []models.RiskFactor
		wantOverall    float64
		wantConfidence float64
		wantDevice     float64
	}{
		{
			name: "no factors",
		},
		{
			name: "single critical device factor",
			factors: []models.RiskFactor{
				{Type: models.FactorIdenticalDeviceFingerprint, Severity: models.SeverityCritical, Score: 1.0},
			},
			wantOverall:    0.25,
			wantConfidence: 1.0,
			wantDevice:     1.0,
		},
		{
			name: "category clamps at one",
			factors: []models.RiskFactor{
				{Type: models.FactorIdenticalDeviceFingerprint, Severity: models.SeverityCritical, Score: 1.0},
				{Type: models.FactorBotDetection, Severity: models.SeverityCritical, Score: 0.8},
			},
			wantOverall:    0.25,
			wantConfidence: 0.9,
			wantDevice:     1.0,
		},
		{
			name: "spread across categories",
			factors: []models.RiskFactor{
				{Type: models.FactorHardwareInconsistency, Severity: models.SeverityMedium, Score: 0.6},
				{Type: models.FactorVPNDetected, Severity: models.SeverityMedium, Score: 0.5},
				{Type: models.FactorPointsVelocityAnomaly, Severity: models.SeverityHigh, Score: 0.8},
				{Type: models.FactorAutomationDetected, Severity: models.SeverityHigh, Score: 0.8},
			},
			// device .3, network .25, account .6, behavior .6
			wantOverall:    0.4375,
			wantConfidence: 0.675,
			wantDevice:     0.3,
		},
	}

	const eps = 1e-9
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, overall, confidence := calculateThreatScore(tt.factors)
			if math.Abs(overall-tt.wantOverall) > eps {
				t.Errorf("overall = %v, want %v", overall, tt.wantOverall)
			}
			if math.Abs(confidence-tt.wantConfidence) > eps {
				t.Errorf("confidence = %v, want %v", confidence, tt.wantConfidence)
			}
			if math.Abs(scores[CategoryDevice]-tt.wantDevice) > eps {
				t.Errorf("device = %v, want %v", scores[CategoryDevice], tt.wantDevice)
			}
		})
	}
}

func TestMatchPatterns(t *testing.T) {
	tests := []struct {
		name  string
		types []models.RiskFactorType
		want  []string
	}{
		{name: "empty", types: nil, want: nil},
		{
			name:  "partial bot farm does not match",
			types: []models.RiskFactorType{models.FactorBotDetection, models.FactorRapidReferrals},
			want:  nil,
		},
		{
			name: "bot farm and scripted signup",
			types: []models.RiskFactorType{
				models.FactorBotDetection,
				models.FactorIdenticalDeviceFingerprint,
				models.FactorRapidReferrals,
				models.FactorAccountAgeAnomaly,
			},
			want: []string{"bot_farm", "scripted_signup"},
		},
		{
			name:  "vpn evasion",
			types: []models.RiskFactorType{models.FactorSimilarDeviceFingerprint, models.FactorVPNDetected},
			want:  []string{"vpn_evasion"},
		},
		{
			name:  "points farming",
			types: []models.RiskFactorType{models.FactorAutomationDetected, models.FactorPointsVelocityAnomaly},
			want:  []string{"points_farming"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchPatterns(tt.types)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d matches %v, want %v", len(got), got, tt.want)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("match[%d] = %s, want %s", i, got[i].Name, name)
				}
			}
		})
	}
}
