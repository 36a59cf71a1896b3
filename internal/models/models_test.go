// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestThreatLevelForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  ThreatLevel
	}{
		{0, ThreatLow},
		{0.39, ThreatLow},
		{0.4, ThreatMedium},
		{0.59, ThreatMedium},
		{0.6, ThreatHigh},
		{0.79, ThreatHigh},
		{0.8, ThreatCritical},
		{1, ThreatCritical},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2f", tt.score), func(t *testing.T) {
			if got := ThreatLevelForScore(tt.score); got != tt.want {
				t.Errorf("ThreatLevelForScore(%v) = %s, want %s", tt.score, got, tt.want)
			}
		})
	}
}

func TestThreatLevelMonotonic(t *testing.T) {
	prev := ThreatLevelForScore(0).Rank()
	for i := 1; i <= 100; i++ {
		rank := ThreatLevelForScore(float64(i) / 100).Rank()
		if rank < prev {
			t.Fatalf("threat level decreased at score %.2f", float64(i)/100)
		}
		prev = rank
	}
}

func TestNewRiskFactorClampsScore(t *testing.T) {
	f := NewRiskFactor(FactorBotDetected, SeverityHigh, 1.7, nil)
	if f.Score != 1 {
		t.Errorf("Score = %v, want 1", f.Score)
	}
	f = NewRiskFactor(FactorBotDetected, SeverityHigh, -0.2, nil)
	if f.Score != 0 {
		t.Errorf("Score = %v, want 0", f.Score)
	}
	if f.DetectedAt.IsZero() {
		t.Error("DetectedAt not set")
	}
}

func TestSeverityWeight(t *testing.T) {
	if SeverityCritical.Weight() != 1.0 || SeverityHigh.Weight() != 0.75 ||
		SeverityMedium.Weight() != 0.5 || SeverityLow.Weight() != 0.25 {
		t.Error("unexpected severity weights")
	}
}

func TestFactorTypesDeduplicates(t *testing.T) {
	factors := []RiskFactor{
		{Type: FactorSharedIP},
		{Type: FactorBotDetection},
		{Type: FactorSharedIP},
	}
	got := FactorTypes(factors)
	if len(got) != 2 || got[0] != FactorSharedIP || got[1] != FactorBotDetection {
		t.Errorf("FactorTypes = %v", got)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	banned := fmt.Errorf("generate: %w", &DeviceBannedError{DeviceHash: "abcdef0123456789abcdef", Reason: "multi-account"})
	if !IsDeviceBanned(banned) {
		t.Error("expected wrapped DeviceBannedError to be detected")
	}

	cause := errors.New("connection refused")
	err := NewStoreUnavailable("ban", "get", cause)
	if !IsStoreUnavailable(err) {
		t.Error("expected StoreUnavailableError")
	}
	if !errors.Is(err, cause) {
		t.Error("StoreUnavailableError should unwrap to its cause")
	}
	if again := NewStoreUnavailable("other", "op", err); again != err {
		t.Error("already wrapped errors should be returned unchanged")
	}
	if NewStoreUnavailable("ban", "get", nil) != nil {
		t.Error("nil error should stay nil")
	}

	var ve error = &ValidationError{Field: "hardware.screen_resolution", Reason: "required"}
	if ve.Error() != "validation failed on hardware.screen_resolution: required" {
		t.Errorf("unexpected message: %s", ve.Error())
	}
}

func TestActionForLevel(t *testing.T) {
	cases := map[ThreatLevel]RecommendedAction{
		ThreatCritical: ActionTemporaryBlock,
		ThreatHigh:     ActionEnhancedMonitoring,
		ThreatMedium:   ActionAdditionalVerification,
		ThreatLow:      ActionMonitor,
	}
	for level, want := range cases {
		if got := ActionForLevel(level); got != want {
			t.Errorf("ActionForLevel(%s) = %s, want %s", level, got, want)
		}
	}
}
