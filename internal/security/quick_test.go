// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"context"
	"errors"
	"testing"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

func TestQuickSecurityCheck(t *testing.T) {
	storeDown := models.NewStoreUnavailable("bans", "get", errors.New("connection refused"))

	tests := []struct {
		name          string
		blockUser     bool
		bannedDevice  bool
		banErr        error
		auditCount    int64
		auditErr      error
		wantSafe      bool
		wantRisk      float64
		wantFailedCls bool
	}{
		{name: "clean", wantSafe: true},
		{name: "one recent violation", auditCount: 1, wantSafe: true, wantRisk: 0.3},
		{name: "two recent violations", auditCount: 2, wantRisk: 0.6},
		{name: "blocked user", blockUser: true, wantRisk: 1},
		{name: "banned device", bannedDevice: true, wantRisk: 1},
		{name: "ban store down fails closed", banErr: storeDown, wantRisk: 1, wantFailedCls: true},
		{name: "audit down fails open", auditErr: errors.New("duckdb closed"), wantSafe: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, allStages())
			ctx := context.Background()
			h.createUser(t, &models.User{ID: "u1"})

			fp, err := h.devices.GenerateFingerprint(ctx, desktopSignals(), "u1")
			if err != nil {
				t.Fatalf("GenerateFingerprint: %v", err)
			}
			if tt.blockUser {
				if err := h.users.BlockUser(ctx, "u1", models.BlockDetails{Reason: "test"}); err != nil {
					t.Fatalf("BlockUser: %v", err)
				}
			}

			bans := &fakeBans{banned: map[string]bool{}, err: tt.banErr}
			if tt.bannedDevice {
				bans.banned[fp.Hash] = true
			}
			h.engine.bans = bans
			h.engine.audit = &fakeAudit{count: tt.auditCount, err: tt.auditErr}

			got, err := h.engine.QuickSecurityCheck(ctx, "u1")
			if err != nil {
				t.Fatalf("QuickSecurityCheck: %v", err)
			}
			if got.Safe != tt.wantSafe {
				t.Errorf("Safe = %v, want %v (%+v)", got.Safe, tt.wantSafe, got)
			}
			if diff := got.RiskScore - tt.wantRisk; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("RiskScore = %v, want %v", got.RiskScore, tt.wantRisk)
			}
			if got.FailedClosed != tt.wantFailedCls {
				t.Errorf("FailedClosed = %v, want %v", got.FailedClosed, tt.wantFailedCls)
			}
		})
	}
}

func TestQuickSecurityCheck_CountsOwnHighRiskAnalyses(t *testing.T) {
	h := newHarness(t, allStages())
	ctx := context.Background()
	h.createUser(t, &models.User{ID: "u2"})
	user := h.createUser(t, &models.User{ID: "u1"})
	other := h.createUser(t, &models.User{ID: "u3"})

	if _, err := h.devices.GenerateFingerprint(ctx, desktopSignals(), "u2"); err != nil {
		t.Fatalf("GenerateFingerprint: %v", err)
	}
	// Two critical analyses for u1, one low one for u3.
	for i := 0; i < 2; i++ {
		if _, err := h.engine.AnalyzeUser(ctx, Request{User: user, DeviceSignals: desktopSignals()}); err != nil {
			t.Fatalf("AnalyzeUser: %v", err)
		}
	}
	if _, err := h.engine.AnalyzeUser(ctx, Request{User: other, DeviceSignals: laptopSignals()}); err != nil {
		t.Fatalf("AnalyzeUser(u3): %v", err)
	}

	got, err := h.engine.QuickSecurityCheck(ctx, "u1")
	if err != nil {
		t.Fatalf("QuickSecurityCheck: %v", err)
	}
	if got.RecentViolations != 2 || got.Safe {
		t.Errorf("u1 result = %+v, want 2 violations and unsafe", got)
	}

	got, err = h.engine.QuickSecurityCheck(ctx, "u3")
	if err != nil {
		t.Fatalf("QuickSecurityCheck(u3): %v", err)
	}
	if got.RecentViolations != 0 || !got.Safe {
		t.Errorf("u3 result = %+v, want safe", got)
	}
}

func TestQuickSecurityCheck_RequiresUser(t *testing.T) {
	h := newHarness(t, allStages())
	if _, err := h.engine.QuickSecurityCheck(context.Background(), ""); err == nil {
		t.Error("empty user id should be rejected")
	}
}
