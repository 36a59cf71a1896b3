// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSecurityAnalysis(t *testing.T) {
	before := testutil.ToFloat64(SecurityAnalysesTotal.WithLabelValues("critical", "permanent_block"))
	RecordSecurityAnalysis("critical", "permanent_block", 15*time.Millisecond)
	after := testutil.ToFloat64(SecurityAnalysesTotal.WithLabelValues("critical", "permanent_block"))

	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}
}

func TestRecordRateLimitDecision(t *testing.T) {
	before := testutil.ToFloat64(RateLimitDecisions.WithLabelValues("point_claim", "denied"))
	RecordRateLimitDecision("point_claim", "denied")
	RecordRateLimitDecision("point_claim", "denied")
	after := testutil.ToFloat64(RateLimitDecisions.WithLabelValues("point_claim", "denied"))

	if after-before != 2 {
		t.Errorf("counter delta = %v, want 2", after-before)
	}
}

func TestRecordCollisionCheck(t *testing.T) {
	before := testutil.ToFloat64(CollisionChecks.WithLabelValues("high", "inline"))
	RecordCollisionCheck("high", "inline")
	if got := testutil.ToFloat64(CollisionChecks.WithLabelValues("high", "inline")) - before; got != 1 {
		t.Errorf("counter delta = %v, want 1", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/fingerprints", "200"))
	RecordAPIRequest("POST", "/api/v1/fingerprints", "200", 3*time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/fingerprints", "200")) - before; got != 1 {
		t.Errorf("counter delta = %v, want 1", got)
	}
}
