// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"context"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/threat"
)

const maxRelatedLookups = 15

// analyzeThreats runs the threat analyzer over the user and the accounts
// linked so far, then matches its factors plus the indicators raised by
// the earlier stages against the pattern catalog.
func (e *Engine) analyzeThreats(ctx context.Context, req Request, a *Analysis, related *relatedSet) *ThreatResult {
	res := &ThreatResult{}

	if e.threats != nil {
		in := threat.Input{
			User:           req.User,
			Fingerprint:    a.Fingerprint,
			RecentActivity: req.RecentActivity,
		}
		in.RelatedUsers, in.RelatedFingerprints = e.loadRelated(ctx, a, related.list())
		res.Analysis = e.threats.AnalyzeUser(ctx, in)
	}

	var types []models.RiskFactorType
	if res.Analysis != nil {
		types = append(types, models.FactorTypes(res.Analysis.RiskFactors)...)
	}
	types = append(types, stageIndicators(a)...)
	res.Indicators = dedupeTypes(types)

	res.MatchedPatterns = threat.MatchPatterns(res.Indicators)
	score := 0.0
	for _, m := range res.MatchedPatterns {
		score += m.RiskScore
	}
	res.Score = models.Clamp01(score)
	return res
}

// loadRelated fetches related users and every fingerprint sharing the
// device hash or belonging to a related user. Lookups fail open.
func (e *Engine) loadRelated(ctx context.Context, a *Analysis, ids []string) ([]*models.User, []*fingerprint.DeviceFingerprint) {
	var users []*models.User
	var fps []*fingerprint.DeviceFingerprint
	seen := make(map[string]struct{})
	addFP := func(list []*fingerprint.DeviceFingerprint) {
		for _, fp := range list {
			key := fingerprint.RecordID(fp.Hash, fp.UserID)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			fps = append(fps, fp)
		}
	}

	var store fingerprint.Store
	if e.devices != nil {
		store = e.devices.Store()
	}
	if store != nil && a.Fingerprint != nil {
		same, err := store.FindByHash(ctx, a.Fingerprint.Hash)
		if err != nil {
			e.stageFailed(ctx, a, StageThreat, err)
		} else {
			addFP(same)
		}
	}

	for i, id := range ids {
		if i >= maxRelatedLookups {
			break
		}
		if e.users != nil {
			if u, err := e.users.GetUser(ctx, id); err == nil {
				users = append(users, u)
			}
		}
		if store != nil {
			if list, err := store.FindByUser(ctx, id); err == nil {
				addFP(list)
			}
		}
	}
	return users, fps
}

// stageIndicators translates earlier stage findings into factor types.
func stageIndicators(a *Analysis) []models.RiskFactorType {
	var out []models.RiskFactorType

	if ma := a.MultiAccount; ma != nil && ma.Detected {
		out = append(out, models.FactorMultiAccount)
		if ma.ExactMatch {
			out = append(out, models.FactorIdenticalDeviceFingerprint)
		}
		for _, v := range ma.Violations {
			switch v.Type {
			case ViolationSimilarDevice:
				out = append(out, models.FactorSimilarDeviceFingerprint)
			case ViolationNetworkOverlap:
				out = append(out, models.FactorSharedIP)
			case ViolationReferralAbuse:
				out = append(out, models.FactorReferralAbuse)
			case ViolationBehavioralMatch:
				out = append(out, models.FactorBehavioralAnomaly)
			}
		}
	}

	if b := a.Behavioral; b != nil && b.AutomationScore >= automationFiringAt {
		out = append(out, models.FactorAutomationDetected)
	}

	if d := a.Device; d != nil {
		for _, s := range d.SpoofingIndicators {
			out = append(out, models.RiskFactorType(s))
		}
	}

	if n := a.Network; n != nil {
		if n.IsVPN {
			out = append(out, models.FactorVPNDetected)
		}
		if n.IsTor {
			out = append(out, models.FactorTorDetected)
		}
		if n.IsProxy {
			out = append(out, models.FactorProxyDetected)
		}
		if !n.LocationConsistent {
			out = append(out, models.FactorLocationInconsistency)
		}
	}
	return out
}

func dedupeTypes(types []models.RiskFactorType) []models.RiskFactorType {
	seen := make(map[models.RiskFactorType]struct{}, len(types))
	out := make([]models.RiskFactorType, 0, len(types))
	for _, t := range types {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
