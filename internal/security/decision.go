// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"math"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

const (
	multiAccountOverride = 0.5
	overrideRiskFloor    = 0.9
	stageCount           = 5
)

// Suggested actions keyed by the stage that fired.
var stageActions = map[Stage][]string{
	StageMultiAccount: {"Block related accounts", "Device ban enforcement"},
	StageBehavioral:   {"Require human verification challenge"},
	StageDevice:       {"Re-verify device ownership"},
	StageNetwork:      {"Restrict anonymized network access"},
	StageThreat:       {"Review matched fraud patterns"},
}

var stageOrder = []Stage{StageMultiAccount, StageBehavioral, StageDevice, StageNetwork, StageThreat}

// stageScore returns a stage's contribution before weighting and whether
// it produced a finding.
func stageScore(a *Analysis, stage Stage) (float64, bool) {
	switch stage {
	case StageMultiAccount:
		if a.MultiAccount != nil {
			return a.MultiAccount.Confidence, a.MultiAccount.Detected
		}
	case StageBehavioral:
		if a.Behavioral != nil {
			return a.Behavioral.AutomationScore, len(a.Behavioral.Indicators) > 0
		}
	case StageDevice:
		if a.Device != nil {
			return 1 - a.Device.TrustScore, a.Device.TrustScore < 1
		}
	case StageNetwork:
		if a.Network != nil {
			return a.Network.Score, a.Network.Score > 0
		}
	case StageThreat:
		if a.Threat != nil {
			return a.Threat.Score, len(a.Threat.MatchedPatterns) > 0
		}
	}
	return 0, false
}

// decide fills Overall, SuggestedActions and the enforcement plan.
func (e *Engine) decide(a *Analysis, req Request) {
	var risk float64
	a.FiredStages = a.FiredStages[:0]
	for _, stage := range stageOrder {
		score, fired := stageScore(a, stage)
		risk += stageWeights[stage] * score
		if fired {
			a.FiredStages = append(a.FiredStages, stage)
		}
	}
	risk = models.Clamp01(risk)

	overall := Overall{
		RiskScore:  risk,
		Confidence: float64(len(a.FiredStages)) / stageCount,
	}
	if ma := a.MultiAccount; ma != nil && ma.Detected && ma.Confidence > multiAccountOverride {
		overall.ThreatLevel = models.ThreatCritical
		overall.RecommendedAction = models.ActionPermanentBlock
		overall.RiskScore = math.Max(risk, overrideRiskFloor)
	} else {
		overall.ThreatLevel = models.ThreatLevelForScore(risk)
		overall.RecommendedAction = models.ActionForLevel(overall.ThreatLevel)
	}
	a.Overall = overall

	a.SuggestedActions = nil
	for _, stage := range a.FiredStages {
		a.SuggestedActions = append(a.SuggestedActions, stageActions[stage]...)
	}
	if len(a.SuggestedActions) == 0 {
		a.SuggestedActions = []string{"Continue monitoring"}
	}

	a.Enforcement = e.plan(a, req)
}

func (e *Engine) plan(a *Analysis, req Request) Plan {
	var p Plan
	hash := a.DeviceHash()

	switch a.Overall.RecommendedAction {
	case models.ActionPermanentBlock:
		p.BlockUser = true
		p.BanDevice = hash != ""
		p.Permanent = true
		p.Reason = "Multiple accounts operated from one device"
		p.ViolationType = "multi_account"
		if a.MultiAccount != nil {
			p.RelatedAccounts = append([]string(nil), a.MultiAccount.RelatedAccounts...)
		}
	case models.ActionTemporaryBlock:
		p.BlockUser = true
		p.BanDevice = hash != ""
		p.DurationHours = e.cfg.TemporaryBanHours
		p.Reason = "Critical security risk"
		p.ViolationType = "high_risk"
	}

	if req.Location != nil && (a.Network == nil || a.Network.LocationConsistent) {
		loc := *req.Location
		p.UpdateLocation = &loc
	}
	return p
}
