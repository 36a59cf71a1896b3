// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package threat

import (
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// Pattern is a named fraud scheme. It matches only when every indicator
// is present.
type Pattern struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Indicators  []models.RiskFactorType `json:"indicators"`
	RiskScore   float64                 `json:"risk_score"`
}

// PatternMatch is a matched catalog pattern.
type PatternMatch struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Indicators  []models.RiskFactorType `json:"indicators"`
	RiskScore   float64                 `json:"risk_score"`
}

// Catalog is the fixed set of known patterns.
var Catalog = []Pattern{
	{
		Name:        "bot_farm",
		Description: "Automated accounts on one device feeding a referral chain",
		Indicators: []models.RiskFactorType{
			models.FactorBotDetection,
			models.FactorIdenticalDeviceFingerprint,
			models.FactorRapidReferrals,
		},
		RiskScore: 0.95,
	},
	{
		Name:        "multi_account_farm",
		Description: "Several accounts sharing one device and network",
		Indicators: []models.RiskFactorType{
			models.FactorIdenticalDeviceFingerprint,
			models.FactorSharedIP,
		},
		RiskScore: 0.90,
	},
	{
		Name:        "referral_ring",
		Description: "Fresh accounts on a shared network referring each other",
		Indicators: []models.RiskFactorType{
			models.FactorRapidReferrals,
			models.FactorSharedIP,
			models.FactorAccountAgeAnomaly,
		},
		RiskScore: 0.85,
	},
	{
		Name:        "points_farming",
		Description: "Scripted point collection at inhuman speed",
		Indicators: []models.RiskFactorType{
			models.FactorPointsVelocityAnomaly,
			models.FactorAutomationDetected,
		},
		RiskScore: 0.85,
	},
	{
		Name:        "vpn_evasion",
		Description: "A known device returning behind a VPN",
		Indicators: []models.RiskFactorType{
			models.FactorVPNDetected,
			models.FactorSimilarDeviceFingerprint,
		},
		RiskScore: 0.70,
	},
	{
		Name:        "scripted_signup",
		Description: "Automated registration of new accounts",
		Indicators: []models.RiskFactorType{
			models.FactorBotDetection,
			models.FactorAccountAgeAnomaly,
		},
		RiskScore: 0.75,
	},
}

// MatchPatterns returns every catalog pattern whose indicators are all in
// types.
func MatchPatterns(types []models.RiskFactorType) []PatternMatch {
	present := make(map[models.RiskFactorType]struct{}, len(types))
	for _, t := range types {
		present[t] = struct{}{}
	}

	var matches []PatternMatch
	for _, p := range Catalog {
		all := true
		for _, ind := range p.Indicators {
			if _, ok := present[ind]; !ok {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		matches = append(matches, PatternMatch{
			Name:        p.Name,
			Description: p.Description,
			Indicators:  append([]models.RiskFactorType(nil), p.Indicators...),
			RiskScore:   p.RiskScore,
		})
	}
	return matches
}

// categoryOf maps a factor type onto its scoring category. Unlisted types
// count as account evidence.
func categoryOf(t models.RiskFactorType) Category {
	switch t {
	case models.FactorBotDetected, models.FactorBotDetection, models.FactorDeviceFingerprintMismatch,
		models.FactorHardwareInconsistency, models.FactorIdenticalDeviceFingerprint,
		models.FactorSimilarDeviceFingerprint, models.FactorHighDeviceRisk:
		return CategoryDevice
	case models.FactorBehavioralAnomaly, models.FactorAutomationDetected, models.FactorRapidFireEvents:
		return CategoryBehavior
	case models.FactorVPNDetected, models.FactorTorDetected, models.FactorProxyDetected,
		models.FactorSharedIP, models.FactorLocationInconsistency:
		return CategoryNetwork
	default:
		return CategoryAccount
	}
}
