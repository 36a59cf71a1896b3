// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package models

import (
	"time"
)

// Severity classifies how serious a risk factor is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight returns the multiplier applied to a factor score when it is
// aggregated into a category score.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 1.0
	case SeverityHigh:
		return 0.75
	case SeverityMedium:
		return 0.5
	case SeverityLow:
		return 0.25
	default:
		return 0.25
	}
}

// Rank orders severities for comparisons.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RiskFactorType names a kind of evidence. The same vocabulary is used for
// threat-pattern indicators.
type RiskFactorType string

const (
	FactorBotDetected                RiskFactorType = "bot_detected"
	FactorBotDetection               RiskFactorType = "bot_detection"
	FactorDeviceFingerprintMismatch  RiskFactorType = "device_fingerprint_mismatch"
	FactorHardwareInconsistency      RiskFactorType = "hardware_inconsistency"
	FactorVPNDetected                RiskFactorType = "vpn_detected"
	FactorTorDetected                RiskFactorType = "tor_detected"
	FactorProxyDetected              RiskFactorType = "proxy_detected"
	FactorBehavioralAnomaly          RiskFactorType = "behavioral_anomaly"
	FactorAutomationDetected         RiskFactorType = "automation_detected"
	FactorIdenticalDeviceFingerprint RiskFactorType = "identical_device_fingerprint"
	FactorSimilarDeviceFingerprint   RiskFactorType = "similar_device_fingerprint"
	FactorRapidReferrals             RiskFactorType = "rapid_referrals"
	FactorSharedIP                   RiskFactorType = "shared_ip"
	FactorAccountAgeAnomaly          RiskFactorType = "account_age_anomaly"
	FactorPointsVelocityAnomaly      RiskFactorType = "points_velocity_anomaly"
	FactorLocationInconsistency      RiskFactorType = "location_inconsistency"
	FactorRapidFireEvents            RiskFactorType = "rapid_fire_events"
	FactorMultiAccount               RiskFactorType = "multi_account"
	FactorReferralAbuse              RiskFactorType = "referral_abuse"
	FactorSensitiveAction            RiskFactorType = "sensitive_action"
	FactorHighDeviceRisk             RiskFactorType = "high_device_risk"
)

// RiskFactor is one discrete, scored piece of evidence.
type RiskFactor struct {
	Type       RiskFactorType         `json:"type" bson:"type"`
	Severity   Severity               `json:"severity" bson:"severity"`
	Score      float64                `json:"score" bson:"score"`
	Evidence   map[string]interface{} `json:"evidence,omitempty" bson:"evidence,omitempty"`
	DetectedAt time.Time              `json:"detected_at" bson:"detectedAt"`
}

// NewRiskFactor builds a factor with the score clamped into [0,1].
func NewRiskFactor(t RiskFactorType, severity Severity, score float64, evidence map[string]interface{}) RiskFactor {
	return RiskFactor{
		Type:       t,
		Severity:   severity,
		Score:      Clamp01(score),
		Evidence:   evidence,
		DetectedAt: time.Now().UTC(),
	}
}

// ThreatLevel is the coarse classification of an aggregate risk score.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// Rank orders threat levels for comparisons.
func (l ThreatLevel) Rank() int {
	return Severity(l).Rank()
}

// ThreatLevelForScore maps a score onto the 0.8 / 0.6 / 0.4 ladder.
func ThreatLevelForScore(score float64) ThreatLevel {
	switch {
	case score >= 0.8:
		return ThreatCritical
	case score >= 0.6:
		return ThreatHigh
	case score >= 0.4:
		return ThreatMedium
	default:
		return ThreatLow
	}
}

// RecommendedAction is what the engine suggests a collaborator do with a user.
type RecommendedAction string

const (
	ActionMonitor                RecommendedAction = "monitor"
	ActionAdditionalVerification RecommendedAction = "additional_verification"
	ActionEnhancedMonitoring     RecommendedAction = "enhanced_monitoring"
	ActionTemporaryBlock         RecommendedAction = "temporary_block"
	ActionPermanentBlock         RecommendedAction = "permanent_block"
)

// ActionForLevel returns the standard action for a threat level.
func ActionForLevel(level ThreatLevel) RecommendedAction {
	switch level {
	case ThreatCritical:
		return ActionTemporaryBlock
	case ThreatHigh:
		return ActionEnhancedMonitoring
	case ThreatMedium:
		return ActionAdditionalVerification
	default:
		return ActionMonitor
	}
}

// Clamp01 limits v to the closed interval [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FactorTypes returns the distinct factor types in first-seen order.
func FactorTypes(factors []RiskFactor) []RiskFactorType {
	seen := make(map[RiskFactorType]struct{}, len(factors))
	out := make([]RiskFactorType, 0, len(factors))
	for _, f := range factors {
		if _, ok := seen[f.Type]; ok {
			continue
		}
		seen[f.Type] = struct{}{}
		out = append(out, f.Type)
	}
	return out
}
