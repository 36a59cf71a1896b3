// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/threat"
)

// Stage names one step of the analysis pipeline.
type Stage string

const (
	StageMultiAccount Stage = "multi_account"
	StageBehavioral   Stage = "behavioral"
	StageDevice       Stage = "device_trust"
	StageNetwork      Stage = "network"
	StageThreat       Stage = "threat_patterns"
)

// stageWeights are the shares of the overall risk score.
var stageWeights = map[Stage]float64{
	StageMultiAccount: 0.30,
	StageBehavioral:   0.25,
	StageDevice:       0.20,
	StageNetwork:      0.10,
	StageThreat:       0.15,
}

// MousePoint is one sampled cursor position. T is milliseconds since the
// capture started.
type MousePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	T int64   `json:"t"`
}

// Keystroke is one key press, in milliseconds since the capture started.
type Keystroke struct {
	DownAt int64 `json:"down_at"`
	UpAt   int64 `json:"up_at"`
}

// SessionSignals summarizes a client session.
type SessionSignals struct {
	DurationMs         int64 `json:"duration_ms"`
	Interactions       int   `json:"interactions"`
	ReplayDetected     bool  `json:"replay_detected"`
	IdenticalSequences int   `json:"identical_sequences"`
}

// BehaviorSignals is the optional interaction capture for a request.
type BehaviorSignals struct {
	Mouse      []MousePoint   `json:"mouse,omitempty"`
	Keystrokes []Keystroke    `json:"keystrokes,omitempty"`
	Session    SessionSignals `json:"session"`
}

// Request is the input to Engine.AnalyzeUser.
type Request struct {
	User           *models.User               `json:"user" validate:"required"`
	DeviceSignals  *fingerprint.DeviceSignals `json:"device_signals,omitempty"`
	Behavior       *BehaviorSignals           `json:"behavior,omitempty"`
	IPAddress      string                     `json:"ip_address,omitempty" validate:"omitempty,ip"`
	Location       *models.GeoPoint           `json:"location,omitempty"`
	RecentActivity []threat.Activity          `json:"recent_activity,omitempty"`
}

// Violation is one multi-account finding.
type Violation struct {
	Type         string                 `json:"type"`
	Severity     models.Severity        `json:"severity"`
	Confidence   float64                `json:"confidence"`
	RelatedUsers []string               `json:"related_users,omitempty"`
	Evidence     map[string]interface{} `json:"evidence,omitempty"`
}

// Violation types raised by the multi-account stage.
const (
	ViolationDeviceCollision  = "device_collision"
	ViolationSimilarDevice    = "similar_device"
	ViolationBehavioralMatch  = "behavioral_match"
	ViolationNetworkOverlap   = "network_overlap"
	ViolationReferralAbuse    = "referral_abuse"
	ViolationCollisionUnknown = "collision_check_unavailable"
)

// MultiAccountResult is the outcome of the multi-account stage.
type MultiAccountResult struct {
	Detected        bool        `json:"detected"`
	Confidence      float64     `json:"confidence"`
	ExactMatch      bool        `json:"exact_match"`
	Violations      []Violation `json:"violations"`
	RelatedAccounts []string    `json:"related_accounts"`
}

// BehavioralResult is the outcome of the behavioral stage.
type BehavioralResult struct {
	AutomationScore float64  `json:"automation_score"`
	HumanLikelihood float64  `json:"human_likelihood"`
	MouseScore      *float64 `json:"mouse_score,omitempty"`
	KeyboardScore   *float64 `json:"keyboard_score,omitempty"`
	SessionScore    *float64 `json:"session_score,omitempty"`
	Indicators      []string `json:"indicators,omitempty"`
}

// DeviceResult is the outcome of the device trust stage.
type DeviceResult struct {
	DeviceHash         string                      `json:"device_hash"`
	TrustScore         float64                     `json:"trust_score"`
	Collisions         []fingerprint.SimilarDevice `json:"collisions,omitempty"`
	CollisionRisk      fingerprint.CollisionRisk   `json:"collision_risk"`
	ScanPending        bool                        `json:"scan_pending"`
	SpoofingIndicators []string                    `json:"spoofing_indicators,omitempty"`
}

// NetworkResult is the outcome of the network stage.
type NetworkResult struct {
	IPAddress          string   `json:"ip_address,omitempty"`
	IsVPN              bool     `json:"is_vpn"`
	IsTor              bool     `json:"is_tor"`
	IsProxy            bool     `json:"is_proxy"`
	Providers          []string `json:"providers,omitempty"`
	LocationConsistent bool     `json:"location_consistent"`
	DistanceKm         float64  `json:"distance_km,omitempty"`
	ImpliedSpeedKmh    float64  `json:"implied_speed_kmh,omitempty"`
	Score              float64  `json:"score"`
}

// ThreatResult is the outcome of the threat pattern stage.
type ThreatResult struct {
	Analysis        *threat.Analysis        `json:"analysis,omitempty"`
	Indicators      []models.RiskFactorType `json:"indicators"`
	MatchedPatterns []threat.PatternMatch   `json:"matched_patterns"`
	Score           float64                 `json:"score"`
}

// Overall is the aggregate decision.
type Overall struct {
	RiskScore         float64                  `json:"risk_score"`
	ThreatLevel       models.ThreatLevel       `json:"threat_level"`
	Confidence        float64                  `json:"confidence"`
	RecommendedAction models.RecommendedAction `json:"recommended_action"`
}

// Plan is what Enforce will do with an analysis.
type Plan struct {
	BlockUser       bool             `json:"block_user"`
	BanDevice       bool             `json:"ban_device"`
	Permanent       bool             `json:"permanent"`
	DurationHours   int              `json:"duration_hours,omitempty"`
	RelatedAccounts []string         `json:"related_accounts,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	ViolationType   string           `json:"violation_type,omitempty"`
	UpdateLocation  *models.GeoPoint `json:"update_location,omitempty"`
}

// Analysis is the per-call result of AnalyzeUser. It is never persisted as
// is; a compact audit record is derived from it.
type Analysis struct {
	UserID           string                         `json:"user_id"`
	IPAddress        string                         `json:"ip_address,omitempty"`
	Fingerprint      *fingerprint.DeviceFingerprint `json:"-"`
	MultiAccount     *MultiAccountResult            `json:"multi_account,omitempty"`
	Behavioral       *BehavioralResult              `json:"behavioral,omitempty"`
	Device           *DeviceResult                  `json:"device,omitempty"`
	Network          *NetworkResult                 `json:"network,omitempty"`
	Threat           *ThreatResult                  `json:"threat,omitempty"`
	Overall          Overall                        `json:"overall"`
	SuggestedActions []string                       `json:"suggested_actions"`
	Enforcement      Plan                           `json:"enforcement"`
	BlockedEarly     bool                           `json:"blocked_early"`
	FiredStages      []Stage                        `json:"fired_stages"`
	StageErrors      map[Stage]string               `json:"stage_errors,omitempty"`
	AnalyzedAt       time.Time                      `json:"analyzed_at"`
	Duration         time.Duration                  `json:"duration"`
}

// DeviceHash returns the analyzed device hash, or "".
func (a *Analysis) DeviceHash() string {
	if a.Fingerprint == nil {
		return ""
	}
	return a.Fingerprint.Hash
}

// EnforcementResult reports what Enforce applied.
type EnforcementResult struct {
	UserBlocked     bool     `json:"user_blocked"`
	DeviceBanned    bool     `json:"device_banned"`
	BannedAccounts  int      `json:"banned_accounts"`
	LocationUpdated bool     `json:"location_updated"`
	Errors          []string `json:"errors,omitempty"`
}

// QuickCheckResult is the output of QuickSecurityCheck.
type QuickCheckResult struct {
	UserID           string    `json:"user_id"`
	Safe             bool      `json:"safe"`
	RiskScore        float64   `json:"risk_score"`
	IsBlocked        bool      `json:"is_blocked"`
	DeviceBanned     bool      `json:"device_banned"`
	BannedDevices    []string  `json:"banned_devices,omitempty"`
	RecentViolations int64     `json:"recent_violations"`
	FailedClosed     bool      `json:"failed_closed"`
	Reasons          []string  `json:"reasons,omitempty"`
	CheckedAt        time.Time `json:"checked_at"`
}
