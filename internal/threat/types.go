// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package threat

import (
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// Category groups risk factors for scoring.
type Category string

const (
	CategoryDevice   Category = "device"
	CategoryBehavior Category = "behavior"
	CategoryNetwork  Category = "network"
	CategoryAccount  Category = "account"
)

// Categories lists every scoring category in a fixed order.
var Categories = []Category{CategoryDevice, CategoryBehavior, CategoryNetwork, CategoryAccount}

// Activity is one recent action by the user under analysis.
type Activity struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	IPAddress string    `json:"ip_address,omitempty"`
	Points    int64     `json:"points,omitempty"`
}

// Input is everything AnalyzeUser looks at. Only User is required.
type Input struct {
	User                *models.User
	Fingerprint         *fingerprint.DeviceFingerprint
	RelatedUsers        []*models.User
	RelatedFingerprints []*fingerprint.DeviceFingerprint
	RecentActivity      []Activity
}

// AnalysisMetadata describes how an Analysis was produced.
type AnalysisMetadata struct {
	Confidence  float64       `json:"confidence"`
	FactorCount int           `json:"factor_count"`
	AnalyzedAt  time.Time     `json:"analyzed_at"`
	Duration    time.Duration `json:"duration"`
	Cached      bool          `json:"cached"`
}

// Analysis is the output of Analyzer.AnalyzeUser.
type Analysis struct {
	UserID           string               `json:"user_id"`
	OverallRiskScore float64              `json:"overall_risk_score"`
	ThreatLevel      models.ThreatLevel   `json:"threat_level"`
	CategoryScores   map[Category]float64 `json:"category_scores"`
	RiskFactors      []models.RiskFactor  `json:"risk_factors"`
	MatchedPatterns  []PatternMatch       `json:"matched_patterns"`
	Recommendations  []string             `json:"recommendations"`
	Metadata         AnalysisMetadata     `json:"metadata"`
}

func (a *Analysis) clone() *Analysis {
	c := *a
	c.CategoryScores = make(map[Category]float64, len(a.CategoryScores))
	for k, v := range a.CategoryScores {
		c.CategoryScores[k] = v
	}
	c.RiskFactors = append([]models.RiskFactor(nil), a.RiskFactors...)
	c.MatchedPatterns = append([]PatternMatch(nil), a.MatchedPatterns...)
	c.Recommendations = append([]string(nil), a.Recommendations...)
	return &c
}

// Event is a single real-time action.
type Event struct {
	Type      string            `json:"type" validate:"required,max=64"`
	Timestamp time.Time         `json:"timestamp"`
	IPAddress string            `json:"ip_address,omitempty" validate:"omitempty,ip"`
	UserAgent string            `json:"user_agent,omitempty" validate:"max=1024"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EventClass is the coarse classification of an Event.
type EventClass string

const (
	EventClassRoutine   EventClass = "routine"
	EventClassSensitive EventClass = "sensitive"
	EventClassFinancial EventClass = "financial"
)

// RealtimeResult is the output of MonitorRealTime.
type RealtimeResult struct {
	UserID          string              `json:"user_id"`
	EventClass      EventClass          `json:"event_class"`
	RiskScore       float64             `json:"risk_score"`
	ShouldBlock     bool                `json:"should_block"`
	ShouldFlag      bool                `json:"should_flag"`
	RiskFactors     []models.RiskFactor `json:"risk_factors"`
	MatchedPatterns []PatternMatch      `json:"matched_patterns"`
	EventCount      int64               `json:"event_count"`
}
