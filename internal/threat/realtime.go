// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package threat

import (
	"context"
	"sort"
	"strings"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/validation"
)

const (
	realtimeBlockThreshold = 0.8
	realtimeFlagThreshold  = 0.6
	maxIPsPerWindow        = 3
)

var financialEvents = map[string]struct{}{
	"point_claim":       {},
	"wallet_connection": {},
	"withdrawal":        {},
	"transfer":          {},
}

var sensitiveEvents = map[string]struct{}{
	"task_submission": {},
	"referral_code":   {},
	"login":           {},
	"settings_change": {},
}

func classifyEvent(eventType string) EventClass {
	t := strings.ToLower(eventType)
	if _, ok := financialEvents[t]; ok {
		return EventClassFinancial
	}
	if _, ok := sensitiveEvents[t]; ok {
		return EventClassSensitive
	}
	return EventClassRoutine
}

// MonitorRealTime scores a single event. The risk score is the mean of the
// factors raised by this event alone.
func (a *Analyzer) MonitorRealTime(ctx context.Context, userID string, ev Event) (*RealtimeResult, error) {
	if userID == "" {
		return nil, &models.ValidationError{Field: "user_id", Reason: "user id is required"}
	}
	if err := validation.ValidateStruct(ev); err != nil {
		return nil, err
	}

	class := classifyEvent(ev.Type)
	var factors []models.RiskFactor

	count := a.windows.Increment(userID)
	if threshold := int64(a.cfg.RapidFireThreshold); count > threshold {
		score := 0.6 + 0.4*float64(count-threshold)/float64(threshold)
		factors = append(factors, models.NewRiskFactor(models.FactorRapidFireEvents, models.SeverityHigh, score,
			map[string]interface{}{"events": count, "window": a.cfg.RapidFireWindow.String()}))
	}

	switch class {
	case EventClassFinancial:
		factors = append(factors, models.NewRiskFactor(models.FactorSensitiveAction, models.SeverityMedium, 0.4,
			map[string]interface{}{"event": ev.Type}))
	case EventClassSensitive:
		factors = append(factors, models.NewRiskFactor(models.FactorSensitiveAction, models.SeverityLow, 0.2,
			map[string]interface{}{"event": ev.Type}))
	}

	if ev.UserAgent != "" {
		if verdict := a.userAgents.Detect(ev.UserAgent); verdict.Automated() {
			categories := make([]string, 0, len(verdict.Categories))
			for c := range verdict.Categories {
				categories = append(categories, string(c))
			}
			sort.Strings(categories)
			factors = append(factors, models.NewRiskFactor(models.FactorAutomationDetected, models.SeverityCritical, 0.9,
				map[string]interface{}{"categories": categories}))
		}
	}
	if isTruthy(ev.Metadata["webdriver"]) || isTruthy(ev.Metadata["headless"]) {
		factors = append(factors, models.NewRiskFactor(models.FactorBotDetection, models.SeverityCritical, 0.95,
			map[string]interface{}{"indicator": "automation_flag"}))
	}

	if ev.IPAddress != "" {
		factors = append(factors, a.networkFactors(userID, ev.IPAddress)...)
	}

	result := &RealtimeResult{
		UserID:          userID,
		EventClass:      class,
		RiskFactors:     factors,
		MatchedPatterns: MatchPatterns(models.FactorTypes(factors)),
		EventCount:      count,
	}
	if len(factors) > 0 {
		var sum float64
		for _, f := range factors {
			sum += f.Score
		}
		result.RiskScore = models.Clamp01(sum / float64(len(factors)))
	}
	result.ShouldBlock = result.RiskScore >= realtimeBlockThreshold
	result.ShouldFlag = result.RiskScore >= realtimeFlagThreshold

	outcome := "allow"
	switch {
	case result.ShouldBlock:
		outcome = "block"
	case result.ShouldFlag:
		outcome = "flag"
	}
	metrics.RealtimeEvents.WithLabelValues(outcome).Inc()

	if result.ShouldFlag {
		logging.Ctx(ctx).Warn().
			Str("user_id", logging.SanitizeUserID(userID)).
			Str("event", ev.Type).
			Float64("risk_score", result.RiskScore).
			Bool("block", result.ShouldBlock).
			Msg("Suspicious real-time event")
	}
	return result, nil
}

func (a *Analyzer) networkFactors(userID, ip string) []models.RiskFactor {
	var out []models.RiskFactor

	if c := a.classifier(); c != nil {
		cls := c.Classify(ip)
		switch {
		case cls.IsTor:
			out = append(out, models.NewRiskFactor(models.FactorTorDetected, models.SeverityHigh, 0.8,
				map[string]interface{}{"providers": cls.Providers}))
		case cls.IsProxy:
			out = append(out, models.NewRiskFactor(models.FactorProxyDetected, models.SeverityMedium, 0.6,
				map[string]interface{}{"providers": cls.Providers}))
		case cls.IsVPN:
			out = append(out, models.NewRiskFactor(models.FactorVPNDetected, models.SeverityMedium, 0.5,
				map[string]interface{}{"providers": cls.Providers}))
		}
	}

	if n := a.ipsPerUser.Add(userID, ip); n > maxIPsPerWindow {
		out = append(out, models.NewRiskFactor(models.FactorLocationInconsistency, models.SeverityMedium,
			0.5+0.1*float64(n-maxIPsPerWindow), map[string]interface{}{"distinctIPs": n}))
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
