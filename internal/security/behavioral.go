// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"math"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// Behavioral indicators.
const (
	IndicatorLinearMouse       = "linear_mouse_movement"
	IndicatorConstantVelocity  = "constant_mouse_velocity"
	IndicatorImpossibleTiming  = "impossible_event_timing"
	IndicatorUniformDwell      = "uniform_key_dwell"
	IndicatorUniformFlight     = "uniform_key_flight"
	IndicatorSuperhumanTyping  = "superhuman_typing"
	IndicatorSessionReplay     = "session_replay"
	IndicatorBurstSession      = "burst_session"
	IndicatorRepeatedSequences = "repeated_sequences"
)

const (
	minMousePoints     = 3
	minKeystrokes      = 3
	linearThreshold    = 0.99
	uniformCV          = 0.1
	minHumanDwellMs    = 5
	burstSessionMs     = 2000
	burstInteractions  = 20
	automationFiringAt = 0.5
)

// analyzeBehavior scores the interaction capture. Missing or short
// captures produce no findings.
func analyzeBehavior(b *BehaviorSignals) *BehavioralResult {
	res := &BehavioralResult{HumanLikelihood: 1}
	if b == nil {
		return res
	}

	var scores []float64
	if s, ind, ok := scoreMouse(b.Mouse); ok {
		res.MouseScore = &s
		res.Indicators = append(res.Indicators, ind...)
		scores = append(scores, s)
	}
	if s, ind, ok := scoreKeyboard(b.Keystrokes); ok {
		res.KeyboardScore = &s
		res.Indicators = append(res.Indicators, ind...)
		scores = append(scores, s)
	}
	if s, ind, ok := scoreSession(b.Session); ok {
		res.SessionScore = &s
		res.Indicators = append(res.Indicators, ind...)
		scores = append(scores, s)
	}

	if len(scores) > 0 {
		res.AutomationScore = models.Clamp01(mean(scores))
		res.HumanLikelihood = 1 - res.AutomationScore
	}
	return res
}

func scoreMouse(points []MousePoint) (float64, []string, bool) {
	if len(points) < minMousePoints {
		return 0, nil, false
	}

	var path float64
	var velocities []float64
	var indicators []string
	score := 0.0
	badTiming := false

	for i := 1; i < len(points); i++ {
		d := math.Hypot(points[i].X-points[i-1].X, points[i].Y-points[i-1].Y)
		path += d
		dt := points[i].T - points[i-1].T
		if dt <= 0 {
			badTiming = true
			continue
		}
		velocities = append(velocities, d/float64(dt))
	}

	first, last := points[0], points[len(points)-1]
	direct := math.Hypot(last.X-first.X, last.Y-first.Y)
	if path > 0 && direct/path >= linearThreshold {
		score += 0.5
		indicators = append(indicators, IndicatorLinearMouse)
	}
	if cv, ok := coefficientOfVariation(velocities); ok && cv < uniformCV {
		score += 0.5
		indicators = append(indicators, IndicatorConstantVelocity)
	}
	if badTiming {
		score += 0.5
		indicators = append(indicators, IndicatorImpossibleTiming)
	}
	return models.Clamp01(score), indicators, true
}

func scoreKeyboard(keys []Keystroke) (float64, []string, bool) {
	if len(keys) < minKeystrokes {
		return 0, nil, false
	}

	dwell := make([]float64, 0, len(keys))
	flight := make([]float64, 0, len(keys)-1)
	fast := false
	for i, k := range keys {
		d := float64(k.UpAt - k.DownAt)
		if d < minHumanDwellMs {
			fast = true
		}
		dwell = append(dwell, d)
		if i > 0 {
			flight = append(flight, float64(k.DownAt-keys[i-1].UpAt))
		}
	}

	var indicators []string
	score := 0.0
	if cv, ok := coefficientOfVariation(dwell); ok && cv < uniformCV {
		score += 0.5
		indicators = append(indicators, IndicatorUniformDwell)
	}
	if cv, ok := coefficientOfVariation(flight); ok && cv < uniformCV {
		score += 0.4
		indicators = append(indicators, IndicatorUniformFlight)
	}
	if fast {
		score += 0.4
		indicators = append(indicators, IndicatorSuperhumanTyping)
	}
	return models.Clamp01(score), indicators, true
}

func scoreSession(s SessionSignals) (float64, []string, bool) {
	if s == (SessionSignals{}) {
		return 0, nil, false
	}
	if s.ReplayDetected {
		return 1, []string{IndicatorSessionReplay}, true
	}

	var indicators []string
	score := 0.0
	if s.DurationMs > 0 && s.DurationMs < burstSessionMs && s.Interactions > burstInteractions {
		score += 0.6
		indicators = append(indicators, IndicatorBurstSession)
	}
	if s.IdenticalSequences > 0 {
		score += 0.5
		indicators = append(indicators, IndicatorRepeatedSequences)
	}
	return models.Clamp01(score), indicators, true
}

// coefficientOfVariation needs at least two values and a positive mean.
func coefficientOfVariation(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	m := mean(values)
	if m <= 0 {
		return 0, false
	}
	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance) / m, true
}
