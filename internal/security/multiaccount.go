// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"context"
	"errors"
	"math"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

const (
	maxBehaviorComparisons = 15
	minBehaviorSamples     = 3
	behaviorMeanTolerance  = 0.1
)

// collisionConfidence maps the collision ladder onto violation confidence.
var collisionConfidence = map[fingerprint.CollisionRisk]float64{
	fingerprint.CollisionRiskCritical: 0.9,
	fingerprint.CollisionRiskHigh:     0.75,
	fingerprint.CollisionRiskMedium:   0.5,
	fingerprint.CollisionRiskLow:      0.3,
}

// analyzeMultiAccount runs the collision, behavioral match, network overlap
// and referral checks. An exact device-hash collision short-circuits the
// rest with confidence 1.0.
func (e *Engine) analyzeMultiAccount(ctx context.Context, req Request, a *Analysis, collision *fingerprint.CollisionResult, related *relatedSet) *MultiAccountResult {
	res := &MultiAccountResult{}

	if _, failed := a.StageErrors[StageMultiAccount]; failed && a.Fingerprint != nil {
		// Registration-time checks fail closed: an unknown collision state
		// counts as a weak violation rather than a clean device.
		res.Violations = append(res.Violations, Violation{
			Type:       ViolationCollisionUnknown,
			Severity:   models.SeverityMedium,
			Confidence: 0.5,
		})
	}

	var colliding []string
	if collision != nil && collision.HasCollision {
		colliding = collision.CollidingUsers
		related.add(colliding...)

		if collision.ExactMatch {
			res.ExactMatch = true
			res.Violations = append(res.Violations, Violation{
				Type:         ViolationDeviceCollision,
				Severity:     models.SeverityCritical,
				Confidence:   1.0,
				RelatedUsers: append([]string(nil), colliding...),
				Evidence: map[string]interface{}{
					"riskLevel":      string(collision.RiskLevel),
					"collidingUsers": len(colliding),
				},
			})
			return finishMultiAccount(res, related)
		}

		res.Violations = append(res.Violations, Violation{
			Type:         ViolationSimilarDevice,
			Severity:     collisionSeverity(collision.RiskLevel),
			Confidence:   collisionConfidence[collision.RiskLevel],
			RelatedUsers: append([]string(nil), colliding...),
			Evidence: map[string]interface{}{
				"riskLevel":      string(collision.RiskLevel),
				"similarDevices": len(collision.SimilarDevices),
			},
		})

		if v, ok := e.behavioralMatch(ctx, a, colliding); ok {
			res.Violations = append(res.Violations, v)
		}
	}

	if v, ok := e.networkOverlap(ctx, req, a); ok {
		related.add(v.RelatedUsers...)
		res.Violations = append(res.Violations, v)
	}

	if v, ok := e.referralAbuse(ctx, req, a, colliding); ok {
		related.add(v.RelatedUsers...)
		res.Violations = append(res.Violations, v)
	}

	return finishMultiAccount(res, related)
}

func finishMultiAccount(res *MultiAccountResult, related *relatedSet) *MultiAccountResult {
	for _, v := range res.Violations {
		res.Confidence = math.Max(res.Confidence, v.Confidence)
	}
	res.Detected = len(res.Violations) > 0
	res.RelatedAccounts = related.list()
	return res
}

func collisionSeverity(risk fingerprint.CollisionRisk) models.Severity {
	switch risk {
	case fingerprint.CollisionRiskCritical:
		return models.SeverityCritical
	case fingerprint.CollisionRiskHigh:
		return models.SeverityHigh
	case fingerprint.CollisionRiskMedium:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// behavioralMatch compares the interaction timing captured with this
// fingerprint against the colliding users' stored captures.
func (e *Engine) behavioralMatch(ctx context.Context, a *Analysis, colliding []string) (Violation, bool) {
	mine := a.Fingerprint.Components.Behavioral
	if len(mine.EventIntervals) < minBehaviorSamples && len(mine.TimingSamples) < minBehaviorSamples {
		return Violation{}, false
	}

	store := e.devices.Store()
	var matched []string
	for i, userID := range colliding {
		if i >= maxBehaviorComparisons {
			break
		}
		fps, err := store.FindByUser(ctx, userID)
		if err != nil {
			e.stageFailed(ctx, a, StageMultiAccount, wrapCheck(ViolationBehavioralMatch, err))
			return Violation{}, false
		}
		for _, other := range fps {
			if sameRhythm(mine, other.Components.Behavioral) {
				matched = append(matched, userID)
				break
			}
		}
	}
	if len(matched) == 0 {
		return Violation{}, false
	}
	return Violation{
		Type:         ViolationBehavioralMatch,
		Severity:     models.SeverityMedium,
		Confidence:   0.6,
		RelatedUsers: matched,
		Evidence:     map[string]interface{}{"matchedUsers": len(matched)},
	}, true
}

// sameRhythm reports whether two captures have means within tolerance on
// every series both sides recorded.
func sameRhythm(a, b fingerprint.BehavioralSignals) bool {
	compared := 0
	for _, pair := range [][2][]float64{
		{a.EventIntervals, b.EventIntervals},
		{a.TimingSamples, b.TimingSamples},
	} {
		if len(pair[0]) < minBehaviorSamples || len(pair[1]) < minBehaviorSamples {
			continue
		}
		ma, mb := mean(pair[0]), mean(pair[1])
		if ma <= 0 || mb <= 0 || math.Abs(ma-mb)/math.Max(ma, mb) > behaviorMeanTolerance {
			return false
		}
		compared++
	}
	return compared > 0
}

// networkOverlap looks for other recently registered users on this IP.
func (e *Engine) networkOverlap(ctx context.Context, req Request, a *Analysis) (Violation, bool) {
	if a.IPAddress == "" || e.users == nil {
		return Violation{}, false
	}
	recent, err := e.users.GetUsersRegisteredRecently(ctx, e.cfg.RecentRegistrationWindow)
	if err != nil {
		e.stageFailed(ctx, a, StageMultiAccount, wrapCheck(ViolationNetworkOverlap, err))
		return Violation{}, false
	}

	var sharing []string
	for _, u := range recent {
		if u.ID != req.User.ID && u.LastIP == a.IPAddress {
			sharing = append(sharing, u.ID)
		}
	}
	if len(sharing) == 0 {
		return Violation{}, false
	}

	sev := models.SeverityMedium
	if len(sharing) >= 3 {
		sev = models.SeverityHigh
	}
	return Violation{
		Type:         ViolationNetworkOverlap,
		Severity:     sev,
		Confidence:   math.Min(0.9, 0.4+0.15*float64(len(sharing))),
		RelatedUsers: sharing,
		Evidence:     map[string]interface{}{"sharedIpUsers": len(sharing)},
	}, true
}

// referralAbuse flags a referral whose referrer shares the device or the IP.
func (e *Engine) referralAbuse(ctx context.Context, req Request, a *Analysis, colliding []string) (Violation, bool) {
	referrer := req.User.ReferredBy
	if referrer == "" || referrer == req.User.ID {
		return Violation{}, false
	}

	for _, id := range colliding {
		if id == referrer {
			return Violation{
				Type:         ViolationReferralAbuse,
				Severity:     models.SeverityHigh,
				Confidence:   0.85,
				RelatedUsers: []string{referrer},
				Evidence:     map[string]interface{}{"shared": "device"},
			}, true
		}
	}

	if a.IPAddress == "" || e.users == nil {
		return Violation{}, false
	}
	ref, err := e.users.GetUser(ctx, referrer)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			e.stageFailed(ctx, a, StageMultiAccount, wrapCheck(ViolationReferralAbuse, err))
		}
		return Violation{}, false
	}
	if ref.LastIP != a.IPAddress {
		return Violation{}, false
	}
	return Violation{
		Type:         ViolationReferralAbuse,
		Severity:     models.SeverityMedium,
		Confidence:   0.6,
		RelatedUsers: []string{referrer},
		Evidence:     map[string]interface{}{"shared": "ip"},
	}, true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
