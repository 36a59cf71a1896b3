// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

const (
	collisionPenalty = 0.3
	spoofingPenalty  = 0.2
)

// analyzeDevice derives the trust score: 1.0 less 0.3 per colliding device
// and 0.2 when any spoofing indicator is present, floored at zero.
func analyzeDevice(fp *fingerprint.DeviceFingerprint, collision *fingerprint.CollisionResult) *DeviceResult {
	res := &DeviceResult{
		DeviceHash:    fp.Hash,
		TrustScore:    1,
		CollisionRisk: fingerprint.CollisionRiskLow,
	}

	if collision != nil {
		res.Collisions = append(res.Collisions, collision.SimilarDevices...)
		res.CollisionRisk = collision.RiskLevel
		res.ScanPending = collision.Pending
	}

	for _, f := range fp.Metadata.RiskFactors {
		switch f.Type {
		case models.FactorHardwareInconsistency, models.FactorDeviceFingerprintMismatch,
			models.FactorBotDetected, models.FactorBotDetection:
			res.SpoofingIndicators = append(res.SpoofingIndicators, string(f.Type))
		}
	}

	trust := 1 - collisionPenalty*float64(len(res.Collisions))
	if len(res.SpoofingIndicators) > 0 {
		trust -= spoofingPenalty
	}
	if trust < 0 {
		trust = 0
	}
	res.TrustScore = trust
	return res
}
