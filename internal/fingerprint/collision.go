// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// Scan modes reported on the collision metric.
const (
	scanModeInline   = "inline"
	scanModeAsync    = "async"
	scanModeFallback = "fallback"
)

// rawScanLimit caps the degraded scan so a struggling store is not asked
// for its whole collection.
const rawScanLimit = 10000

// CheckDeviceCollision looks for other users on the same or a
// near-identical device. The exact-hash lookup always runs. The fuzzy scan
// runs inline for small populations and is queued otherwise, in which case
// the result is Pending and carries the exact-hash verdict only.
func (s *Service) CheckDeviceCollision(ctx context.Context, fp *DeviceFingerprint, userID string) (*CollisionResult, error) {
	_, _, enqueuer, _, now := s.deps()
	log := logging.Ctx(ctx).With().
		Str("user_id", logging.SanitizeUserID(userID)).
		Str("device_hash", logging.HashPrefix(fp.Hash)).
		Str("stage", "collision").
		Logger()

	exact, err := s.store.FindByHash(ctx, fp.Hash)
	if err != nil {
		return s.fallbackScan(ctx, &log, fp, userID, err)
	}

	if enqueuer != nil {
		population, err := s.store.Count(ctx)
		if err != nil {
			return s.fallbackScan(ctx, &log, fp, userID, err)
		}
		if population > int64(s.cfg.AsyncScanThreshold) {
			req := ScanRequest{Hash: fp.Hash, UserID: userID, RequestedAt: now}
			err := enqueuer.EnqueueCollisionScan(ctx, req)
			if err == nil {
				result := s.buildResult(s.matchCandidates(fp, userID, exact))
				result.Pending = true
				s.recordResult(ctx, &log, fp, userID, result, scanModeAsync)
				return result, nil
			}
			log.Warn().Err(err).Int64("population", population).Msg("Collision scan enqueue failed, scanning inline")
		}
	}

	return s.scanInline(ctx, &log, fp, userID, exact)
}

// RunCollisionScan is the background body for a queued scan. Running it
// twice for the same request leaves the store unchanged the second time.
func (s *Service) RunCollisionScan(ctx context.Context, req ScanRequest) (*CollisionResult, error) {
	fp, err := s.store.Get(ctx, req.Hash, req.UserID)
	if errors.Is(err, models.ErrNotFound) {
		logging.Ctx(ctx).Debug().
			Str("device_hash", logging.HashPrefix(req.Hash)).
			Msg("Fingerprint gone before collision scan ran")
		return &CollisionResult{RiskLevel: CollisionRiskLow, CollidingUsers: []string{}, SimilarDevices: []SimilarDevice{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load fingerprint for scan: %w", err)
	}

	log := logging.Ctx(ctx).With().
		Str("user_id", logging.SanitizeUserID(req.UserID)).
		Str("device_hash", logging.HashPrefix(req.Hash)).
		Str("stage", "collision_job").
		Int("attempt", req.Attempt).
		Logger()

	exact, err := s.store.FindByHash(ctx, fp.Hash)
	if err != nil {
		return nil, fmt.Errorf("load exact matches: %w", err)
	}
	recent, err := s.store.Recent(ctx, s.cfg.ScanWindowDays)
	if err != nil {
		return nil, fmt.Errorf("load scan candidates: %w", err)
	}
	candidates := joinCandidates(exact, recent)

	start := time.Now()
	result := s.buildResult(s.matchCandidates(fp, req.UserID, candidates))
	metrics.CollisionScanDuration.Observe(time.Since(start).Seconds())
	s.recordResult(ctx, &log, fp, req.UserID, result, scanModeAsync)
	return result, nil
}

// scanInline compares fp with the recent population. Exact-hash records
// are included even when they fall outside the scan window.
func (s *Service) scanInline(ctx context.Context, log *zerolog.Logger, fp *DeviceFingerprint, userID string, exact []*DeviceFingerprint) (*CollisionResult, error) {
	recent, err := s.store.Recent(ctx, s.cfg.ScanWindowDays)
	if err != nil {
		return s.fallbackScan(ctx, log, fp, userID, err)
	}
	candidates := joinCandidates(exact, recent)

	start := time.Now()
	result := s.buildResult(s.matchCandidates(fp, userID, candidates))
	metrics.CollisionScanDuration.Observe(time.Since(start).Seconds())
	s.recordResult(ctx, log, fp, userID, result, scanModeInline)
	return result, nil
}

// fallbackScan runs when the typed store path failed. It tries the raw
// scanner and otherwise returns an empty, degraded result.
func (s *Service) fallbackScan(ctx context.Context, log *zerolog.Logger, fp *DeviceFingerprint, userID string, cause error) (*CollisionResult, error) {
	log.Error().Err(cause).Msg("Fingerprint store read failed during collision check")

	if raw, ok := s.store.(RawScanner); ok {
		candidates, err := raw.ScanRaw(ctx, rawScanLimit)
		if err == nil {
			result := s.buildResult(s.matchCandidates(fp, userID, candidates))
			result.Degraded = true
			metrics.RecordCollisionCheck(string(result.RiskLevel), scanModeFallback)
			if result.HasCollision {
				s.secLog.LogCollision(userID, fp.Hash, string(result.RiskLevel), len(result.CollidingUsers), result.ExactMatch)
			}
			return result, nil
		}
		log.Error().Err(err).Msg("Raw fingerprint scan failed")
	}

	metrics.RecordCollisionCheck(string(CollisionRiskLow), scanModeFallback)
	return &CollisionResult{
		RiskLevel:      CollisionRiskLow,
		CollidingUsers: []string{},
		SimilarDevices: []SimilarDevice{},
		Degraded:       true,
	}, nil
}

// joinCandidates returns exact followed by recent in a new slice, leaving
// both inputs untouched.
func joinCandidates(exact, recent []*DeviceFingerprint) []*DeviceFingerprint {
	out := make([]*DeviceFingerprint, 0, len(exact)+len(recent))
	out = append(out, exact...)
	return append(out, recent...)
}

// matchCandidates compares fp with every record belonging to another user.
func (s *Service) matchCandidates(fp *DeviceFingerprint, userID string, candidates []*DeviceFingerprint) []SimilarDevice {
	var matches []SimilarDevice
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		if c.UserID == userID || c.UserID == "" {
			continue
		}
		key := RecordID(c.Hash, c.UserID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		cmp := PerformAdvancedComparison(fp, c)
		if cmp.Score < s.cfg.SimilarityThreshold && cmp.CriticalMatches < 3 {
			continue
		}
		matches = append(matches, SimilarDevice{
			Hash:                 c.Hash,
			UserID:               c.UserID,
			Similarity:           cmp.Score,
			CriticalMatches:      cmp.CriticalMatches,
			ExactCriticalMatches: cmp.ExactCriticalMatches,
			ExactHash:            cmp.ExactHash,
		})
	}
	return matches
}

func (s *Service) buildResult(matches []SimilarDevice) *CollisionResult {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	result := &CollisionResult{
		CollidingUsers: []string{},
		SimilarDevices: []SimilarDevice{},
	}
	users := make(map[string]struct{})
	nearIdentical := false
	for _, m := range matches {
		if m.ExactHash {
			result.ExactMatch = true
		}
		if m.ExactCriticalMatches >= 3 {
			nearIdentical = true
		}
		if _, ok := users[m.UserID]; !ok {
			users[m.UserID] = struct{}{}
			result.CollidingUsers = append(result.CollidingUsers, m.UserID)
		}
	}
	if len(matches) > s.cfg.MaxSimilarDevices {
		matches = matches[:s.cfg.MaxSimilarDevices]
	}
	result.SimilarDevices = append(result.SimilarDevices, matches...)
	result.HasCollision = len(result.CollidingUsers) > 0
	result.RiskLevel = collisionRisk(result.ExactMatch, nearIdentical, len(result.CollidingUsers))
	return result
}

func collisionRisk(exact, nearIdentical bool, users int) CollisionRisk {
	switch {
	case exact, users > 3:
		return CollisionRiskCritical
	case nearIdentical, users > 1:
		return CollisionRiskHigh
	case users == 1:
		return CollisionRiskMedium
	default:
		return CollisionRiskLow
	}
}

// recordResult persists a collision on fp's record and emits telemetry.
func (s *Service) recordResult(ctx context.Context, log *zerolog.Logger, fp *DeviceFingerprint, userID string, result *CollisionResult, mode string) {
	metrics.RecordCollisionCheck(string(result.RiskLevel), mode)
	if !result.HasCollision {
		return
	}

	similar := make([]string, 0, len(result.SimilarDevices))
	for _, d := range result.SimilarDevices {
		similar = append(similar, RecordID(d.Hash, d.UserID))
	}

	added, err := s.store.RecordCollision(ctx, fp.Hash, userID, similar)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Warn().Err(err).Msg("Failed to record collision")
		}
		return
	}
	if added == 0 {
		// Already recorded by an earlier run.
		return
	}

	_, _, _, _, now := s.deps()
	event := VerificationEvent{
		Type:      EventCollisionDetected,
		Timestamp: now,
		Detail:    fmt.Sprintf("%s:%d", result.RiskLevel, len(result.CollidingUsers)),
	}
	if err := s.store.AppendVerification(ctx, fp.Hash, userID, event); err != nil && !errors.Is(err, models.ErrNotFound) {
		log.Warn().Err(err).Msg("Failed to append collision event")
	}

	s.secLog.LogCollision(userID, fp.Hash, string(result.RiskLevel), len(result.CollidingUsers), result.ExactMatch)
}
