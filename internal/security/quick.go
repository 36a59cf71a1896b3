// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"context"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/audit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

const (
	quickCheckWindow    = 24 * time.Hour
	violationRiskStep   = 0.3
	quickCheckSafeBelow = 0.5
)

// QuickSecurityCheck is the cheap path for frequent call sites. It reads
// the blocked flag, the ban status of the user's known devices and the
// number of high or critical analyses in the last 24 hours.
//
// Ban and user store failures fail closed (Safe is false). Audit history
// failures fail open.
func (e *Engine) QuickSecurityCheck(ctx context.Context, userID string) (*QuickCheckResult, error) {
	if userID == "" {
		return nil, &models.ValidationError{Field: "user_id", Reason: "user id is required"}
	}

	now := e.clock()
	res := &QuickCheckResult{UserID: userID, CheckedAt: now}
	log := logging.Ctx(ctx).With().Str("user_id", logging.SanitizeUserID(userID)).Logger()

	failClosed := func(reason string, err error) (*QuickCheckResult, error) {
		log.Error().Err(err).Msg("Quick security check failed closed")
		res.FailedClosed = true
		res.RiskScore = 1
		res.Safe = false
		res.Reasons = append(res.Reasons, reason)
		return res, nil
	}

	if e.users != nil {
		blocked, err := e.users.IsUserBlocked(ctx, userID)
		if err != nil {
			return failClosed("user store unavailable", err)
		}
		res.IsBlocked = blocked
	}

	if e.devices != nil && e.bans != nil {
		fps, err := e.devices.Store().FindByUser(ctx, userID)
		if err != nil {
			return failClosed("fingerprint store unavailable", err)
		}
		checked := make(map[string]struct{}, len(fps))
		for _, fp := range fps {
			if _, ok := checked[fp.Hash]; ok {
				continue
			}
			checked[fp.Hash] = struct{}{}
			status, err := e.bans.IsDeviceBanned(ctx, fp.Hash)
			if err != nil {
				return failClosed("ban store unavailable", err)
			}
			if status.IsBanned {
				res.DeviceBanned = true
				res.BannedDevices = append(res.BannedDevices, fp.Hash)
			}
		}
	}

	if e.audit != nil {
		since := now.Add(-quickCheckWindow)
		count, err := e.audit.Count(ctx, audit.QueryFilter{
			Types:      []audit.EntryType{audit.TypeSecurityAnalysis},
			Severities: []audit.Severity{audit.SeverityHigh, audit.SeverityCritical},
			UserID:     userID,
			StartTime:  &since,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Audit history unavailable, ignoring")
		} else {
			res.RecentViolations = count
		}
	}

	switch {
	case res.IsBlocked:
		res.RiskScore = 1
		res.Reasons = append(res.Reasons, "user blocked")
	case res.DeviceBanned:
		res.RiskScore = 1
		res.Reasons = append(res.Reasons, "device banned")
	default:
		res.RiskScore = models.Clamp01(violationRiskStep * float64(res.RecentViolations))
		if res.RecentViolations > 0 {
			res.Reasons = append(res.Reasons, "recent high-risk analyses")
		}
	}
	res.Safe = res.RiskScore < quickCheckSafeBelow
	return res, nil
}
