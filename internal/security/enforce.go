// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"context"
	"errors"
	"fmt"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/audit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

const enforcementActor = "security_engine"

// Enforce applies the plan carried by a. The device ban cascades to the
// related accounts; when it fails the user is still blocked directly.
// Every step is attempted and the failures are joined into the error.
func (e *Engine) Enforce(ctx context.Context, a *Analysis) (*EnforcementResult, error) {
	if a == nil {
		return nil, &models.ValidationError{Field: "analysis", Reason: "analysis is required"}
	}

	res := &EnforcementResult{UserBlocked: a.BlockedEarly}
	var errs []error
	p := a.Enforcement

	if p.BanDevice && e.bans != nil {
		req := ban.BanRequest{
			DeviceHash:      a.DeviceHash(),
			UserID:          a.UserID,
			Reason:          p.Reason,
			ViolationType:   p.ViolationType,
			RelatedAccounts: p.RelatedAccounts,
			BannedBy:        enforcementActor,
		}
		if !p.Permanent && p.DurationHours > 0 {
			hours := p.DurationHours
			req.DurationHours = &hours
		}
		if _, err := e.bans.BanDevice(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("ban device: %w", err))
		} else {
			res.DeviceBanned = true
			res.UserBlocked = true
			res.BannedAccounts = 1 + len(p.RelatedAccounts)
		}
	}

	if p.BlockUser && !res.UserBlocked && e.users != nil {
		if err := e.blockUser(ctx, a, p.Reason, p.ViolationType); err != nil {
			errs = append(errs, fmt.Errorf("block user: %w", err))
		} else {
			res.UserBlocked = true
		}
	}

	if e.users != nil {
		update := models.UserUpdate{RiskScore: &a.Overall.RiskScore}
		now := e.clock()
		update.LastActiveAt = &now
		if a.IPAddress != "" {
			ip := a.IPAddress
			update.LastIP = &ip
		}
		if p.UpdateLocation != nil {
			update.LastLocation = p.UpdateLocation
		}
		if err := e.users.UpdateUser(ctx, a.UserID, update); err != nil {
			errs = append(errs, fmt.Errorf("update user: %w", err))
		} else {
			res.LocationUpdated = p.UpdateLocation != nil
		}
	}

	if e.threats != nil {
		e.threats.Invalidate(a.UserID)
	}

	for _, err := range errs {
		res.Errors = append(res.Errors, err.Error())
	}
	if len(errs) > 0 {
		logging.Ctx(ctx).Error().Err(errors.Join(errs...)).
			Str("user_id", logging.SanitizeUserID(a.UserID)).
			Str("device_hash", logging.HashPrefix(a.DeviceHash())).
			Msg("Enforcement incomplete")
		return res, errors.Join(errs...)
	}
	return res, nil
}

// AnalyzeAndEnforce analyzes and then enforces. With zero tolerance
// enabled an exact device-hash collision blocks the user as soon as it is
// found, before the remaining stages run.
func (e *Engine) AnalyzeAndEnforce(ctx context.Context, req Request) (*Analysis, *EnforcementResult, error) {
	var hook exactMatchHook
	if e.cfg.ZeroTolerance {
		hook = e.blockOnExactMatch
	}

	a, err := e.analyze(ctx, req, hook)
	if err != nil {
		return nil, nil, err
	}
	res, err := e.Enforce(ctx, a)
	return a, res, err
}

func (e *Engine) blockOnExactMatch(ctx context.Context, a *Analysis) {
	if e.users == nil {
		return
	}
	if err := e.blockUser(ctx, a, "Exact device match with another account", "multi_account"); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("user_id", logging.SanitizeUserID(a.UserID)).
			Msg("Zero-tolerance block failed")
		return
	}
	a.BlockedEarly = true

	if e.audit != nil {
		entry := &audit.Entry{
			Timestamp:  e.clock(),
			Type:       audit.TypeRealtimeBlock,
			Severity:   audit.SeverityCritical,
			UserID:     a.UserID,
			DeviceHash: a.DeviceHash(),
			Actor:      enforcementActor,
			Action:     string(models.ActionPermanentBlock),
		}
		entry.SetDetails(map[string]interface{}{
			"relatedAccounts": a.MultiAccount.RelatedAccounts,
		})
		if err := e.audit.SaveSecurityAuditLog(ctx, entry); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to record zero-tolerance block")
		}
	}
}

func (e *Engine) blockUser(ctx context.Context, a *Analysis, reason, violation string) error {
	err := e.users.BlockUser(ctx, a.UserID, models.BlockDetails{
		Reason:        reason,
		BlockedBy:     enforcementActor,
		DeviceHash:    a.DeviceHash(),
		ViolationType: violation,
	})
	if err == nil {
		e.secLog.LogUserBlocked(a.UserID, reason, enforcementActor)
	}
	return err
}
