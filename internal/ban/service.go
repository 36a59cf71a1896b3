// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package ban

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/audit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/validation"
)

// UserBlocker is the part of the user store the cascade needs.
type UserBlocker interface {
	BlockUser(ctx context.Context, id string, details models.BlockDetails) error
}

// Service manages the device ban lifecycle:
// unbanned -> banned (permanent or temporary) -> expired or appealed.
type Service struct {
	store  Store
	users  UserBlocker
	audit  audit.Sink
	secLog *logging.SecurityLogger

	mu  sync.RWMutex
	now func() time.Time
}

// NewService creates a ban service. users and sink may be nil, in which
// case the cascade and audit trail are skipped.
func NewService(store Store, users UserBlocker, sink audit.Sink) *Service {
	return &Service{
		store:  store,
		users:  users,
		audit:  sink,
		secLog: logging.NewSecurityLogger(),
		now:    time.Now,
	}
}

// SetClock replaces the time source. Used by tests and replay tooling.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Service) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().UTC()
}

// IsDeviceBanned reports the ban status of hash. An expired temporary ban
// is deleted on read and reported as not banned. Store failures are
// returned as StoreUnavailableError and callers must fail closed.
func (s *Service) IsDeviceBanned(ctx context.Context, hash string) (Status, error) {
	b, err := s.store.Get(ctx, hash)
	if errors.Is(err, models.ErrNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, models.NewStoreUnavailable("bans", "get", err)
	}

	if b.Expired(s.clock()) {
		s.expire(ctx, b)
		return Status{}, nil
	}
	return Status{IsBanned: true, Ban: b}, nil
}

// expire deletes b if it is still expired and reports whether it did.
func (s *Service) expire(ctx context.Context, b *BannedDevice) bool {
	now := s.clock()
	deleted := false
	// Re-check under Update so a fresh ban written since the read survives.
	_, err := s.store.Update(ctx, b.DeviceHash, func(current *BannedDevice) (*BannedDevice, error) {
		if current == nil {
			return nil, nil
		}
		if !current.Expired(now) {
			return current, nil
		}
		deleted = true
		return nil, nil
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("device_hash", logging.HashPrefix(b.DeviceHash)).
			Msg("Failed to delete expired ban")
		return false
	}
	if !deleted {
		return false
	}

	metrics.BanActions.WithLabelValues("expire").Inc()
	metrics.BannedDevices.Dec()
	s.writeAudit(ctx, &audit.Entry{
		Type:       audit.TypeBanExpired,
		Severity:   audit.SeverityInfo,
		DeviceHash: b.DeviceHash,
		UserID:     b.UserID,
		Actor:      "system",
		Action:     "expire",
	}, map[string]interface{}{
		"violationType": b.ViolationType,
		"expiresAt":     b.ExpiresAt,
	})
	return true
}

// BanDevice bans a device hash and blocks every account tied to it.
// Banning an already banned hash merges onto the existing record: the
// newest reason and duration win and related accounts accumulate.
func (s *Service) BanDevice(ctx context.Context, req BanRequest) (*BannedDevice, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}

	now := s.clock()
	related := relatedAccounts(req.UserID, req.RelatedAccounts)
	created := false

	stored, err := s.store.Update(ctx, req.DeviceHash, func(current *BannedDevice) (*BannedDevice, error) {
		next := &BannedDevice{
			DeviceHash:    req.DeviceHash,
			UserID:        req.UserID,
			BannedAt:      now,
			BannedBy:      req.BannedBy,
			Reason:        req.Reason,
			ViolationType: req.ViolationType,
		}
		if req.DurationHours != nil && *req.DurationHours > 0 {
			hours := *req.DurationHours
			expires := now.Add(time.Duration(hours) * time.Hour)
			next.BanDurationHours = &hours
			next.ExpiresAt = &expires
			next.Appealable = true
		}

		if current == nil || current.Expired(now) {
			created = true
			next.RelatedAccounts = related
			return next, nil
		}

		next.BannedAt = current.BannedAt
		if next.UserID == "" {
			next.UserID = current.UserID
		}
		next.RelatedAccounts = mergeAccounts(current.RelatedAccounts, related)
		next.AppealSubmitted = current.AppealSubmitted && next.Appealable
		if next.AppealSubmitted {
			next.AppealedAt = current.AppealedAt
			next.AppealReason = current.AppealReason
			next.AppealUserID = current.AppealUserID
		}
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ban device: %w", err)
	}

	if created {
		metrics.BannedDevices.Inc()
	}
	metrics.BanActions.WithLabelValues("ban").Inc()

	s.cascade(ctx, req, related)

	// The triggering account counts once alongside the related accounts.
	relatedCount := len(related)
	if req.UserID != "" {
		relatedCount++
	}
	s.writeAudit(ctx, &audit.Entry{
		Type:       audit.TypeDeviceBlocked,
		Severity:   audit.SeverityCritical,
		DeviceHash: req.DeviceHash,
		UserID:     req.UserID,
		Actor:      req.BannedBy,
		Action:     "ban",
	}, map[string]interface{}{
		"reason":              req.Reason,
		"violationType":       req.ViolationType,
		"relatedAccountCount": relatedCount,
		"relatedAccounts":     related,
		"durationHours":       stored.BanDurationHours,
		"permanent":           stored.Permanent(),
	})
	s.secLog.LogDeviceBanned(req.DeviceHash, req.BannedBy, req.ViolationType, relatedCount, stored.Permanent())

	return stored, nil
}

// cascade blocks the triggering user and every related account. A failure
// on one account is logged and the rest are still attempted.
func (s *Service) cascade(ctx context.Context, req BanRequest, related []string) {
	if s.users == nil {
		return
	}

	targets := make([]string, 0, len(related)+1)
	if req.UserID != "" {
		targets = append(targets, req.UserID)
	}
	targets = append(targets, related...)

	details := models.BlockDetails{
		Reason:        req.Reason,
		BlockedBy:     req.BannedBy,
		DeviceHash:    req.DeviceHash,
		ViolationType: req.ViolationType,
	}
	for _, id := range targets {
		if err := s.users.BlockUser(ctx, id, details); err != nil {
			logging.Ctx(ctx).Error().Err(err).
				Str("user_id", logging.SanitizeUserID(id)).
				Str("device_hash", logging.HashPrefix(req.DeviceHash)).
				Msg("Failed to block related account")
			continue
		}
		metrics.BanActions.WithLabelValues("cascade_block").Inc()
	}
}

// UnbanDevice removes the ban on hash. It returns false when there was
// nothing to remove.
func (s *Service) UnbanDevice(ctx context.Context, hash, unbannedBy, reason string) (bool, error) {
	existing, err := s.store.Get(ctx, hash)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewStoreUnavailable("bans", "get", err)
	}

	removed, err := s.store.Delete(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("unban device: %w", err)
	}
	if !removed {
		return false, nil
	}

	metrics.BanActions.WithLabelValues("unban").Inc()
	metrics.BannedDevices.Dec()
	s.writeAudit(ctx, &audit.Entry{
		Type:       audit.TypeDeviceUnblocked,
		Severity:   audit.SeverityMedium,
		DeviceHash: hash,
		UserID:     existing.UserID,
		Actor:      unbannedBy,
		Action:     "unban",
	}, map[string]interface{}{
		"reason":          reason,
		"originalReason":  existing.Reason,
		"violationType":   existing.ViolationType,
		"appealSubmitted": existing.AppealSubmitted,
	})
	logging.Ctx(ctx).Info().
		Str("device_hash", logging.HashPrefix(hash)).
		Str("unbanned_by", unbannedBy).
		Msg("Device unbanned")
	return true, nil
}

// SubmitAppeal records an appeal against an appealable ban. Each ban can
// be appealed once. The ban itself stays in force.
func (s *Service) SubmitAppeal(ctx context.Context, hash, reason, userID string) (bool, error) {
	now := s.clock()
	accepted := false

	_, err := s.store.Update(ctx, hash, func(current *BannedDevice) (*BannedDevice, error) {
		if current == nil || current.Expired(now) || !current.Appealable || current.AppealSubmitted {
			return current, nil
		}
		accepted = true
		current.AppealSubmitted = true
		current.AppealedAt = &now
		current.AppealReason = reason
		current.AppealUserID = userID
		return current, nil
	})
	if err != nil {
		return false, fmt.Errorf("submit appeal: %w", err)
	}
	if !accepted {
		return false, nil
	}

	metrics.BanActions.WithLabelValues("appeal").Inc()
	s.writeAudit(ctx, &audit.Entry{
		Type:       audit.TypeBanAppeal,
		Severity:   audit.SeverityInfo,
		DeviceHash: hash,
		UserID:     userID,
		Actor:      userID,
		Action:     "appeal",
	}, map[string]interface{}{"reason": reason})
	return true, nil
}

// GetAllBannedDevices lists active bans, oldest first.
func (s *Service) GetAllBannedDevices(ctx context.Context) ([]*BannedDevice, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	now := s.clock()
	active := all[:0]
	for _, b := range all {
		if !b.Expired(now) {
			active = append(active, b)
		}
	}
	return active, nil
}

// GetBanStatistics summarizes active bans.
func (s *Service) GetBanStatistics(ctx context.Context) (*Statistics, error) {
	active, err := s.GetAllBannedDevices(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		ByViolationType: make(map[string]int),
		GeneratedAt:     s.clock(),
	}
	for _, b := range active {
		stats.TotalBanned++
		if b.Permanent() {
			stats.Permanent++
		} else {
			stats.Temporary++
		}
		if b.AppealSubmitted {
			stats.PendingAppeals++
		}
		stats.RelatedAccounts += len(b.RelatedAccounts)
		stats.ByViolationType[b.ViolationType]++
	}
	metrics.BannedDevices.Set(float64(stats.TotalBanned))
	return stats, nil
}

// CleanupExpiredBans deletes every expired ban and returns how many were
// removed.
func (s *Service) CleanupExpiredBans(ctx context.Context) (int, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list bans: %w", err)
	}

	now := s.clock()
	removed := 0
	for _, b := range all {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !b.Expired(now) {
			continue
		}
		if s.expire(ctx, b) {
			removed++
		}
	}

	if removed > 0 {
		logging.Info().Int("removed", removed).Msg("Expired bans cleaned up")
	}
	return removed, nil
}

func (s *Service) writeAudit(ctx context.Context, entry *audit.Entry, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	entry.Timestamp = s.clock()
	entry.SetDetails(details)
	if err := s.audit.SaveSecurityAuditLog(ctx, entry); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("type", string(entry.Type)).
			Str("device_hash", logging.HashPrefix(entry.DeviceHash)).
			Msg("Failed to write ban audit entry")
	}
}

// relatedAccounts dedupes ids, dropping blanks and the triggering user.
func relatedAccounts(userID string, ids []string) []string {
	seen := map[string]struct{}{userID: {}}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func mergeAccounts(existing, added []string) []string {
	out := append([]string(nil), existing...)
	seen := make(map[string]struct{}, len(existing)+len(added))
	for _, id := range existing {
		seen[id] = struct{}{}
	}
	for _, id := range added {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
