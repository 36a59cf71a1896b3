// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"context"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/audit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ratelimit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/security"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/threat"
)

// FingerprintService registers device fingerprints.
type FingerprintService interface {
	GenerateDeviceHash(ctx context.Context, signals *fingerprint.DeviceSignals) (string, error)
	GenerateFingerprint(ctx context.Context, signals *fingerprint.DeviceSignals, userID string) (*fingerprint.DeviceFingerprint, error)
}

// SecurityEngine runs the unified analysis.
type SecurityEngine interface {
	AnalyzeUser(ctx context.Context, req security.Request) (*security.Analysis, error)
	AnalyzeAndEnforce(ctx context.Context, req security.Request) (*security.Analysis, *security.EnforcementResult, error)
	QuickSecurityCheck(ctx context.Context, userID string) (*security.QuickCheckResult, error)
}

// RealtimeMonitor scores individual user events.
type RealtimeMonitor interface {
	MonitorRealTime(ctx context.Context, userID string, ev threat.Event) (*threat.RealtimeResult, error)
}

// BanService manages device bans.
type BanService interface {
	IsDeviceBanned(ctx context.Context, hash string) (ban.Status, error)
	BanDevice(ctx context.Context, req ban.BanRequest) (*ban.BannedDevice, error)
	UnbanDevice(ctx context.Context, hash, unbannedBy, reason string) (bool, error)
	SubmitAppeal(ctx context.Context, hash, reason, userID string) (bool, error)
	GetAllBannedDevices(ctx context.Context) ([]*ban.BannedDevice, error)
	GetBanStatistics(ctx context.Context) (*ban.Statistics, error)
}

// RateLimiter is the store-backed action limiter.
type RateLimiter interface {
	Check(ctx context.Context, action, identifier string) (ratelimit.Result, error)
	CheckDynamicLimit(ctx context.Context, identifier, action string, riskScore float64) (ratelimit.Result, error)
	Peek(ctx context.Context, action, identifier string) (ratelimit.Result, error)
	Reset(ctx context.Context, action, identifier string) error
	Actions() []string
}

// AuditReader queries the security audit log.
type AuditReader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Entry, error)
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// UserLookup loads the user an analysis is about.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	fingerprints FingerprintService
	engine       SecurityEngine
	realtime     RealtimeMonitor
	bans         BanService
	limiter      RateLimiter
	audit        AuditReader
	users        UserLookup
	readiness    map[string]ReadinessCheck
	startTime    time.Time
}

// Deps lists the services behind the API. Audit and Readiness are optional.
type Deps struct {
	Fingerprints FingerprintService
	Engine       SecurityEngine
	Realtime     RealtimeMonitor
	Bans         BanService
	Limiter      RateLimiter
	Audit        AuditReader
	Users        UserLookup
	Readiness    map[string]ReadinessCheck
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		fingerprints: deps.Fingerprints,
		engine:       deps.Engine,
		realtime:     deps.Realtime,
		bans:         deps.Bans,
		limiter:      deps.Limiter,
		audit:        deps.Audit,
		users:        deps.Users,
		readiness:    deps.Readiness,
		startTime:    time.Now(),
	}
}
