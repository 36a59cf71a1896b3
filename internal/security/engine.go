// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/audit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/threat"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/validation"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/vpn"
)

// errCollisionUnknown marks a collision check that could not read the
// fingerprint store at all.
var errCollisionUnknown = models.NewStoreUnavailable("fingerprints", "collision_check",
	errors.New("collision state unknown"))

// UserStore is the part of the user store the engine reads and writes.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) error
	BlockUser(ctx context.Context, id string, details models.BlockDetails) error
	IsUserBlocked(ctx context.Context, id string) (bool, error)
	GetUsersRegisteredRecently(ctx context.Context, window time.Duration) ([]*models.User, error)
}

// DeviceService generates fingerprints and checks them for collisions.
type DeviceService interface {
	GenerateFingerprint(ctx context.Context, signals *fingerprint.DeviceSignals, userID string) (*fingerprint.DeviceFingerprint, error)
	CheckDeviceCollision(ctx context.Context, fp *fingerprint.DeviceFingerprint, userID string) (*fingerprint.CollisionResult, error)
	Store() fingerprint.Store
}

// ThreatAnalyzer scores a user against the threat heuristics.
type ThreatAnalyzer interface {
	AnalyzeUser(ctx context.Context, in threat.Input) *threat.Analysis
	Invalidate(userID string)
}

// BanService applies and checks device bans.
type BanService interface {
	IsDeviceBanned(ctx context.Context, hash string) (ban.Status, error)
	BanDevice(ctx context.Context, req ban.BanRequest) (*ban.BannedDevice, error)
}

// AuditLog records analyses and counts past ones.
type AuditLog interface {
	audit.Sink
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// Engine runs the unified security analysis.
type Engine struct {
	cfg     config.EngineConfig
	users   UserStore
	devices DeviceService
	threats ThreatAnalyzer
	bans    BanService
	audit   AuditLog
	secLog  *logging.SecurityLogger

	mu      sync.RWMutex
	network vpn.Classifier
	now     func() time.Time
}

// NewEngine wires the engine. audit may be nil, in which case analyses are
// not recorded and QuickSecurityCheck sees no history.
func NewEngine(cfg config.EngineConfig, users UserStore, devices DeviceService, threats ThreatAnalyzer, bans BanService, auditLog AuditLog) *Engine {
	if cfg.TemporaryBanHours <= 0 {
		cfg.TemporaryBanHours = 24
	}
	if cfg.ImpossibleTravelKmh <= 0 {
		cfg.ImpossibleTravelKmh = 1000
	}
	if cfg.RecentRegistrationWindow <= 0 {
		cfg.RecentRegistrationWindow = 24 * time.Hour
	}
	return &Engine{
		cfg:     cfg,
		users:   users,
		devices: devices,
		threats: threats,
		bans:    bans,
		audit:   auditLog,
		secLog:  logging.NewSecurityLogger(),
		now:     time.Now,
	}
}

// SetNetworkClassifier enables VPN, proxy and Tor checks.
func (e *Engine) SetNetworkClassifier(c vpn.Classifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.network = c
}

// SetClock replaces the time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

func (e *Engine) clock() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.now().UTC()
}

func (e *Engine) classifier() vpn.Classifier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.network
}

// exactMatchHook runs as soon as the multi-account stage finds an exact
// device-hash collision, before later stages.
type exactMatchHook func(ctx context.Context, a *Analysis)

// AnalyzeUser runs every enabled stage and returns the decision. It does
// not block users or ban devices; pass the result to Enforce for that.
//
// Fingerprint generation fails closed: a banned device or an unavailable
// ban store is returned as an error. The behavioral stage and the related
// account lookups fail open.
func (e *Engine) AnalyzeUser(ctx context.Context, req Request) (*Analysis, error) {
	return e.analyze(ctx, req, nil)
}

func (e *Engine) analyze(ctx context.Context, req Request, onExact exactMatchHook) (*Analysis, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.User.ID == "" {
		return nil, &models.ValidationError{Field: "user.id", Reason: "user id is required"}
	}

	start := e.clock()
	log := logging.Ctx(ctx).With().
		Str("user_id", logging.SanitizeUserID(req.User.ID)).
		Logger()

	a := &Analysis{
		UserID:      req.User.ID,
		IPAddress:   e.requestIP(req),
		StageErrors: make(map[Stage]string),
		AnalyzedAt:  start,
	}

	if req.DeviceSignals != nil && e.devices != nil {
		fp, err := e.devices.GenerateFingerprint(ctx, req.DeviceSignals, req.User.ID)
		if err != nil {
			if models.IsDeviceBanned(err) {
				log.Warn().Msg("Analysis refused for banned device")
			}
			return nil, err
		}
		a.Fingerprint = fp
		if a.IPAddress == "" {
			a.IPAddress = fp.Components.Network.IPAddress
		}
	}

	var collision *fingerprint.CollisionResult
	if a.Fingerprint != nil && (e.cfg.EnableMultiAccount || e.cfg.EnableDeviceTrust) {
		stage := StageMultiAccount
		if !e.cfg.EnableMultiAccount {
			stage = StageDevice
		}
		res, err := e.devices.CheckDeviceCollision(ctx, a.Fingerprint, req.User.ID)
		switch {
		case err != nil:
			e.stageFailed(ctx, a, stage, err)
		case res.Degraded && !res.HasCollision:
			// An empty degraded result says nothing about other accounts.
			e.stageFailed(ctx, a, stage, errCollisionUnknown)
			collision = res
		default:
			collision = res
		}
	}

	related := newRelatedSet(req.User.ID)

	if e.cfg.EnableMultiAccount {
		a.MultiAccount = e.analyzeMultiAccount(ctx, req, a, collision, related)
		if a.MultiAccount.ExactMatch && onExact != nil {
			onExact(ctx, a)
		}
	}
	if e.cfg.EnableBehavioral {
		a.Behavioral = analyzeBehavior(req.Behavior)
	}
	if e.cfg.EnableDeviceTrust && a.Fingerprint != nil {
		a.Device = analyzeDevice(a.Fingerprint, collision)
	}
	if e.cfg.EnableNetwork {
		a.Network = e.analyzeNetwork(req, a.IPAddress)
	}
	if e.cfg.EnableThreatPatterns {
		a.Threat = e.analyzeThreats(ctx, req, a, related)
	}

	e.decide(a, req)
	a.Duration = e.clock().Sub(start)

	metrics.RecordSecurityAnalysis(string(a.Overall.ThreatLevel), string(a.Overall.RecommendedAction), a.Duration)
	if a.Overall.ThreatLevel.Rank() >= models.ThreatHigh.Rank() {
		e.secLog.LogThreatDetected(req.User.ID, string(a.Overall.ThreatLevel),
			string(a.Overall.RecommendedAction), a.Overall.RiskScore)
	}
	log.Debug().
		Float64("risk_score", a.Overall.RiskScore).
		Str("threat_level", string(a.Overall.ThreatLevel)).
		Int("stages_fired", len(a.FiredStages)).
		Dur("duration", a.Duration).
		Msg("Security analysis complete")

	e.recordAnalysis(ctx, a)
	return a, nil
}

func (e *Engine) requestIP(req Request) string {
	if req.IPAddress != "" {
		return req.IPAddress
	}
	if req.DeviceSignals != nil {
		return req.DeviceSignals.Network.IPAddress
	}
	return ""
}

// stageFailed records a stage error. Store outages are expected here and
// only logged at warn level.
func (e *Engine) stageFailed(ctx context.Context, a *Analysis, stage Stage, err error) {
	a.StageErrors[stage] = err.Error()
	metrics.SecurityStageErrors.WithLabelValues(string(stage)).Inc()

	event := logging.Ctx(ctx).Error()
	if models.IsStoreUnavailable(err) || errors.Is(err, context.DeadlineExceeded) {
		event = logging.Ctx(ctx).Warn()
	}
	event.Err(err).
		Str("stage", string(stage)).
		Str("user_id", logging.SanitizeUserID(a.UserID)).
		Str("device_hash", logging.HashPrefix(a.DeviceHash())).
		Msg("Security stage degraded")
}

// recordAnalysis writes the compact audit record. Failures are logged only.
func (e *Engine) recordAnalysis(ctx context.Context, a *Analysis) {
	if e.audit == nil {
		return
	}
	entry := &audit.Entry{
		Timestamp:   a.AnalyzedAt,
		Type:        audit.TypeSecurityAnalysis,
		Severity:    auditSeverity(a.Overall.ThreatLevel),
		UserID:      a.UserID,
		DeviceHash:  a.DeviceHash(),
		Actor:       "engine",
		ThreatLevel: string(a.Overall.ThreatLevel),
		RiskScore:   a.Overall.RiskScore,
		Action:      string(a.Overall.RecommendedAction),
	}
	details := map[string]interface{}{
		"confidence":  a.Overall.Confidence,
		"firedStages": a.FiredStages,
	}
	if a.MultiAccount != nil && a.MultiAccount.Detected {
		details["relatedAccountCount"] = len(a.MultiAccount.RelatedAccounts)
		details["exactMatch"] = a.MultiAccount.ExactMatch
	}
	if a.Threat != nil && len(a.Threat.MatchedPatterns) > 0 {
		names := make([]string, 0, len(a.Threat.MatchedPatterns))
		for _, m := range a.Threat.MatchedPatterns {
			names = append(names, m.Name)
		}
		details["patterns"] = names
	}
	if len(a.StageErrors) > 0 {
		details["degradedStages"] = len(a.StageErrors)
	}
	entry.SetDetails(details)

	if err := e.audit.SaveSecurityAuditLog(ctx, entry); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("user_id", logging.SanitizeUserID(a.UserID)).
			Msg("Failed to record security analysis")
	}
}

func auditSeverity(level models.ThreatLevel) audit.Severity {
	switch level {
	case models.ThreatCritical:
		return audit.SeverityCritical
	case models.ThreatHigh:
		return audit.SeverityHigh
	case models.ThreatMedium:
		return audit.SeverityMedium
	default:
		return audit.SeverityLow
	}
}

// relatedSet collects account ids linked to the analyzed user, first-seen
// order, excluding the user.
type relatedSet struct {
	self  string
	seen  map[string]struct{}
	order []string
}

func newRelatedSet(self string) *relatedSet {
	return &relatedSet{self: self, seen: make(map[string]struct{})}
}

func (r *relatedSet) add(ids ...string) {
	for _, id := range ids {
		if id == "" || id == r.self {
			continue
		}
		if _, ok := r.seen[id]; ok {
			continue
		}
		r.seen[id] = struct{}{}
		r.order = append(r.order, id)
	}
}

func (r *relatedSet) list() []string {
	return append([]string(nil), r.order...)
}

func wrapCheck(check string, err error) error {
	return fmt.Errorf("%s: %w", check, err)
}
