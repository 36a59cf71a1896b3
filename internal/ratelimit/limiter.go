// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// Preset action classes.
const (
	ActionBotCommand       = "bot_command"
	ActionTaskSubmission   = "task_submission"
	ActionWalletConnection = "wallet_connection"
	ActionReferralCode     = "referral_code"
	ActionPointClaim       = "point_claim"
	ActionAdminAction      = "admin_action"

	// actionCustom labels metrics for CheckLimit calls with an ad hoc Config.
	actionCustom = "custom"
)

// Preset is the base limit of an action class.
type Preset struct {
	MaxRequests int           `json:"max_requests"`
	Window      time.Duration `json:"window"`
}

// DefaultPresets are the limits used when configuration does not override
// them.
var DefaultPresets = map[string]Preset{
	ActionBotCommand:       {MaxRequests: 10, Window: time.Minute},
	ActionTaskSubmission:   {MaxRequests: 3, Window: time.Hour},
	ActionWalletConnection: {MaxRequests: 5, Window: 24 * time.Hour},
	ActionReferralCode:     {MaxRequests: 1, Window: time.Hour},
	ActionPointClaim:       {MaxRequests: 20, Window: time.Hour},
	ActionAdminAction:      {MaxRequests: 100, Window: time.Minute},
}

// minDynamicFactor is the floor of the risk scaling factor.
const minDynamicFactor = 0.1

// LimitHandler is notified of every denied preset check.
type LimitHandler func(action, identifier string, result Result)

// Limiter checks requests against fixed windows kept in a Store.
type Limiter struct {
	store      Store
	presets    map[string]Preset
	exemptions map[string]struct{}
	security   *logging.SecurityLogger

	mu      sync.RWMutex
	now     func() time.Time
	onLimit LimitHandler
}

// NewLimiter creates a limiter over store. Presets from cfg override or
// extend DefaultPresets, and cfg.AdminExemptions bypass admin_action.
func NewLimiter(store Store, cfg config.RateLimitConfig) *Limiter {
	presets := make(map[string]Preset, len(DefaultPresets)+len(cfg.Presets))
	for name, p := range DefaultPresets {
		presets[name] = p
	}
	for name, p := range cfg.Presets {
		if p.MaxRequests < 1 || p.Window <= 0 {
			logging.Warn().Str("action", name).Msg("Ignoring rate limit preset without positive max_requests and window")
			continue
		}
		presets[name] = Preset{MaxRequests: p.MaxRequests, Window: p.Window}
	}

	exemptions := make(map[string]struct{}, len(cfg.AdminExemptions))
	for _, id := range cfg.AdminExemptions {
		if id != "" {
			exemptions[id] = struct{}{}
		}
	}

	return &Limiter{
		store:      store,
		presets:    presets,
		exemptions: exemptions,
		security:   logging.NewSecurityLogger(),
		now:        time.Now,
	}
}

// SetClock replaces the time source used for fail-open results.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *Limiter) clock() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.now()
}

// SetLimitHandler registers fn for denied preset checks.
func (l *Limiter) SetLimitHandler(fn LimitHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLimit = fn
}

// Store returns the backing store.
func (l *Limiter) Store() Store {
	return l.store
}

// Presets returns a copy of the effective presets.
func (l *Limiter) Presets() map[string]Preset {
	out := make(map[string]Preset, len(l.presets))
	for name, p := range l.presets {
		out[name] = p
	}
	return out
}

// Actions returns the preset names in sorted order.
func (l *Limiter) Actions() []string {
	names := make([]string, 0, len(l.presets))
	for name := range l.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckLimit counts one request by identifier against cfg.
//
// A store failure never denies the request: the result is that of the first
// request of a fresh window and has FailOpen set. The returned error is
// reserved for an invalid cfg.
func (l *Limiter) CheckLimit(ctx context.Context, identifier string, cfg Config) (Result, error) {
	return l.check(ctx, actionCustom, identifier, cfg)
}

// Check counts one request by identifier against the named preset.
func (l *Limiter) Check(ctx context.Context, action, identifier string) (Result, error) {
	cfg, err := l.presetConfig(action, 1)
	if err != nil {
		return Result{}, err
	}
	return l.check(ctx, action, identifier, cfg)
}

// CheckDynamicLimit is Check with the preset limit scaled by
// max(0.1, 1-riskScore), so riskier users get proportionally fewer requests
// out of the same window. It shares the counter of Check.
func (l *Limiter) CheckDynamicLimit(ctx context.Context, identifier, action string, riskScore float64) (Result, error) {
	factor := math.Max(minDynamicFactor, 1-models.Clamp01(riskScore))
	cfg, err := l.presetConfig(action, factor)
	if err != nil {
		return Result{}, err
	}
	return l.check(ctx, action, identifier, cfg)
}

// Peek reports the state of identifier's window for action without
// counting a request.
func (l *Limiter) Peek(ctx context.Context, action, identifier string) (Result, error) {
	cfg, err := l.presetConfig(action, 1)
	if err != nil {
		return Result{}, err
	}

	st, found, err := l.store.Get(ctx, cfg.KeyGenerator(identifier))
	if err != nil {
		return Result{}, fmt.Errorf("peek %s: %w", action, err)
	}
	if !found {
		return Result{Allowed: true, ResetTime: l.clock().Add(cfg.Window), Remaining: cfg.MaxRequests, Total: cfg.MaxRequests}, nil
	}
	return resultFor(st, cfg.MaxRequests), nil
}

// Reset clears identifier's window for action.
func (l *Limiter) Reset(ctx context.Context, action, identifier string) error {
	if _, ok := l.presets[action]; !ok {
		return unknownAction(action)
	}
	if err := l.store.Delete(ctx, presetKey(action, identifier)); err != nil {
		return fmt.Errorf("reset %s: %w", action, err)
	}
	logging.Ctx(ctx).Info().
		Str("action", action).
		Str("identifier", logging.SanitizeUserID(identifier)).
		Msg("Rate limit reset")
	return nil
}

// Cleanup removes elapsed windows from the store.
func (l *Limiter) Cleanup(ctx context.Context) (int, error) {
	return l.store.Cleanup(ctx)
}

func (l *Limiter) check(ctx context.Context, action, identifier string, cfg Config) (Result, error) {
	if cfg.MaxRequests < 1 {
		return Result{}, &models.ValidationError{Field: "max_requests", Reason: "must be at least 1"}
	}
	if cfg.Window <= 0 {
		return Result{}, &models.ValidationError{Field: "window", Reason: "must be positive"}
	}

	if cfg.SkipIf != nil && cfg.SkipIf(identifier) {
		metrics.RecordRateLimitDecision(action, "skipped")
		return Result{Allowed: true, Remaining: cfg.MaxRequests, Total: cfg.MaxRequests, Skipped: true}, nil
	}

	key := identifier
	if cfg.KeyGenerator != nil {
		key = cfg.KeyGenerator(identifier)
	}

	st, err := l.store.Increment(ctx, key, cfg.Window)
	if err != nil {
		l.security.LogRateLimitStoreFailure(action, identifier, err)
		metrics.RateLimitStoreErrors.WithLabelValues(l.store.Name()).Inc()
		st = State{Key: key, Count: 1, ResetTime: l.clock().Add(cfg.Window)}
		res := resultFor(st, cfg.MaxRequests)
		res.FailOpen = true
		metrics.RecordRateLimitDecision(action, "allowed")
		return res, nil
	}

	res := resultFor(st, cfg.MaxRequests)
	if res.Allowed {
		metrics.RecordRateLimitDecision(action, "allowed")
		return res, nil
	}

	metrics.RecordRateLimitDecision(action, "denied")
	if cfg.OnLimitReached != nil {
		cfg.OnLimitReached(identifier, res)
	}
	return res, nil
}

// presetConfig builds the Config of a preset with its limit scaled by
// factor. The scaled limit never drops below one request.
func (l *Limiter) presetConfig(action string, factor float64) (Config, error) {
	p, ok := l.presets[action]
	if !ok {
		return Config{}, unknownAction(action)
	}

	// The epsilon keeps 20*(1-0.8) at 4 rather than 3.
	maxRequests := int(math.Floor(float64(p.MaxRequests)*factor + 1e-9))
	if maxRequests < 1 {
		maxRequests = 1
	}

	cfg := Config{
		MaxRequests: maxRequests,
		Window:      p.Window,
		KeyGenerator: func(identifier string) string {
			return presetKey(action, identifier)
		},
		OnLimitReached: func(identifier string, res Result) {
			l.limitReached(action, identifier, res)
		},
	}
	if action == ActionAdminAction {
		cfg.SkipIf = l.isExempt
	}
	return cfg, nil
}

func (l *Limiter) limitReached(action, identifier string, res Result) {
	logging.Warn().
		Str("action", action).
		Str("identifier", logging.SanitizeUserID(identifier)).
		Int("limit", res.Total).
		Time("reset_time", res.ResetTime).
		Msg("Rate limit exceeded")

	l.mu.RLock()
	fn := l.onLimit
	l.mu.RUnlock()
	if fn != nil {
		fn(action, identifier, res)
	}
}

func (l *Limiter) isExempt(identifier string) bool {
	_, ok := l.exemptions[identifier]
	return ok
}

func presetKey(action, identifier string) string {
	return "rl:" + action + ":" + identifier
}

func resultFor(st State, maxRequests int) Result {
	remaining := int64(maxRequests) - st.Count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   st.Count <= int64(maxRequests),
		ResetTime: st.ResetTime,
		Remaining: int(remaining),
		Total:     maxRequests,
	}
}

func unknownAction(action string) error {
	return &models.ValidationError{Field: "action", Reason: fmt.Sprintf("unknown rate limit action %q", action)}
}
