// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/audit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/auth"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ratelimit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/security"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/threat"
)

const testJWTSecret = "api-test-secret-with-more-than-32-characters"

var testHash = "ab" + fmt.Sprintf("%062x", 1)

type fakeFingerprints struct {
	mu    sync.Mutex
	fp    *fingerprint.DeviceFingerprint
	err   error
	calls []string
}

func (f *fakeFingerprints) GenerateDeviceHash(ctx context.Context, s *fingerprint.DeviceSignals) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return testHash, f.err
}

func (f *fakeFingerprints) GenerateFingerprint(ctx context.Context, s *fingerprint.DeviceSignals, userID string) (*fingerprint.DeviceFingerprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	if f.err != nil {
		return nil, f.err
	}
	return f.fp, nil
}

type fakeEngine struct {
	mu        sync.Mutex
	requests  []security.Request
	enforced  int
	quick     *security.QuickCheckResult
	err       error
	enforcErr error
}

func (f *fakeEngine) AnalyzeUser(ctx context.Context, req security.Request) (*security.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &security.Analysis{
		UserID:  req.User.ID,
		Overall: security.Overall{RiskScore: 0.2, ThreatLevel: models.ThreatLow, RecommendedAction: models.ActionMonitor},
	}, nil
}

func (f *fakeEngine) AnalyzeAndEnforce(ctx context.Context, req security.Request) (*security.Analysis, *security.EnforcementResult, error) {
	a, err := f.AnalyzeUser(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enforced++
	return a, &security.EnforcementResult{UserBlocked: true}, f.enforcErr
}

func (f *fakeEngine) QuickSecurityCheck(ctx context.Context, userID string) (*security.QuickCheckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quick != nil {
		return f.quick, nil
	}
	return &security.QuickCheckResult{UserID: userID, Safe: true}, nil
}

type fakeRealtime struct {
	mu     sync.Mutex
	events []threat.Event
}

func (f *fakeRealtime) MonitorRealTime(ctx context.Context, userID string, ev threat.Event) (*threat.RealtimeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return &threat.RealtimeResult{UserID: userID, EventClass: threat.EventClassRoutine, EventCount: int64(len(f.events))}, nil
}

type fakeBans struct {
	mu       sync.Mutex
	bans     map[string]*ban.BannedDevice
	requests []ban.BanRequest
	unbanBy  string
	appeals  int
	err      error
}

func newFakeBans() *fakeBans {
	return &fakeBans{bans: make(map[string]*ban.BannedDevice)}
}

func (f *fakeBans) IsDeviceBanned(ctx context.Context, hash string) (ban.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return ban.Status{}, f.err
	}
	b, ok := f.bans[hash]
	return ban.Status{IsBanned: ok, Ban: b}, nil
}

func (f *fakeBans) BanDevice(ctx context.Context, req ban.BanRequest) (*ban.BannedDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	b := &ban.BannedDevice{DeviceHash: req.DeviceHash, BannedBy: req.BannedBy, Reason: req.Reason, ViolationType: req.ViolationType}
	f.bans[req.DeviceHash] = b
	return b, nil
}

func (f *fakeBans) UnbanDevice(ctx context.Context, hash, unbannedBy, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unbanBy = unbannedBy
	if _, ok := f.bans[hash]; !ok {
		return false, nil
	}
	delete(f.bans, hash)
	return true, nil
}

func (f *fakeBans) SubmitAppeal(ctx context.Context, hash, reason, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appeals++
	_, ok := f.bans[hash]
	return ok, nil
}

func (f *fakeBans) GetAllBannedDevices(ctx context.Context) ([]*ban.BannedDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*ban.BannedDevice, 0, len(f.bans))
	for _, b := range f.bans {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBans) GetBanStatistics(ctx context.Context) (*ban.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &ban.Statistics{TotalBanned: len(f.bans), ByViolationType: map[string]int{}}, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (f *fakeUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return u, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
	filters []audit.QueryFilter
}

func (f *fakeAudit) Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	end := filter.Offset + filter.Limit
	if end > len(f.entries) {
		end = len(f.entries)
	}
	if filter.Offset >= end {
		return nil, nil
	}
	return f.entries[filter.Offset:end], nil
}

func (f *fakeAudit) Count(ctx context.Context, filter audit.QueryFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.entries)), nil
}

type testEnv struct {
	handler http.Handler
	jwt     *auth.JWTManager

	fingerprints *fakeFingerprints
	engine       *fakeEngine
	realtime     *fakeRealtime
	bans         *fakeBans
	limiter      *ratelimit.Limiter
	audit        *fakeAudit
	readyErr     error
}

func newTestEnv(t *testing.T, opts ...func(*config.SecurityConfig)) *testEnv {
	t.Helper()

	secCfg := config.SecurityConfig{
		AdminJWTSecret:    testJWTSecret,
		AdminTokenTTL:     time.Hour,
		CORSOrigins:       []string{"https://captcha.example"},
		HTTPRateLimitReqs: 1000,
		HTTPRateLimitWin:  time.Minute,
	}
	for _, opt := range opts {
		opt(&secCfg)
	}

	jwt, err := auth.NewJWTManager(&secCfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	env := &testEnv{
		jwt: jwt,
		fingerprints: &fakeFingerprints{fp: &fingerprint.DeviceFingerprint{
			Hash: testHash, UserID: "u1", UsageCount: 1, RiskScore: 0.4,
		}},
		engine:   &fakeEngine{},
		realtime: &fakeRealtime{},
		bans:     newFakeBans(),
		limiter:  ratelimit.NewLimiter(ratelimit.NewMemoryStore(0), config.RateLimitConfig{}),
		audit:    &fakeAudit{},
	}

	h := NewHandler(Deps{
		Fingerprints: env.fingerprints,
		Engine:       env.engine,
		Realtime:     env.realtime,
		Bans:         env.bans,
		Limiter:      env.limiter,
		Audit:        env.audit,
		Users: &fakeUsers{users: map[string]*models.User{
			"u1": {ID: "u1", RegisteredAt: time.Now().Add(-48 * time.Hour)},
		}},
		Readiness: map[string]ReadinessCheck{
			"store": func(ctx context.Context) error { return env.readyErr },
		},
	})
	env.handler = NewRouter(h, NewChiMiddleware(ChiMiddlewareConfigFrom(secCfg), jwt)).Setup()
	return env
}

func (e *testEnv) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken("ops-"+role, role)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

// do sends a request and decodes the envelope.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var resp models.APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Logf("non-envelope body: %s", rec.Body.String())
		}
	}
	return rec, resp
}

func validSignals() map[string]interface{} {
	return map[string]interface{}{
		"hardware": map[string]interface{}{"screen_resolution": "1920x1080", "hardware_concurrency": 8},
		"browser":  map[string]interface{}{"user_agent": "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0", "language": "en-US"},
	}
}

// dataJSON re-encodes the data member of an envelope, dropping metadata
// that differs between otherwise identical responses.
func dataJSON(t *testing.T, body []byte) string {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return string(env.Data)
}

func auditEntry(i int) audit.Entry {
	return audit.Entry{
		ID:        fmt.Sprintf("entry-%d", i),
		Timestamp: time.Date(2026, 3, 1, 12, i, 0, 0, time.UTC),
		Type:      audit.TypeSecurityAnalysis,
		Severity:  audit.SeverityInfo,
		UserID:    "u1",
		RiskScore: 0.1 * float64(i),
	}
}

var errStoreDown = errors.New("connection refused")
