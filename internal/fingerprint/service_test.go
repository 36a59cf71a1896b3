// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/vpn"
)

type fakeBans struct {
	mu     sync.Mutex
	banned map[string]*ban.BannedDevice
	err    error
}

func (f *fakeBans) IsDeviceBanned(ctx context.Context, hash string) (ban.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return ban.Status{}, f.err
	}
	if b, ok := f.banned[hash]; ok {
		return ban.Status{IsBanned: true, Ban: b}, nil
	}
	return ban.Status{}, nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	requests []ScanRequest
	err      error
}

func (f *fakeEnqueuer) EnqueueCollisionScan(ctx context.Context, req ScanRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

// brokenStore fails every typed read.
type brokenStore struct {
	*MemoryStore
}

func (b *brokenStore) FindByHash(ctx context.Context, hash string) ([]*DeviceFingerprint, error) {
	return nil, models.NewStoreUnavailable("fingerprints", "find_by_hash", errors.New("decode failed"))
}

// rawStore fails typed reads but can scan leniently.
type rawStore struct {
	*brokenStore
}

func (r *rawStore) ScanRaw(ctx context.Context, limit int) ([]*DeviceFingerprint, error) {
	return r.MemoryStore.All(ctx)
}

func newTestService() *Service {
	return NewService(NewMemoryStore(), Config{Salt: "test-salt"})
}

func TestGenerateFingerprint_RegistersThenTouches(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.GenerateFingerprint(ctx, sampleSignals(), "u1")
	if err != nil {
		t.Fatalf("GenerateFingerprint() error = %v", err)
	}
	if first.UsageCount != 1 || len(first.Metadata.VerificationHistory) != 1 ||
		first.Metadata.VerificationHistory[0].Type != EventRegistered {
		t.Errorf("new fingerprint = %+v", first)
	}
	if first.Quality.Overall <= 0.8 {
		t.Errorf("Quality.Overall = %v, want > 0.8 for a full bundle", first.Quality.Overall)
	}

	second, err := svc.GenerateFingerprint(ctx, sampleSignals(), "u1")
	if err != nil {
		t.Fatalf("second GenerateFingerprint() error = %v", err)
	}
	if second.Hash != first.Hash {
		t.Error("hash changed between identical captures")
	}
	if second.UsageCount != 2 {
		t.Errorf("UsageCount = %d, want 2", second.UsageCount)
	}
	last := second.Metadata.VerificationHistory[len(second.Metadata.VerificationHistory)-1]
	if last.Type != EventSeen {
		t.Errorf("last event = %s, want seen", last.Type)
	}

	count, _ := svc.Store().Count(ctx)
	if count != 1 {
		t.Errorf("store count = %d, want 1", count)
	}
}

func TestGenerateFingerprint_RejectsInvalidBundle(t *testing.T) {
	svc := newTestService()
	bad := sampleSignals()
	bad.Hardware.ScreenResolution = "wide"
	bad.Network.IPAddress = "not-an-ip"

	_, err := svc.GenerateFingerprint(context.Background(), bad, "u1")
	var vErr *models.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("GenerateFingerprint() error = %v, want ValidationError", err)
	}

	if _, err := svc.GenerateFingerprint(context.Background(), nil, "u1"); !errors.As(err, &vErr) {
		t.Errorf("nil bundle error = %v, want ValidationError", err)
	}
}

func TestGenerateFingerprint_BannedDeviceFailsClosed(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	hash, err := svc.GenerateDeviceHash(ctx, sampleSignals())
	if err != nil {
		t.Fatalf("GenerateDeviceHash() error = %v", err)
	}
	hours := 24
	svc.SetBanChecker(&fakeBans{banned: map[string]*ban.BannedDevice{
		hash: {DeviceHash: hash, Reason: "multi account", Appealable: true, BanDurationHours: &hours},
	}})

	_, err = svc.GenerateFingerprint(ctx, sampleSignals(), "u2")
	var banErr *models.DeviceBannedError
	if !errors.As(err, &banErr) {
		t.Fatalf("GenerateFingerprint() error = %v, want DeviceBannedError", err)
	}
	if !banErr.Appealable || banErr.Reason != "multi account" {
		t.Errorf("DeviceBannedError = %+v", banErr)
	}
	if n, _ := svc.Store().Count(ctx); n != 0 {
		t.Error("banned device was persisted")
	}
}

func TestGenerateFingerprint_BanStoreFailureFailsClosed(t *testing.T) {
	svc := newTestService()
	svc.SetBanChecker(&fakeBans{err: errors.New("badger closed")})

	_, err := svc.GenerateFingerprint(context.Background(), sampleSignals(), "u1")
	if !models.IsStoreUnavailable(err) {
		t.Errorf("GenerateFingerprint() error = %v, want StoreUnavailableError", err)
	}
}

func TestGenerateFingerprint_NetworkRiskFactors(t *testing.T) {
	svc := newTestService()
	lookup := vpn.NewLookup()
	if err := lookup.AddAddress("203.0.113.7", vpn.CategoryTor, "tor-exit"); err != nil {
		t.Fatalf("AddAddress() error = %v", err)
	}
	svc.SetNetworkClassifier(vpn.NewServiceWithLookup(lookup))

	signals := sampleSignals()
	signals.Network.WebRTCIPs = []string{"192.168.1.10", "198.51.100.20"}

	fp, err := svc.GenerateFingerprint(context.Background(), signals, "u1")
	if err != nil {
		t.Fatalf("GenerateFingerprint() error = %v", err)
	}

	types := models.FactorTypes(fp.Metadata.RiskFactors)
	want := map[models.RiskFactorType]bool{
		models.FactorTorDetected:           true,
		models.FactorLocationInconsistency: true,
	}
	for _, ft := range types {
		delete(want, ft)
	}
	if len(want) != 0 {
		t.Errorf("missing risk factors %v in %v", want, types)
	}
	// tor 0.8×0.75 + leak 0.5×0.5
	if fp.RiskScore != 0.85 {
		t.Errorf("RiskScore = %v, want 0.85", fp.RiskScore)
	}
}

func TestCheckDeviceCollision_ExactMatchIsCritical(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.GenerateFingerprint(ctx, sampleSignals(), "u1"); err != nil {
		t.Fatalf("GenerateFingerprint(u1) error = %v", err)
	}
	fp, err := svc.GenerateFingerprint(ctx, sampleSignals(), "u2")
	if err != nil {
		t.Fatalf("GenerateFingerprint(u2) error = %v", err)
	}

	result, err := svc.CheckDeviceCollision(ctx, fp, "u2")
	if err != nil {
		t.Fatalf("CheckDeviceCollision() error = %v", err)
	}
	if !result.HasCollision || !result.ExactMatch || result.RiskLevel != CollisionRiskCritical {
		t.Errorf("result = %+v, want exact critical collision", result)
	}
	if len(result.CollidingUsers) != 1 || result.CollidingUsers[0] != "u1" {
		t.Errorf("CollidingUsers = %v, want [u1]", result.CollidingUsers)
	}

	stored, err := svc.Store().Get(ctx, fp.Hash, "u2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Metadata.CollisionCount != 1 {
		t.Errorf("CollisionCount = %d, want 1", stored.Metadata.CollisionCount)
	}
}

func TestCheckDeviceCollision_NoOtherUsers(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	fp, err := svc.GenerateFingerprint(ctx, sampleSignals(), "u1")
	if err != nil {
		t.Fatalf("GenerateFingerprint() error = %v", err)
	}
	result, err := svc.CheckDeviceCollision(ctx, fp, "u1")
	if err != nil {
		t.Fatalf("CheckDeviceCollision() error = %v", err)
	}
	if result.HasCollision || result.RiskLevel != CollisionRiskLow {
		t.Errorf("result = %+v, want no collision", result)
	}
}

func updatedBrowser() *DeviceSignals {
	s := sampleSignals()
	s.Browser.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	return s
}

func TestCheckDeviceCollision_QueuesLargeScansAndJobIsIdempotent(t *testing.T) {
	svc := NewService(NewMemoryStore(), Config{Salt: "test-salt", AsyncScanThreshold: 1})
	queue := &fakeEnqueuer{}
	svc.SetEnqueuer(queue)
	ctx := context.Background()

	if _, err := svc.GenerateFingerprint(ctx, sampleSignals(), "u1"); err != nil {
		t.Fatalf("GenerateFingerprint(u1) error = %v", err)
	}
	fp, err := svc.GenerateFingerprint(ctx, updatedBrowser(), "u2")
	if err != nil {
		t.Fatalf("GenerateFingerprint(u2) error = %v", err)
	}

	result, err := svc.CheckDeviceCollision(ctx, fp, "u2")
	if err != nil {
		t.Fatalf("CheckDeviceCollision() error = %v", err)
	}
	if !result.Pending || result.HasCollision {
		t.Errorf("result = %+v, want pending without exact collision", result)
	}
	if len(queue.requests) != 1 {
		t.Fatalf("queued scans = %d, want 1", len(queue.requests))
	}

	scan, err := svc.RunCollisionScan(ctx, queue.requests[0])
	if err != nil {
		t.Fatalf("RunCollisionScan() error = %v", err)
	}
	if !scan.HasCollision || scan.RiskLevel != CollisionRiskHigh {
		t.Errorf("scan = %+v, want high risk near-identical collision", scan)
	}

	if _, err := svc.RunCollisionScan(ctx, queue.requests[0]); err != nil {
		t.Fatalf("second RunCollisionScan() error = %v", err)
	}
	stored, err := svc.Store().Get(ctx, fp.Hash, "u2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Metadata.CollisionCount != 1 {
		t.Errorf("CollisionCount = %d, want 1", stored.Metadata.CollisionCount)
	}
	events := 0
	for _, e := range stored.Metadata.VerificationHistory {
		if e.Type == EventCollisionDetected {
			events++
		}
	}
	if events != 1 {
		t.Errorf("collision events = %d, want 1 after a repeated scan", events)
	}
}

func TestCheckDeviceCollision_EnqueueFailureScansInline(t *testing.T) {
	svc := NewService(NewMemoryStore(), Config{Salt: "test-salt", AsyncScanThreshold: 1})
	svc.SetEnqueuer(&fakeEnqueuer{err: errors.New("queue closed")})
	ctx := context.Background()

	if _, err := svc.GenerateFingerprint(ctx, sampleSignals(), "u1"); err != nil {
		t.Fatalf("GenerateFingerprint(u1) error = %v", err)
	}
	fp, err := svc.GenerateFingerprint(ctx, updatedBrowser(), "u2")
	if err != nil {
		t.Fatalf("GenerateFingerprint(u2) error = %v", err)
	}

	result, err := svc.CheckDeviceCollision(ctx, fp, "u2")
	if err != nil {
		t.Fatalf("CheckDeviceCollision() error = %v", err)
	}
	if result.Pending || !result.HasCollision {
		t.Errorf("result = %+v, want inline collision", result)
	}
}

func TestCheckDeviceCollision_StoreFailure(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	seed := NewService(mem, Config{Salt: "test-salt"})
	if _, err := seed.GenerateFingerprint(ctx, sampleSignals(), "u1"); err != nil {
		t.Fatalf("GenerateFingerprint() error = %v", err)
	}
	probe := fingerprintFor(sampleSignals(), "test-salt")

	t.Run("no raw scanner", func(t *testing.T) {
		svc := NewService(&brokenStore{MemoryStore: mem}, Config{Salt: "test-salt"})
		result, err := svc.CheckDeviceCollision(ctx, probe, "u2")
		if err != nil {
			t.Fatalf("CheckDeviceCollision() error = %v", err)
		}
		if !result.Degraded || result.HasCollision {
			t.Errorf("result = %+v, want empty degraded result", result)
		}
	})

	t.Run("raw scanner", func(t *testing.T) {
		svc := NewService(&rawStore{brokenStore: &brokenStore{MemoryStore: mem}}, Config{Salt: "test-salt"})
		result, err := svc.CheckDeviceCollision(ctx, probe, "u2")
		if err != nil {
			t.Fatalf("CheckDeviceCollision() error = %v", err)
		}
		if !result.Degraded || !result.ExactMatch {
			t.Errorf("result = %+v, want degraded exact match from raw scan", result)
		}
	})
}

func TestJoinCandidates_LeavesInputsUntouched(t *testing.T) {
	a := &DeviceFingerprint{Hash: "a", UserID: "u1"}
	b := &DeviceFingerprint{Hash: "b", UserID: "u2"}
	c := &DeviceFingerprint{Hash: "c", UserID: "u3"}

	backing := make([]*DeviceFingerprint, 1, 4)
	backing[0] = a
	exact := backing[:1]
	spare := backing[:2]

	got := joinCandidates(exact, []*DeviceFingerprint{b, c})
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("joinCandidates() = %v, want [a b c]", got)
	}
	if spare[1] != nil {
		t.Error("joinCandidates wrote into the spare capacity of exact")
	}

	got[0] = c
	if exact[0] != a {
		t.Error("result shares its backing array with exact")
	}
}

func TestCollisionRisk(t *testing.T) {
	tests := []struct {
		exact, near bool
		users       int
		want        CollisionRisk
	}{
		{false, false, 0, CollisionRiskLow},
		{false, false, 1, CollisionRiskMedium},
		{false, true, 1, CollisionRiskHigh},
		{false, false, 2, CollisionRiskHigh},
		{false, false, 4, CollisionRiskCritical},
		{true, false, 1, CollisionRiskCritical},
	}
	for _, tt := range tests {
		if got := collisionRisk(tt.exact, tt.near, tt.users); got != tt.want {
			t.Errorf("collisionRisk(%v, %v, %d) = %s, want %s", tt.exact, tt.near, tt.users, got, tt.want)
		}
	}
}

func TestMemoryStore_RecordCollisionIsSetUnion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Save(ctx, &DeviceFingerprint{Hash: "h", UserID: "u"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	added, err := store.RecordCollision(ctx, "h", "u", []string{"a", "b"})
	if err != nil || added != 2 {
		t.Fatalf("RecordCollision() = %d, %v, want 2", added, err)
	}
	added, err = store.RecordCollision(ctx, "h", "u", []string{"b", "c"})
	if err != nil || added != 1 {
		t.Fatalf("RecordCollision() = %d, %v, want 1", added, err)
	}

	fp, _ := store.Get(ctx, "h", "u")
	if fp.Metadata.CollisionCount != 3 {
		t.Errorf("CollisionCount = %d, want 3", fp.Metadata.CollisionCount)
	}

	n, _ := store.MarkBlocked(ctx, "h")
	if n != 1 {
		t.Errorf("MarkBlocked() = %d, want 1", n)
	}
	if n, _ := store.MarkBlocked(ctx, "h"); n != 0 {
		t.Errorf("second MarkBlocked() = %d, want 0", n)
	}
}

func TestCheckDeviceCollision_SameDeviceDifferentTimezone(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.GenerateFingerprint(ctx, sampleSignals(), "u1"); err != nil {
		t.Fatalf("GenerateFingerprint(u1) error = %v", err)
	}
	travelling := sampleSignals()
	travelling.Browser.Timezone = "America/New_York"
	fp, err := svc.GenerateFingerprint(ctx, travelling, "u2")
	if err != nil {
		t.Fatalf("GenerateFingerprint(u2) error = %v", err)
	}

	result, err := svc.CheckDeviceCollision(ctx, fp, "u2")
	if err != nil {
		t.Fatalf("CheckDeviceCollision() error = %v", err)
	}
	if result.ExactMatch {
		t.Error("timezone change should not produce an exact hash match")
	}
	if result.RiskLevel != CollisionRiskHigh && result.RiskLevel != CollisionRiskCritical {
		t.Errorf("RiskLevel = %s, want at least high", result.RiskLevel)
	}
	if len(result.SimilarDevices) != 1 || result.SimilarDevices[0].CriticalMatches < 3 {
		t.Errorf("SimilarDevices = %+v, want one match with >= 3 critical matches", result.SimilarDevices)
	}
}
