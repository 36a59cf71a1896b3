// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/netip"
	"sync"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/cache"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/validation"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/vpn"
)

// Config tunes the fingerprint service.
type Config struct {
	Salt                string
	SimilarityThreshold float64
	BotThreshold        float64
	AsyncScanThreshold  int
	MaxSimilarDevices   int
	ScanWindowDays      int
}

// DefaultConfig returns the production defaults. Salt must still be set.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.75,
		BotThreshold:        0.5,
		AsyncScanThreshold:  5000,
		MaxSimilarDevices:   15,
		ScanWindowDays:      90,
	}
}

// BanChecker answers whether a device hash is banned.
type BanChecker interface {
	IsDeviceBanned(ctx context.Context, hash string) (ban.Status, error)
}

// Enqueuer hands collision scans to the background queue.
type Enqueuer interface {
	EnqueueCollisionScan(ctx context.Context, req ScanRequest) error
}

// Service generates, stores and compares device fingerprints.
type Service struct {
	store  Store
	cfg    Config
	secLog *logging.SecurityLogger

	mu       sync.RWMutex
	bans     BanChecker
	network  vpn.Classifier
	enqueuer Enqueuer
	bots     *botScanner
	now      func() time.Time
}

// NewService creates a fingerprint service over store.
func NewService(store Store, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.BotThreshold <= 0 {
		cfg.BotThreshold = def.BotThreshold
	}
	if cfg.AsyncScanThreshold <= 0 {
		cfg.AsyncScanThreshold = def.AsyncScanThreshold
	}
	if cfg.MaxSimilarDevices <= 0 {
		cfg.MaxSimilarDevices = def.MaxSimilarDevices
	}
	if cfg.ScanWindowDays <= 0 {
		cfg.ScanWindowDays = def.ScanWindowDays
	}

	return &Service{
		store:  store,
		cfg:    cfg,
		secLog: logging.NewSecurityLogger(),
		bots: &botScanner{
			userAgents: cache.NewUserAgentDetector(nil),
			threshold:  cfg.BotThreshold,
		},
		now: time.Now,
	}
}

// SetBanChecker installs the ban gate used by GenerateFingerprint.
func (s *Service) SetBanChecker(b BanChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans = b
}

// SetNetworkClassifier installs the VPN/Tor/proxy lookup.
func (s *Service) SetNetworkClassifier(c vpn.Classifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network = c
	s.bots = &botScanner{userAgents: s.bots.userAgents, network: c, threshold: s.cfg.BotThreshold}
}

// SetEnqueuer installs the background queue for large collision scans.
// Without one every scan runs inline.
func (s *Service) SetEnqueuer(e Enqueuer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueuer = e
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Store returns the backing store.
func (s *Service) Store() Store {
	return s.store
}

func (s *Service) deps() (BanChecker, vpn.Classifier, Enqueuer, *botScanner, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bans, s.network, s.enqueuer, s.bots, s.now().UTC()
}

// prepare validates, normalizes and hashes a bundle.
func (s *Service) prepare(signals *DeviceSignals) (DeviceSignals, string, error) {
	if signals == nil {
		return DeviceSignals{}, "", &models.ValidationError{Field: "signals", Reason: "device signals are required"}
	}
	if err := validation.ValidateStruct(signals); err != nil {
		return DeviceSignals{}, "", err
	}
	normalized := Normalize(signals)
	hash, err := ComputeHash(&normalized, s.cfg.Salt)
	if err != nil {
		return DeviceSignals{}, "", err
	}
	return normalized, hash, nil
}

// GenerateDeviceHash validates, normalizes and hashes signals without
// touching the store.
func (s *Service) GenerateDeviceHash(ctx context.Context, signals *DeviceSignals) (string, error) {
	_, hash, err := s.prepare(signals)
	return hash, err
}

// GenerateFingerprint registers signals for userID. A banned device gets a
// DeviceBannedError. If the ban store cannot be read the call fails with
// StoreUnavailableError rather than letting the device through.
func (s *Service) GenerateFingerprint(ctx context.Context, signals *DeviceSignals, userID string) (*DeviceFingerprint, error) {
	normalized, hash, err := s.prepare(signals)
	if err != nil {
		metrics.FingerprintsGenerated.WithLabelValues("invalid").Inc()
		return nil, err
	}

	bans, network, _, bots, now := s.deps()
	log := logging.Ctx(ctx).With().
		Str("user_id", logging.SanitizeUserID(userID)).
		Str("device_hash", logging.HashPrefix(hash)).
		Logger()

	if bans != nil {
		status, err := bans.IsDeviceBanned(ctx, hash)
		if err != nil {
			metrics.FingerprintsGenerated.WithLabelValues("error").Inc()
			log.Error().Err(err).Msg("Ban lookup failed, refusing registration")
			return nil, models.NewStoreUnavailable("bans", "is_banned", err)
		}
		if status.IsBanned {
			metrics.FingerprintsGenerated.WithLabelValues("banned").Inc()
			s.secLog.LogBannedDeviceAttempt(userID, hash)
			banErr := &models.DeviceBannedError{DeviceHash: hash}
			if status.Ban != nil {
				banErr.Reason = status.Ban.Reason
				banErr.Appealable = status.Ban.Appealable && !status.Ban.AppealSubmitted
			}
			return nil, banErr
		}
	}

	fp := &DeviceFingerprint{
		ID:         RecordID(hash, userID),
		Hash:       hash,
		UserID:     userID,
		Components: normalized,
		Quality:    ComputeQuality(&normalized),
	}

	botResult := bots.detect(fp, signals)
	factors := s.riskFactors(fp, botResult, network)
	fp.RiskScore = scoreFactors(factors)
	fp.Metadata.RiskFactors = factors

	existing, err := s.store.Get(ctx, hash, userID)
	switch {
	case err == nil:
		touched, err := s.store.Touch(ctx, hash, userID, TouchUpdate{
			SeenAt:      now,
			RiskScore:   fp.RiskScore,
			RiskFactors: factors,
			Quality:     fp.Quality,
			Network:     normalized.Network,
			Behavioral:  normalized.Behavioral,
		})
		if err != nil {
			metrics.FingerprintsGenerated.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("touch fingerprint: %w", err)
		}
		metrics.FingerprintsGenerated.WithLabelValues("seen").Inc()
		log.Debug().Int64("usage_count", touched.UsageCount).Int64("previous", existing.UsageCount).Msg("Known device seen again")
		return touched, nil

	case errors.Is(err, models.ErrNotFound):
		fp.RegisteredAt = now
		fp.LastSeenAt = now
		fp.UsageCount = 1
		fp.Metadata.SimilarDevices = []string{}
		fp.Metadata.VerificationHistory = []VerificationEvent{{Type: EventRegistered, Timestamp: now}}
		if err := s.store.Save(ctx, fp); err != nil {
			metrics.FingerprintsGenerated.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("save fingerprint: %w", err)
		}
		metrics.FingerprintsGenerated.WithLabelValues("new").Inc()
		log.Info().
			Float64("risk_score", fp.RiskScore).
			Float64("quality", fp.Quality.Overall).
			Bool("bot", botResult.IsBot).
			Msg("Device fingerprint registered")
		return fp, nil

	default:
		metrics.FingerprintsGenerated.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load fingerprint: %w", err)
	}
}

// DetectBotBehavior scores fp for automation. raw, when given, is the
// bundle before normalization and is preferred for user-agent matching.
func (s *Service) DetectBotBehavior(fp *DeviceFingerprint, raw *DeviceSignals) BotDetectionResult {
	_, _, _, bots, _ := s.deps()
	return bots.detect(fp, raw)
}

func (s *Service) riskFactors(fp *DeviceFingerprint, bot BotDetectionResult, network vpn.Classifier) []models.RiskFactor {
	var factors []models.RiskFactor
	c := &fp.Components

	if bot.IsBot {
		severity := models.SeverityHigh
		if bot.Score >= 0.8 {
			severity = models.SeverityCritical
		}
		factors = append(factors, models.NewRiskFactor(models.FactorBotDetected, severity, bot.Score, map[string]interface{}{
			"category":   string(bot.Category),
			"indicators": bot.Indicators,
			"confidence": bot.Confidence,
		}))
	}

	if issues := hardwareInconsistencies(c); len(issues) > 0 {
		factors = append(factors, models.NewRiskFactor(models.FactorHardwareInconsistency, models.SeverityMedium, 0.6,
			map[string]interface{}{"issues": issues}))
	}

	if network != nil && c.Network.IPAddress != "" {
		class := network.Classify(c.Network.IPAddress)
		evidence := map[string]interface{}{"providers": class.Providers}
		if class.IsTor {
			factors = append(factors, models.NewRiskFactor(models.FactorTorDetected, models.SeverityHigh, 0.8, evidence))
		}
		if class.IsProxy {
			factors = append(factors, models.NewRiskFactor(models.FactorProxyDetected, models.SeverityMedium, 0.6, evidence))
		}
		if class.IsVPN {
			factors = append(factors, models.NewRiskFactor(models.FactorVPNDetected, models.SeverityMedium, 0.5, evidence))
		}
	}

	if leaked := webRTCLeak(c.Network); len(leaked) > 0 {
		factors = append(factors, models.NewRiskFactor(models.FactorLocationInconsistency, models.SeverityMedium, 0.5,
			map[string]interface{}{"webrtc_public_ips": len(leaked)}))
	}

	return factors
}

// scoreFactors sums score × severity weight, capped at 1.
func scoreFactors(factors []models.RiskFactor) float64 {
	var total float64
	for _, f := range factors {
		total += f.Score * f.Severity.Weight()
	}
	return round3(math.Min(1, total))
}

// webRTCLeak returns public WebRTC addresses that differ from the
// connecting address, which points at a tunnel in front of the client.
func webRTCLeak(n NetworkSignals) []string {
	if n.IPAddress == "" {
		return nil
	}
	conn, err := netip.ParseAddr(n.IPAddress)
	if err != nil {
		return nil
	}
	conn = conn.Unmap()

	var leaked []string
	for _, raw := range n.WebRTCIPs {
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			continue
		}
		addr = addr.Unmap()
		if addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsUnspecified() {
			continue
		}
		if addr != conn {
			leaked = append(leaked, raw)
		}
	}
	return leaked
}
