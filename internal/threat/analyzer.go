// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package threat

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/cache"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/vpn"
)

const (
	similarDeviceThreshold = 0.75
	minAutomationSamples   = 5
	automationCV           = 0.1
	rapidReferralCount     = 10
	rapidReferralAgeDays   = 7
	newAccountPoints       = 100
)

// Analyzer computes per-user threat analyses and watches real-time events.
type Analyzer struct {
	cfg        config.ThreatConfig
	cache      *cache.LRUCache[cachedAnalysis]
	windows    *cache.SlidingWindowStore
	ipsPerUser *cache.UniqueValueStore
	userAgents *cache.UserAgentDetector
	network    vpn.Classifier
	now        func() time.Time
	mu         sync.RWMutex
}

// NewAnalyzer creates an analyzer. Zero config fields fall back to the
// defaults.
func NewAnalyzer(cfg config.ThreatConfig) *Analyzer {
	if cfg.Sensitivity <= 0 {
		cfg.Sensitivity = 1.0
	}
	if cfg.MaxPointsPerDay <= 0 {
		cfg.MaxPointsPerDay = 10000
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 10000
	}
	if cfg.RapidFireWindow <= 0 {
		cfg.RapidFireWindow = time.Minute
	}
	if cfg.RapidFireThreshold <= 0 {
		cfg.RapidFireThreshold = 30
	}

	return &Analyzer{
		cfg:        cfg,
		cache:      cache.NewLRUCache[cachedAnalysis](cfg.CacheSize, cfg.CacheTTL),
		windows:    cache.NewSlidingWindowStore(cfg.RapidFireWindow, 6, cfg.CacheSize),
		ipsPerUser: cache.NewUniqueValueStore(cfg.RapidFireWindow*10, cfg.CacheSize),
		userAgents: cache.NewUserAgentDetector(nil),
		now:        time.Now,
	}
}

// SetNetworkClassifier enables anonymizer checks on real-time events.
func (a *Analyzer) SetNetworkClassifier(c vpn.Classifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.network = c
}

// SetClock overrides the time source, including the caches and windows.
func (a *Analyzer) SetClock(now func() time.Time) {
	a.mu.Lock()
	a.now = now
	a.mu.Unlock()
	a.cache.SetClock(now)
	a.windows.SetClock(now)
	a.ipsPerUser.SetClock(now)
}

func (a *Analyzer) clock() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.now()
}

func (a *Analyzer) classifier() vpn.Classifier {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.network
}

// Invalidate drops the cached analysis for userID.
func (a *Analyzer) Invalidate(userID string) {
	a.cache.Remove(userID)
}

// CleanupExpired purges expired cache entries and idle windows.
func (a *Analyzer) CleanupExpired() int {
	return a.cache.CleanupExpired() + a.windows.CleanupInactive() + a.ipsPerUser.CleanupInactive()
}

// cachedAnalysis is a cache entry. digest identifies the inputs it was
// computed from.
type cachedAnalysis struct {
	digest   uint64
	analysis *Analysis
}

// AnalyzeUser returns the threat analysis for in.User, serving from cache
// while the entry is fresh and was computed from the same device, related
// set and activity. Anything else recomputes.
func (a *Analyzer) AnalyzeUser(ctx context.Context, in Input) *Analysis {
	if in.User == nil {
		return &Analysis{
			ThreatLevel:    models.ThreatLow,
			CategoryScores: emptyCategoryScores(),
			Metadata:       AnalysisMetadata{AnalyzedAt: a.clock()},
		}
	}

	digest := inputDigest(in)
	if cached, ok := a.cache.Get(in.User.ID); ok && cached.digest == digest {
		metrics.ThreatAnalysisCache.WithLabelValues("hit").Inc()
		out := cached.analysis.clone()
		out.Metadata.Cached = true
		return out
	}
	metrics.ThreatAnalysisCache.WithLabelValues("miss").Inc()

	start := a.clock()
	var factors []models.RiskFactor
	factors = append(factors, a.analyzeDevice(in)...)
	factors = append(factors, a.analyzeBehavior(in)...)
	factors = append(factors, a.analyzeNetwork(in)...)
	factors = append(factors, a.analyzeAccount(in, start)...)

	scores, overall, confidence := calculateThreatScore(factors)
	level := models.ThreatLevelForScore(overall)
	matches := MatchPatterns(models.FactorTypes(factors))

	analysis := &Analysis{
		UserID:           in.User.ID,
		OverallRiskScore: overall,
		ThreatLevel:      level,
		CategoryScores:   scores,
		RiskFactors:      factors,
		MatchedPatterns:  matches,
		Recommendations:  recommendations(level, matches),
		Metadata: AnalysisMetadata{
			Confidence:  confidence,
			FactorCount: len(factors),
			AnalyzedAt:  start,
			Duration:    a.clock().Sub(start),
		},
	}

	logging.Ctx(ctx).Debug().
		Str("user_id", logging.SanitizeUserID(in.User.ID)).
		Float64("risk_score", overall).
		Str("threat_level", string(level)).
		Int("factors", len(factors)).
		Int("patterns", len(matches)).
		Msg("Threat analysis computed")

	a.cache.Add(in.User.ID, cachedAnalysis{digest: digest, analysis: analysis})
	return analysis.clone()
}

// inputDigest hashes the parts of in besides User that change the outcome.
// Related records are order-insensitive.
func inputDigest(in Input) uint64 {
	h := fnv.New64a()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}

	if in.Fingerprint != nil {
		write("fp", in.Fingerprint.Hash, in.Fingerprint.UserID)
	}

	related := make([]string, 0, len(in.RelatedUsers)+len(in.RelatedFingerprints))
	for _, u := range in.RelatedUsers {
		if u != nil {
			related = append(related, "u:"+u.ID)
		}
	}
	for _, fp := range in.RelatedFingerprints {
		if fp != nil {
			related = append(related, "f:"+fp.Hash+":"+fp.UserID)
		}
	}
	sort.Strings(related)
	write(related...)

	for _, act := range in.RecentActivity {
		write("a", act.Type, act.Timestamp.UTC().Format(time.RFC3339Nano), act.IPAddress,
			strconv.FormatInt(act.Points, 10))
	}
	return h.Sum64()
}

func (a *Analyzer) analyzeDevice(in Input) []models.RiskFactor {
	var out []models.RiskFactor
	fp := in.Fingerprint
	if fp == nil {
		return out
	}
	now := a.clock()

	for _, f := range fp.Metadata.RiskFactors {
		switch f.Type {
		case models.FactorBotDetected, models.FactorBotDetection:
			out = append(out, models.RiskFactor{
				Type:       models.FactorBotDetection,
				Severity:   f.Severity,
				Score:      f.Score,
				Evidence:   f.Evidence,
				DetectedAt: now,
			})
		case models.FactorHardwareInconsistency, models.FactorDeviceFingerprintMismatch:
			f.DetectedAt = now
			out = append(out, f)
		}
	}

	var identical []string
	var similar []string
	best := 0.0
	for _, other := range in.RelatedFingerprints {
		if other == nil || other.UserID == fp.UserID {
			continue
		}
		if other.Hash == fp.Hash {
			identical = append(identical, other.UserID)
			continue
		}
		cmp := fingerprint.PerformAdvancedComparison(fp, other)
		if cmp.Score >= similarDeviceThreshold {
			similar = append(similar, other.UserID)
			best = math.Max(best, cmp.Score)
		}
	}
	if len(identical) > 0 {
		out = append(out, models.NewRiskFactor(models.FactorIdenticalDeviceFingerprint, models.SeverityCritical, 1.0,
			map[string]interface{}{"users": identical, "count": len(identical)}))
	}
	if len(similar) > 0 {
		out = append(out, models.NewRiskFactor(models.FactorSimilarDeviceFingerprint, models.SeverityHigh, best,
			map[string]interface{}{"users": similar, "bestSimilarity": best}))
	}
	if fp.RiskScore >= 0.7 {
		out = append(out, models.NewRiskFactor(models.FactorHighDeviceRisk, models.SeverityHigh, fp.RiskScore,
			map[string]interface{}{"deviceRiskScore": fp.RiskScore}))
	}
	return out
}

func (a *Analyzer) analyzeBehavior(in Input) []models.RiskFactor {
	var out []models.RiskFactor
	if len(in.RecentActivity) == 0 {
		return out
	}

	now := a.clock()
	cutoff := now.Add(-a.cfg.RapidFireWindow)
	inWindow := 0
	times := make([]time.Time, 0, len(in.RecentActivity))
	for _, act := range in.RecentActivity {
		if !act.Timestamp.Before(cutoff) {
			inWindow++
		}
		times = append(times, act.Timestamp)
	}
	if inWindow > a.cfg.RapidFireThreshold {
		score := models.Clamp01(0.6 + 0.4*float64(inWindow-a.cfg.RapidFireThreshold)/float64(a.cfg.RapidFireThreshold))
		out = append(out, models.NewRiskFactor(models.FactorRapidFireEvents, models.SeverityHigh, score,
			map[string]interface{}{"events": inWindow, "window": a.cfg.RapidFireWindow.String()}))
	}

	if cv, ok := intervalCV(times); ok && cv < automationCV {
		out = append(out, models.NewRiskFactor(models.FactorAutomationDetected, models.SeverityHigh, 0.8,
			map[string]interface{}{"intervalCV": cv, "samples": len(times)}))
	}
	return out
}

// intervalCV is the coefficient of variation of the gaps between sorted
// timestamps.
func intervalCV(times []time.Time) (float64, bool) {
	if len(times) < minAutomationSamples {
		return 0, false
	}
	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].Sub(sorted[i-1]).Seconds())
	}
	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))
	if mean <= 0 {
		return 0, true
	}
	var variance float64
	for _, g := range gaps {
		variance += (g - mean) * (g - mean)
	}
	variance /= float64(len(gaps))
	return math.Sqrt(variance) / mean, true
}

func (a *Analyzer) analyzeNetwork(in Input) []models.RiskFactor {
	var out []models.RiskFactor
	now := a.clock()

	if in.Fingerprint != nil {
		for _, f := range in.Fingerprint.Metadata.RiskFactors {
			switch f.Type {
			case models.FactorVPNDetected, models.FactorTorDetected, models.FactorProxyDetected,
				models.FactorLocationInconsistency:
				f.DetectedAt = now
				out = append(out, f)
			}
		}
	}

	ip := in.User.LastIP
	if ip == "" {
		return out
	}
	var sharing []string
	for _, other := range in.RelatedUsers {
		if other == nil || other.ID == in.User.ID {
			continue
		}
		if other.LastIP == ip {
			sharing = append(sharing, other.ID)
		}
	}
	if len(sharing) > 0 {
		sev := models.SeverityMedium
		if len(sharing) >= 3 {
			sev = models.SeverityHigh
		}
		score := models.Clamp01(0.4 + 0.15*float64(len(sharing)))
		out = append(out, models.NewRiskFactor(models.FactorSharedIP, sev, score,
			map[string]interface{}{"users": sharing, "count": len(sharing)}))
	}
	return out
}

func (a *Analyzer) analyzeAccount(in Input, now time.Time) []models.RiskFactor {
	var out []models.RiskFactor
	u := in.User
	age := u.AccountAge(now)
	ageDays := age.Hours() / 24

	if age < 24*time.Hour && u.Points > newAccountPoints {
		out = append(out, models.NewRiskFactor(models.FactorAccountAgeAnomaly, models.SeverityMedium, 0.6,
			map[string]interface{}{"ageHours": age.Hours(), "points": u.Points}))
	}

	perDay := float64(u.Points) / math.Max(1, ageDays)
	limit := a.cfg.MaxPointsPerDay / a.cfg.Sensitivity
	if perDay > limit {
		score := models.Clamp01(0.7 + 0.3*(perDay-limit)/limit)
		out = append(out, models.NewRiskFactor(models.FactorPointsVelocityAnomaly, models.SeverityHigh, score,
			map[string]interface{}{"pointsPerDay": perDay, "limit": limit}))
	}

	if u.ReferralCount >= rapidReferralCount && ageDays < rapidReferralAgeDays {
		perDayRefs := float64(u.ReferralCount) / math.Max(1, ageDays)
		score := models.Clamp01(0.5 + 0.05*perDayRefs)
		out = append(out, models.NewRiskFactor(models.FactorRapidReferrals, models.SeverityHigh, score,
			map[string]interface{}{"referrals": u.ReferralCount, "ageDays": ageDays}))
	}
	return out
}

func emptyCategoryScores() map[Category]float64 {
	scores := make(map[Category]float64, len(Categories))
	for _, c := range Categories {
		scores[c] = 0
	}
	return scores
}

// calculateThreatScore folds factors into per-category scores, the overall
// score (mean of the four categories) and the confidence (mean factor
// score).
func calculateThreatScore(factors []models.RiskFactor) (map[Category]float64, float64, float64) {
	scores := emptyCategoryScores()
	if len(factors) == 0 {
		return scores, 0, 0
	}

	var total float64
	for _, f := range factors {
		c := categoryOf(f.Type)
		scores[c] += f.Severity.Weight() * f.Score
		total += f.Score
	}

	var overall float64
	for _, c := range Categories {
		scores[c] = models.Clamp01(scores[c])
		overall += scores[c]
	}
	overall /= float64(len(Categories))
	return scores, models.Clamp01(overall), models.Clamp01(total / float64(len(factors)))
}

func recommendations(level models.ThreatLevel, matches []PatternMatch) []string {
	var out []string
	switch level {
	case models.ThreatCritical:
		out = append(out, "Block the account and its device immediately")
	case models.ThreatHigh:
		out = append(out, "Temporarily restrict rewards and review manually")
	case models.ThreatMedium:
		out = append(out, "Require additional verification")
	default:
		out = append(out, "Continue monitoring")
	}
	for _, m := range matches {
		out = append(out, "Investigate "+m.Name+" pattern: "+m.Description)
	}
	return out
}
