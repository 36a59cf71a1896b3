// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"math"
	"strings"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/cache"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/vpn"
)

// Bot heuristic weights. The sum exceeds 1; the score is clamped.
const (
	botWeightAutomatedUA     = 0.40
	botWeightHardware        = 0.30
	botWeightMissingFeatures = 0.20
	botWeightWebGL           = 0.25
	botWeightTimingVariance  = 0.30
	botWeightNoWebRTC        = 0.15
	botWeightAnonymizer      = 0.20
	botWeightFixedIntervals  = 0.35
)

// Bot indicator names reported in BotDetectionResult.Indicators.
const (
	IndicatorAutomatedUserAgent    = "automated_user_agent"
	IndicatorHardwareInconsistency = "hardware_inconsistency"
	IndicatorMissingFeatures       = "missing_browser_features"
	IndicatorWebGLInconsistency    = "webgl_inconsistency"
	IndicatorLowTimingVariance     = "low_timing_variance"
	IndicatorNoWebRTC              = "no_webrtc_ips"
	IndicatorAnonymizedNetwork     = "anonymized_network"
	IndicatorFixedEventIntervals   = "fixed_event_intervals"
)

var (
	softwareRenderers = []string{"swiftshader", "llvmpipe", "softpipe", "software", "microsoft basic render", "mesa offscreen"}

	gpuBrands = []struct {
		brand   string
		markers []string
	}{
		{"nvidia", []string{"nvidia", "geforce", "quadro"}},
		{"amd", []string{"amd", "radeon", "ati technologies"}},
		{"intel", []string{"intel"}},
		{"apple", []string{"apple"}},
		{"arm", []string{"mali"}},
		{"qualcomm", []string{"qualcomm", "adreno"}},
		{"imgtec", []string{"powervr", "imagination"}},
	}

	mobileMarkers = []string{"android", "iphone", "ipad", "ipod", "mobile", "tablet"}
)

// botScanner evaluates bot heuristics for one bundle.
type botScanner struct {
	userAgents *cache.UserAgentDetector
	network    vpn.Classifier
	threshold  float64
}

func (b *botScanner) detect(fp *DeviceFingerprint, raw *DeviceSignals) BotDetectionResult {
	s := &fp.Components
	var score float64
	var indicators []string

	add := func(weight float64, indicator string) {
		score += weight
		indicators = append(indicators, indicator)
	}

	ua := s.Browser.UserAgent
	if raw != nil && raw.Browser.UserAgent != "" {
		ua = raw.Browser.UserAgent
	}
	if b.userAgents.IsAutomated(ua) {
		add(botWeightAutomatedUA, IndicatorAutomatedUserAgent)
	}
	if len(hardwareInconsistencies(s)) > 0 {
		add(botWeightHardware, IndicatorHardwareInconsistency)
	}
	if (s.Browser.CookiesEnabled != nil && !*s.Browser.CookiesEnabled) || len(s.Browser.Plugins) == 0 {
		add(botWeightMissingFeatures, IndicatorMissingFeatures)
	}
	if webglInconsistent(s.Rendering) {
		add(botWeightWebGL, IndicatorWebGLInconsistency)
	}
	if lowTimingVariance(s.Behavioral.TimingSamples) {
		add(botWeightTimingVariance, IndicatorLowTimingVariance)
	}
	if len(s.Network.WebRTCIPs) == 0 {
		add(botWeightNoWebRTC, IndicatorNoWebRTC)
	}
	if b.network != nil && s.Network.IPAddress != "" && b.network.Classify(s.Network.IPAddress).Anonymized() {
		add(botWeightAnonymizer, IndicatorAnonymizedNetwork)
	}
	if fixedIntervals(s.Behavioral.EventIntervals) {
		add(botWeightFixedIntervals, IndicatorFixedEventIntervals)
	}

	score = round3(math.Min(1, score))
	confidence := 0.5
	if len(indicators) > 0 {
		confidence = math.Min(1, 0.4+0.15*float64(len(indicators)))
	}

	result := BotDetectionResult{
		IsBot:      score >= b.threshold,
		Score:      score,
		Confidence: round3(confidence),
		Category:   botCategory(score),
		Indicators: indicators,
	}
	metrics.BotDetections.WithLabelValues(string(result.Category)).Inc()
	return result
}

func botCategory(score float64) BotCategory {
	switch {
	case score < 0.2:
		return BotCategoryHuman
	case score < 0.4:
		return BotCategorySuspicious
	case score < 0.7:
		return BotCategoryAutomated
	default:
		return BotCategoryBot
	}
}

// hardwareInconsistencies lists hardware values no real consumer device
// reports.
func hardwareInconsistencies(s *DeviceSignals) []string {
	var out []string
	h := s.Hardware

	if h.HardwareConcurrency > 128 {
		out = append(out, "implausible_concurrency")
	}
	if h.DeviceMemory > 64 || (h.DeviceMemory > 0 && h.DeviceMemory < 0.25) {
		out = append(out, "implausible_memory")
	}
	if h.MaxTouchPoints > 10 && !isMobile(s) {
		out = append(out, "desktop_touch_points")
	}
	if w, ht, ok := parseResolution(h.ScreenResolution); ok {
		switch {
		case w < 320 || ht < 240 || w > 7680 || ht > 4320:
			out = append(out, "implausible_resolution")
		case float64(w)/float64(ht) > 4:
			out = append(out, "implausible_aspect_ratio")
		}
	}
	return out
}

func isMobile(s *DeviceSignals) bool {
	probe := strings.ToLower(s.Hardware.Platform + " " + s.Browser.UserAgent)
	for _, m := range mobileMarkers {
		if strings.Contains(probe, m) {
			return true
		}
	}
	return false
}

// webglInconsistent flags a software rasterizer or a renderer whose GPU
// brand contradicts the vendor string.
func webglInconsistent(r RenderingSignals) bool {
	renderer := strings.ToLower(r.WebGLRenderer)
	for _, sw := range softwareRenderers {
		if strings.Contains(renderer, sw) {
			return true
		}
	}

	vendorBrand := gpuBrand(strings.ToLower(r.WebGLVendor))
	rendererBrand := gpuBrand(renderer)
	return vendorBrand != "" && rendererBrand != "" && vendorBrand != rendererBrand
}

func gpuBrand(s string) string {
	if s == "" {
		return ""
	}
	for _, b := range gpuBrands {
		for _, m := range b.markers {
			if strings.Contains(s, m) {
				return b.brand
			}
		}
	}
	return ""
}

func meanVariance(samples []float64) (float64, float64) {
	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(len(samples))

	var sq float64
	for _, v := range samples {
		d := v - mean
		sq += d * d
	}
	return mean, sq / float64(len(samples))
}

// lowTimingVariance reports machine-steady timing: at least three
// samples, variance under 100ms² and a mean under one second.
func lowTimingVariance(samples []float64) bool {
	if len(samples) < 3 {
		return false
	}
	mean, variance := meanVariance(samples)
	return variance < 100 && mean < 1000
}

// fixedIntervals reports near-constant gaps between input events.
func fixedIntervals(intervals []float64) bool {
	if len(intervals) < 5 {
		return false
	}
	mean, variance := meanVariance(intervals)
	if mean <= 0 {
		return true
	}
	return math.Sqrt(variance)/mean < 0.05
}
