// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"strings"
)

// Critical component weights for PerformAdvancedComparison.
const (
	weightCanvas      = 0.25
	weightWebGL       = 0.20
	weightScreen      = 0.15
	weightUserAgent   = 0.12
	weightConcurrency = 0.08
	weightMemory      = 0.06

	weightTimezone = 0.05
	weightLanguage = 0.03
	weightPlatform = 0.03
	weightPlugins  = 0.02
	weightFonts    = 0.01

	criticalComponentCount = 6

	// canvasMinRatio is the edit-distance ratio below which two canvas
	// digests are treated as different.
	canvasMinRatio = 0.98

	criticalMatchThreshold      = 0.8
	exactCriticalMatchThreshold = 0.95

	// maxEditInput bounds the edit-distance input so one comparison stays
	// cheap inside a population scan.
	maxEditInput = 2048
)

// fieldCheck is one row of the CompareFingerprints table. present reports
// whether both sides carry the field.
type fieldCheck struct {
	weight  float64
	present bool
	equal   bool
}

// CompareFingerprints returns the weighted share of fields that match
// exactly, counting only fields present on both sides. The result is
// symmetric in a and b.
func CompareFingerprints(a, b *DeviceFingerprint) float64 {
	ha, hb := a.Components.Hardware, b.Components.Hardware
	ba, bb := a.Components.Browser, b.Components.Browser
	ra, rb := a.Components.Rendering, b.Components.Rendering

	checks := []fieldCheck{
		stringCheck(0.15, ha.ScreenResolution, hb.ScreenResolution),
		intCheck(0.05, ha.ColorDepth, hb.ColorDepth),
		intCheck(0.12, ha.HardwareConcurrency, hb.HardwareConcurrency),
		{weight: 0.08, present: ha.DeviceMemory > 0 && hb.DeviceMemory > 0, equal: ha.DeviceMemory == hb.DeviceMemory},
		stringCheck(0.06, ha.Platform, hb.Platform),
		{weight: 0.04, present: true, equal: ha.MaxTouchPoints == hb.MaxTouchPoints},

		stringCheck(0.10, ba.UserAgent, bb.UserAgent),
		stringCheck(0.05, ba.Language, bb.Language),
		stringCheck(0.08, ba.Timezone, bb.Timezone),
		listCheck(0.07, ba.Plugins, bb.Plugins),
		{weight: 0.02, present: ba.CookiesEnabled != nil && bb.CookiesEnabled != nil,
			equal: ba.CookiesEnabled != nil && bb.CookiesEnabled != nil && *ba.CookiesEnabled == *bb.CookiesEnabled},

		stringCheck(0.20, ra.Canvas, rb.Canvas),
		stringCheck(0.10, ra.WebGLRenderer, rb.WebGLRenderer),
		stringCheck(0.05, ra.WebGLVendor, rb.WebGLVendor),
		stringCheck(0.08, ra.Audio, rb.Audio),
		listCheck(0.07, ra.Fonts, rb.Fonts),
	}

	var matched, total float64
	for _, c := range checks {
		if !c.present {
			continue
		}
		total += c.weight
		if c.equal {
			matched += c.weight
		}
	}
	if total == 0 {
		return 0
	}
	return round3(matched / total)
}

func stringCheck(weight float64, a, b string) fieldCheck {
	return fieldCheck{weight: weight, present: a != "" && b != "", equal: a == b}
}

func intCheck(weight float64, a, b int) fieldCheck {
	return fieldCheck{weight: weight, present: a > 0 && b > 0, equal: a == b}
}

func listCheck(weight float64, a, b []string) fieldCheck {
	return fieldCheck{weight: weight, present: len(a) > 0 && len(b) > 0, equal: equalStrings(a, b)}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PerformAdvancedComparison scores two fingerprints on six critical
// components and five secondary ones. Identical hashes short-circuit to a
// full match.
func PerformAdvancedComparison(a, b *DeviceFingerprint) ComparisonResult {
	if a.Hash != "" && a.Hash == b.Hash {
		return ComparisonResult{
			Score:                1.0,
			CriticalMatches:      criticalComponentCount,
			ExactCriticalMatches: criticalComponentCount,
			ExactHash:            true,
		}
	}

	ha, hb := a.Components.Hardware, b.Components.Hardware
	ba, bb := a.Components.Browser, b.Components.Browser
	ra, rb := a.Components.Rendering, b.Components.Rendering

	canvas := 0.0
	if ra.Canvas != "" && rb.Canvas != "" {
		if r := editRatio(ra.Canvas, rb.Canvas); r > canvasMinRatio {
			canvas = r
		}
	}

	critical := map[string]float64{
		"canvas":      canvas,
		"webgl":       webglScore(ra, rb),
		"screen":      boolScore(ha.ScreenResolution != "" && ha.ScreenResolution == hb.ScreenResolution),
		"userAgent":   userAgentScore(ba.UserAgent, bb.UserAgent),
		"concurrency": boolScore(ha.HardwareConcurrency > 0 && ha.HardwareConcurrency == hb.HardwareConcurrency),
		"memory":      boolScore(ha.DeviceMemory > 0 && ha.DeviceMemory == hb.DeviceMemory),
	}
	secondary := map[string]float64{
		"timezone": boolScore(ba.Timezone != "" && ba.Timezone == bb.Timezone),
		"language": boolScore(ba.Language != "" && ba.Language == bb.Language),
		"platform": boolScore(ha.Platform != "" && ha.Platform == hb.Platform),
		"plugins":  jaccard(ba.Plugins, bb.Plugins),
		"fonts":    fontsScore(ra.Fonts, rb.Fonts),
	}

	score := weightCanvas*critical["canvas"] +
		weightWebGL*critical["webgl"] +
		weightScreen*critical["screen"] +
		weightUserAgent*critical["userAgent"] +
		weightConcurrency*critical["concurrency"] +
		weightMemory*critical["memory"] +
		weightTimezone*secondary["timezone"] +
		weightLanguage*secondary["language"] +
		weightPlatform*secondary["platform"] +
		weightPlugins*secondary["plugins"] +
		weightFonts*secondary["fonts"]

	result := ComparisonResult{
		Score:      round3(score),
		Components: make(map[string]float64, len(critical)+len(secondary)),
	}
	for name, v := range critical {
		if v > criticalMatchThreshold {
			result.CriticalMatches++
		}
		if v > exactCriticalMatchThreshold {
			result.ExactCriticalMatches++
		}
		result.Components[name] = round3(v)
	}
	for name, v := range secondary {
		result.Components[name] = round3(v)
	}
	return result
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// webglScore is the fraction of vendor, renderer and version that are
// present on both sides and equal.
func webglScore(a, b RenderingSignals) float64 {
	pairs := [][2]string{
		{a.WebGLVendor, b.WebGLVendor},
		{a.WebGLRenderer, b.WebGLRenderer},
		{a.WebGLVersion, b.WebGLVersion},
	}
	compared, equal := 0, 0
	for _, p := range pairs {
		if p[0] == "" || p[1] == "" {
			continue
		}
		compared++
		if p[0] == p[1] {
			equal++
		}
	}
	if compared == 0 {
		return 0
	}
	return float64(equal) / float64(compared)
}

func userAgentScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return editRatio(comparableUserAgent(a), comparableUserAgent(b))
}

func fontsScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return editRatio(strings.Join(a, ","), strings.Join(b, ","))
}

// jaccard is |a ∩ b| / |a ∪ b|. Two empty lists score 0.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	intersection := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// editRatio is 1 - levenshtein(a, b) / max(len(a), len(b)) over runes.
// Inputs are truncated to maxEditInput runes; truncated unequal inputs
// never score a perfect 1.
func editRatio(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	ra, rb := []rune(a), []rune(b)
	truncated := false
	if len(ra) > maxEditInput {
		ra, truncated = ra[:maxEditInput], true
	}
	if len(rb) > maxEditInput {
		rb, truncated = rb[:maxEditInput], true
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}

	ratio := 1 - float64(levenshtein(ra, rb))/float64(longest)
	if truncated && ratio >= 1 {
		ratio = 0.99
	}
	return ratio
}

// levenshtein is the two-row dynamic-programming edit distance.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
