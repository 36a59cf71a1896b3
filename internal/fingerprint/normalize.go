// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	resolutionSplit = regexp.MustCompile(`\s*[xX×*]\s*`)
	offsetPattern   = regexp.MustCompile(`^(?:UTC|GMT)?\s*([+-])(?:(\d{2})(\d{2})|(\d{1,2})(?::(\d{2}))?)$`)
	etcGMTPattern   = regexp.MustCompile(`^ETC/GMT([+-])(\d{1,2})$`)
	uaVersionRun    = regexp.MustCompile(`\d+(?:[._]\d+)*`)
	uaBuildToken    = regexp.MustCompile(`build/[^\s;)]+`)
)

// utcAliases are timezone spellings that all mean a zero offset.
var utcAliases = map[string]bool{
	"UTC": true, "GMT": true, "Z": true, "ZULU": true, "UNIVERSAL": true,
	"ETC/UTC": true, "ETC/GMT": true, "ETC/UCT": true, "UCT": true,
	"ETC/GMT0": true, "ETC/GMT+0": true, "ETC/GMT-0": true, "GMT0": true,
}

// Normalize returns a canonical copy of s. Two captures of the same device
// that differ only in list order, case or timezone spelling normalize to
// equal values.
func Normalize(s *DeviceSignals) DeviceSignals {
	n := s.clone()

	n.Hardware.ScreenResolution = normalizeResolution(n.Hardware.ScreenResolution)
	n.Hardware.Platform = normalizeToken(n.Hardware.Platform)

	n.Browser.UserAgent = collapseSpace(n.Browser.UserAgent)
	n.Browser.Language = normalizeToken(n.Browser.Language)
	n.Browser.Languages = normalizeList(n.Browser.Languages)
	n.Browser.Timezone = normalizeTimezone(n.Browser.Timezone, n.Browser.TimezoneOffset)
	n.Browser.TimezoneOffset = nil
	n.Browser.Plugins = normalizeList(n.Browser.Plugins)
	n.Browser.MimeTypes = normalizeList(n.Browser.MimeTypes)

	n.Rendering.Canvas = strings.TrimSpace(n.Rendering.Canvas)
	n.Rendering.Audio = strings.TrimSpace(n.Rendering.Audio)
	n.Rendering.WebGLVendor = normalizeToken(n.Rendering.WebGLVendor)
	n.Rendering.WebGLRenderer = normalizeToken(n.Rendering.WebGLRenderer)
	n.Rendering.WebGLVersion = normalizeToken(n.Rendering.WebGLVersion)
	n.Rendering.Fonts = normalizeList(n.Rendering.Fonts)

	n.Network.ConnectionType = normalizeToken(n.Network.ConnectionType)
	n.Network.WebRTCIPs = normalizeList(n.Network.WebRTCIPs)

	if len(n.Behavioral.TimingSamples) == 0 {
		n.Behavioral.TimingSamples = nil
	}
	if len(n.Behavioral.EventIntervals) == 0 {
		n.Behavioral.EventIntervals = nil
	}
	return n
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeToken(s string) string {
	return strings.ToLower(collapseSpace(s))
}

// normalizeList lower-cases, sorts and dedupes. Empty input yields nil so
// absent and empty lists hash the same.
func normalizeList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = normalizeToken(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// normalizeResolution renders WIDTHxHEIGHT with the larger side first so a
// rotated screen keeps its identity.
func normalizeResolution(s string) string {
	parts := resolutionSplit.Split(strings.TrimSpace(s), -1)
	if len(parts) != 2 {
		return strings.TrimSpace(s)
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil {
		return strings.TrimSpace(s)
	}
	if h > w {
		w, h = h, w
	}
	return fmt.Sprintf("%dx%d", w, h)
}

// parseResolution returns the normalized dimensions, larger side first.
func parseResolution(s string) (int, int, bool) {
	parts := strings.Split(normalizeResolution(s), "x")
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

// normalizeTimezone folds every zero-offset alias and every numeric offset
// spelling to UTC±HH:MM. IANA region names are kept. offsetWest is the
// browser's minutes-west offset and is used when no name was captured.
func normalizeTimezone(tz string, offsetWest *int) string {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		if offsetWest == nil {
			return ""
		}
		return formatOffset(-*offsetWest)
	}

	upper := strings.ToUpper(tz)
	if utcAliases[upper] {
		return formatOffset(0)
	}

	// Etc/GMT+5 is five hours west of Greenwich.
	if m := etcGMTPattern.FindStringSubmatch(upper); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes := hours * 60
		if m[1] == "+" {
			minutes = -minutes
		}
		return formatOffset(minutes)
	}

	// +05:30, +0530, UTC+5 and GMT-03:00 are offsets east of UTC.
	if m := offsetPattern.FindStringSubmatch(upper); m != nil {
		h, mm := m[2], m[3]
		if h == "" {
			h, mm = m[4], m[5]
		}
		hours, _ := strconv.Atoi(h)
		mins := 0
		if mm != "" {
			mins, _ = strconv.Atoi(mm)
		}
		total := hours*60 + mins
		if m[1] == "-" {
			total = -total
		}
		return formatOffset(total)
	}

	// Anything else numeric, such as -300, is a browser minutes-west value.
	if n, err := strconv.Atoi(tz); err == nil {
		return formatOffset(-n)
	}

	return tz
}

func formatOffset(minutesEast int) string {
	sign := "+"
	if minutesEast < 0 {
		sign = "-"
		minutesEast = -minutesEast
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, minutesEast/60, minutesEast%60)
}

// comparableUserAgent strips version numbers and build identifiers so two
// releases of the same browser on the same OS compare as close.
func comparableUserAgent(ua string) string {
	ua = strings.ToLower(collapseSpace(ua))
	ua = uaBuildToken.ReplaceAllString(ua, "build/#")
	return uaVersionRun.ReplaceAllString(ua, "#")
}
