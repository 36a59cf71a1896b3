// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import "math"

// weighted is one presence check and its weight within a group.
type weighted struct {
	present bool
	weight  float64
}

func presenceScore(checks ...weighted) float64 {
	var got, total float64
	for _, c := range checks {
		total += c.weight
		if c.present {
			got += c.weight
		}
	}
	if total == 0 {
		return 0
	}
	return got / total
}

// ComputeQuality scores how complete a normalized bundle is.
func ComputeQuality(s *DeviceSignals) Quality {
	q := Quality{
		Hardware: presenceScore(
			weighted{s.Hardware.ScreenResolution != "", 0.30},
			weighted{s.Hardware.ColorDepth > 0, 0.15},
			weighted{s.Hardware.HardwareConcurrency > 0, 0.20},
			weighted{s.Hardware.DeviceMemory > 0, 0.15},
			weighted{s.Hardware.Platform != "", 0.20},
		),
		Browser: presenceScore(
			weighted{s.Browser.UserAgent != "", 0.30},
			weighted{s.Browser.Language != "" || len(s.Browser.Languages) > 0, 0.15},
			weighted{s.Browser.Timezone != "" || s.Browser.TimezoneOffset != nil, 0.20},
			weighted{len(s.Browser.Plugins) > 0, 0.15},
			weighted{len(s.Browser.MimeTypes) > 0, 0.10},
			weighted{s.Browser.CookiesEnabled != nil, 0.10},
		),
		Rendering: presenceScore(
			weighted{s.Rendering.Canvas != "", 0.35},
			weighted{s.Rendering.WebGLRenderer != "", 0.20},
			weighted{s.Rendering.WebGLVendor != "", 0.10},
			weighted{s.Rendering.Audio != "", 0.20},
			weighted{len(s.Rendering.Fonts) > 0, 0.15},
		),
		Network: presenceScore(
			weighted{s.Network.IPAddress != "", 0.40},
			weighted{s.Network.ConnectionType != "", 0.20},
			weighted{len(s.Network.WebRTCIPs) > 0, 0.20},
			weighted{s.Network.Location != nil, 0.20},
		),
		Behavioral: presenceScore(
			weighted{len(s.Behavioral.TimingSamples) > 0, 0.50},
			weighted{len(s.Behavioral.EventIntervals) > 0, 0.50},
		),
	}

	q.Overall = round3(0.25*q.Hardware + 0.25*q.Browser + 0.30*q.Rendering + 0.10*q.Network + 0.10*q.Behavioral)
	// Rendering output carries most of the entropy between devices.
	q.Uniqueness = round3(0.60*q.Rendering + 0.20*q.Hardware + 0.20*q.Browser)
	// Only the hashed groups count toward stability.
	q.Stability = round3(0.40*q.Hardware + 0.40*q.Rendering + 0.20*q.Browser)

	q.Hardware = round3(q.Hardware)
	q.Browser = round3(q.Browser)
	q.Rendering = round3(q.Rendering)
	q.Network = round3(q.Network)
	q.Behavioral = round3(q.Behavioral)
	return q
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
