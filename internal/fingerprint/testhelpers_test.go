// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

func boolPtr(b bool) *bool { return &b }

// sampleSignals is a plausible desktop Chrome capture.
func sampleSignals() *DeviceSignals {
	return &DeviceSignals{
		Hardware: HardwareSignals{
			ScreenResolution:    "1920x1080",
			ColorDepth:          24,
			HardwareConcurrency: 8,
			DeviceMemory:        8,
			Platform:            "Win32",
		},
		Browser: BrowserSignals{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Language:       "en-US",
			Languages:      []string{"en-US", "en"},
			Timezone:       "Europe/Berlin",
			Plugins:        []string{"PDF Viewer", "Chrome PDF Viewer"},
			MimeTypes:      []string{"application/pdf"},
			CookiesEnabled: boolPtr(true),
		},
		Rendering: RenderingSignals{
			Canvas:        "c4nv4s-7f3a9b2e41d06c58",
			WebGLVendor:   "Google Inc. (NVIDIA)",
			WebGLRenderer: "ANGLE (NVIDIA, NVIDIA GeForce RTX 3060 Direct3D11 vs_5_0 ps_5_0, D3D11)",
			WebGLVersion:  "WebGL 1.0 (OpenGL ES 2.0 Chromium)",
			Audio:         "124.04347527516074",
			Fonts:         []string{"Arial", "Calibri", "Segoe UI"},
		},
		Network: NetworkSignals{
			IPAddress: "203.0.113.7",
			WebRTCIPs: []string{"192.168.1.10"},
		},
		Behavioral: BehavioralSignals{
			TimingSamples:  []float64{120, 340, 80, 560},
			EventIntervals: []float64{100, 250, 90, 400, 180},
		},
	}
}

func fingerprintFor(s *DeviceSignals, salt string) *DeviceFingerprint {
	n := Normalize(s)
	hash, err := ComputeHash(&n, salt)
	if err != nil {
		panic(err)
	}
	return &DeviceFingerprint{Hash: hash, Components: n}
}
