// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

// Package vpn classifies client addresses as VPN, Tor exit, open proxy or
// datacenter hosting.
//
// Data comes from a JSON list file:
//
//	{
//	  "version": 1,
//	  "sources": [
//	    {"provider": "mullvad", "category": "vpn", "prefixes": ["185.213.154.0/24"]},
//	    {"provider": "tor-project", "category": "tor", "addresses": ["198.51.100.7"]}
//	  ]
//	}
//
// Exact addresses resolve through a map. Prefixes are checked longest
// first. An address can carry several categories at once.
//
// The Service reloads the file on demand (wired to a periodic supervisor
// service) and swaps tables atomically so concurrent Classify calls never
// observe a half-loaded list.
package vpn
