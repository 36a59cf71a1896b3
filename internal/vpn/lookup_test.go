// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package vpn

import (
	"testing"
)

func TestNewLookup(t *testing.T) {
	lookup := NewLookup()
	if lookup.Count() != 0 {
		t.Errorf("expected empty lookup, got %d entries", lookup.Count())
	}
}

func TestLookup_Classify(t *testing.T) {
	lookup := NewLookup()
	if err := lookup.AddAddress("203.0.113.50", CategoryTor, "tor-project"); err != nil {
		t.Fatalf("AddAddress() error = %v", err)
	}
	if err := lookup.AddPrefix("198.51.100.0/24", CategoryVPN, "mullvad"); err != nil {
		t.Fatalf("AddPrefix() error = %v", err)
	}
	if err := lookup.AddPrefix("198.51.0.0/16", CategoryDatacenter, "hoster"); err != nil {
		t.Fatalf("AddPrefix() error = %v", err)
	}
	if err := lookup.AddPrefix("2001:db8::/32", CategoryProxy, ""); err != nil {
		t.Fatalf("AddPrefix() error = %v", err)
	}

	tests := []struct {
		name       string
		ip         string
		valid      bool
		vpn        bool
		tor        bool
		proxy      bool
		datacenter bool
		anonymized bool
	}{
		{name: "exact tor", ip: "203.0.113.50", valid: true, tor: true, anonymized: true},
		{name: "vpn prefix inside datacenter", ip: "198.51.100.9", valid: true, vpn: true, datacenter: true, anonymized: true},
		{name: "datacenter only", ip: "198.51.7.1", valid: true, datacenter: true},
		{name: "ipv6 proxy", ip: "2001:db8::1", valid: true, proxy: true, anonymized: true},
		{name: "ipv4-mapped tor", ip: "::ffff:203.0.113.50", valid: true, tor: true, anonymized: true},
		{name: "clean", ip: "192.0.2.1", valid: true},
		{name: "garbage", ip: "not-an-ip"},
		{name: "empty", ip: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lookup.Classify(tt.ip)
			if got.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.valid)
			}
			if got.IsVPN != tt.vpn || got.IsTor != tt.tor || got.IsProxy != tt.proxy || got.IsDatacenter != tt.datacenter {
				t.Errorf("Classify(%q) = %+v", tt.ip, got)
			}
			if got.Anonymized() != tt.anonymized {
				t.Errorf("Anonymized() = %v, want %v", got.Anonymized(), tt.anonymized)
			}
		})
	}
}

func TestLookup_ProvidersDeduplicated(t *testing.T) {
	lookup := NewLookup()
	_ = lookup.AddAddress("192.0.2.10", CategoryVPN, "nordvpn")
	_ = lookup.AddAddress("192.0.2.10", CategoryVPN, "nordvpn")
	_ = lookup.AddPrefix("192.0.2.0/24", CategoryVPN, "nordvpn")

	got := lookup.Classify("192.0.2.10")
	if len(got.Providers) != 1 || got.Providers[0] != "nordvpn" {
		t.Errorf("Providers = %v, want [nordvpn]", got.Providers)
	}
	if lookup.Count() != 2 {
		t.Errorf("Count() = %d, want 2", lookup.Count())
	}
}

func TestLookup_InvalidInput(t *testing.T) {
	lookup := NewLookup()
	if err := lookup.AddAddress("300.1.1.1", CategoryVPN, "x"); err == nil {
		t.Error("expected error for invalid address")
	}
	if err := lookup.AddPrefix("10.0.0.0/99", CategoryVPN, "x"); err == nil {
		t.Error("expected error for invalid prefix")
	}
}

func TestLookup_Stats(t *testing.T) {
	lookup := NewLookup()
	_ = lookup.AddAddress("192.0.2.1", CategoryTor, "")
	_ = lookup.AddAddress("192.0.2.2", CategoryTor, "")
	_ = lookup.AddPrefix("10.0.0.0/8", CategoryDatacenter, "")

	s := lookup.Stats()
	if s.Addresses != 2 || s.Prefixes != 1 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.ByCategory[CategoryTor] != 2 || s.ByCategory[CategoryDatacenter] != 1 {
		t.Errorf("ByCategory = %v", s.ByCategory)
	}

	lookup.Clear()
	if lookup.Count() != 0 {
		t.Errorf("Count() after Clear = %d", lookup.Count())
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"VPN", CategoryVPN, true},
		{"tor_exit", CategoryTor, true},
		{" proxy ", CategoryProxy, true},
		{"hosting", CategoryDatacenter, true},
		{"residential", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCategory(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
