// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package vpn

import (
	"strings"
	"time"
)

// Category classifies an address range.
type Category string

const (
	CategoryVPN        Category = "vpn"
	CategoryTor        Category = "tor"
	CategoryProxy      Category = "proxy"
	CategoryDatacenter Category = "datacenter"
)

// ParseCategory maps a list label to a Category. Unknown labels return false.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vpn":
		return CategoryVPN, true
	case "tor", "tor_exit", "tor-exit":
		return CategoryTor, true
	case "proxy", "open_proxy":
		return CategoryProxy, true
	case "datacenter", "hosting", "dc":
		return CategoryDatacenter, true
	}
	return "", false
}

// Source is one named block of an intelligence list file.
type Source struct {
	// Provider is the operator name (e.g. "mullvad", "tor-project").
	Provider string `json:"provider"`

	// Category is the label applied to every address in this block.
	Category string `json:"category"`

	// Addresses are exact IPv4/IPv6 addresses.
	Addresses []string `json:"addresses,omitempty"`

	// Prefixes are CIDR ranges.
	Prefixes []string `json:"prefixes,omitempty"`
}

// ListFile is the on-disk intelligence list format.
type ListFile struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Sources   []Source  `json:"sources"`
}

// Classification is the verdict for a single address.
type Classification struct {
	IP           string   `json:"ip"`
	Valid        bool     `json:"valid"`
	IsVPN        bool     `json:"is_vpn"`
	IsTor        bool     `json:"is_tor"`
	IsProxy      bool     `json:"is_proxy"`
	IsDatacenter bool     `json:"is_datacenter"`
	Providers    []string `json:"providers,omitempty"`
}

// Anonymized reports whether the address hides the client's origin.
// Datacenter ranges alone do not count.
func (c Classification) Anonymized() bool {
	return c.IsVPN || c.IsTor || c.IsProxy
}

// Categories returns the matched categories in a fixed order.
func (c Classification) Categories() []Category {
	var out []Category
	if c.IsVPN {
		out = append(out, CategoryVPN)
	}
	if c.IsTor {
		out = append(out, CategoryTor)
	}
	if c.IsProxy {
		out = append(out, CategoryProxy)
	}
	if c.IsDatacenter {
		out = append(out, CategoryDatacenter)
	}
	return out
}

// ImportResult summarizes a list import.
type ImportResult struct {
	SourcesImported   int           `json:"sources_imported"`
	AddressesImported int           `json:"addresses_imported"`
	PrefixesImported  int           `json:"prefixes_imported"`
	Skipped           int           `json:"skipped"`
	Duration          time.Duration `json:"duration"`
	Errors            []string      `json:"errors,omitempty"`
}

// Stats describes the loaded lookup tables.
type Stats struct {
	Addresses  int              `json:"addresses"`
	Prefixes   int              `json:"prefixes"`
	ByCategory map[Category]int `json:"by_category"`
	LoadedAt   time.Time        `json:"loaded_at,omitempty"`
}
