// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package vpn

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
	"sync"
	"time"
)

// entry is the label attached to an address or prefix.
type entry struct {
	category Category
	provider string
}

type prefixEntry struct {
	prefix netip.Prefix
	entry
}

// Lookup answers address classification queries.
// Exact addresses use a map; prefixes are scanned longest-first.
type Lookup struct {
	addrs    map[netip.Addr][]entry
	prefixes []prefixEntry
	loadedAt time.Time

	mu sync.RWMutex
}

// NewLookup creates an empty lookup.
func NewLookup() *Lookup {
	return &Lookup{
		addrs: make(map[netip.Addr][]entry),
	}
}

// AddAddress labels a single address.
func (l *Lookup) AddAddress(ip string, category Category, provider string) error {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", ip, err)
	}
	addr = addr.Unmap()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.addrs[addr] {
		if e.category == category && e.provider == provider {
			return nil
		}
	}
	l.addrs[addr] = append(l.addrs[addr], entry{category: category, provider: provider})
	return nil
}

// AddPrefix labels a CIDR range.
func (l *Lookup) AddPrefix(cidr string, category Category, provider string) error {
	p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid prefix %q: %w", cidr, err)
	}
	p = p.Masked()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prefixes = append(l.prefixes, prefixEntry{prefix: p, entry: entry{category: category, provider: provider}})
	sort.SliceStable(l.prefixes, func(i, j int) bool {
		return l.prefixes[i].prefix.Bits() > l.prefixes[j].prefix.Bits()
	})
	return nil
}

// Classify returns every category the address belongs to. Unparseable
// input yields a zero Classification with Valid=false.
func (l *Lookup) Classify(ip string) Classification {
	result := Classification{IP: ip}
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return result
	}
	addr = addr.Unmap()
	result.Valid = true

	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]struct{})
	apply := func(e entry) {
		switch e.category {
		case CategoryVPN:
			result.IsVPN = true
		case CategoryTor:
			result.IsTor = true
		case CategoryProxy:
			result.IsProxy = true
		case CategoryDatacenter:
			result.IsDatacenter = true
		}
		if e.provider == "" {
			return
		}
		if _, ok := seen[e.provider]; !ok {
			seen[e.provider] = struct{}{}
			result.Providers = append(result.Providers, e.provider)
		}
	}

	for _, e := range l.addrs[addr] {
		apply(e)
	}
	for _, p := range l.prefixes {
		if p.prefix.Contains(addr) {
			apply(p.entry)
		}
	}
	return result
}

// Replace swaps the tables with other's contents in one step.
func (l *Lookup) Replace(other *Lookup) {
	other.mu.RLock()
	addrs, prefixes := other.addrs, other.prefixes
	other.mu.RUnlock()

	l.mu.Lock()
	l.addrs = addrs
	l.prefixes = prefixes
	l.loadedAt = time.Now().UTC()
	l.mu.Unlock()
}

// Clear removes all data.
func (l *Lookup) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addrs = make(map[netip.Addr][]entry)
	l.prefixes = nil
}

// Stats returns table sizes.
func (l *Lookup) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{
		Addresses:  len(l.addrs),
		Prefixes:   len(l.prefixes),
		ByCategory: make(map[Category]int),
		LoadedAt:   l.loadedAt,
	}
	for _, entries := range l.addrs {
		for _, e := range entries {
			s.ByCategory[e.category]++
		}
	}
	for _, p := range l.prefixes {
		s.ByCategory[p.category]++
	}
	return s
}

// Count returns the number of exact addresses plus prefixes.
func (l *Lookup) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.addrs) + len(l.prefixes)
}
