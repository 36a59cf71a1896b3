// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package vpn

import (
	"context"
	"sync"
)

// Classifier is what the fingerprint and security engines consume.
type Classifier interface {
	Classify(ip string) Classification
}

// Config configures the Service.
type Config struct {
	// ListPath is the JSON list file. Empty disables loading; every
	// address then classifies as clean.
	ListPath string
}

// Service owns the live Lookup and reloads it from disk.
type Service struct {
	config Config
	lookup *Lookup

	mu         sync.RWMutex
	lastResult *ImportResult
}

// NewService creates a service with an empty lookup.
func NewService(cfg Config) *Service {
	return &Service{
		config: cfg,
		lookup: NewLookup(),
	}
}

// NewServiceWithLookup wraps an existing lookup.
func NewServiceWithLookup(lookup *Lookup) *Service {
	return &Service{lookup: lookup}
}

// Classify implements Classifier.
func (s *Service) Classify(ip string) Classification {
	return s.lookup.Classify(ip)
}

// IsAnonymized is a convenience for callers that only need a yes/no.
func (s *Service) IsAnonymized(ip string) bool {
	return s.lookup.Classify(ip).Anonymized()
}

// Reload re-reads the configured list file and swaps it in. On a parse
// failure the previous tables stay active.
func (s *Service) Reload(ctx context.Context) (*ImportResult, error) {
	if s.config.ListPath == "" {
		return &ImportResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fresh, result, err := LoadFile(s.config.ListPath)
	if err != nil {
		return nil, err
	}
	s.lookup.Replace(fresh)

	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()
	return result, nil
}

// LastImport returns the result of the most recent successful reload.
func (s *Service) LastImport() *ImportResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// Stats returns the live lookup statistics.
func (s *Service) Stats() Stats {
	return s.lookup.Stats()
}
