// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package vpn

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testList = `{
  "version": 1,
  "sources": [
    {"provider": "mullvad", "category": "vpn", "prefixes": ["185.213.154.0/24"]},
    {"provider": "tor-project", "category": "tor", "addresses": ["198.51.100.7", "bogus"]},
    {"provider": "mystery", "category": "residential", "addresses": ["192.0.2.1"]}
  ]
}`

func TestLoadReader(t *testing.T) {
	lookup, result, err := LoadReader(strings.NewReader(testList))
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	if result.SourcesImported != 2 {
		t.Errorf("SourcesImported = %d, want 2", result.SourcesImported)
	}
	if result.AddressesImported != 1 || result.PrefixesImported != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", result.Skipped)
	}
	if !lookup.Classify("185.213.154.33").IsVPN {
		t.Error("expected prefix match")
	}
	if lookup.Classify("192.0.2.1").Anonymized() {
		t.Error("unknown category should not be loaded")
	}
}

func TestLoadReader_BadJSON(t *testing.T) {
	if _, _, err := LoadReader(strings.NewReader("{not json")); err == nil {
		t.Error("expected parse error")
	}
}

func TestService_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.json")
	if err := os.WriteFile(path, []byte(testList), 0o600); err != nil {
		t.Fatal(err)
	}

	svc := NewService(Config{ListPath: path})
	if svc.IsAnonymized("198.51.100.7") {
		t.Error("expected clean before reload")
	}

	result, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if result.AddressesImported != 1 {
		t.Errorf("AddressesImported = %d", result.AddressesImported)
	}
	if !svc.Classify("198.51.100.7").IsTor {
		t.Error("expected tor after reload")
	}
	if svc.LastImport() != result {
		t.Error("LastImport() should return the latest result")
	}

	// A broken file keeps the previous tables.
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	if !svc.Classify("198.51.100.7").IsTor {
		t.Error("previous tables should survive a failed reload")
	}
}

func TestService_ReloadDisabled(t *testing.T) {
	svc := NewService(Config{})
	result, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if result.SourcesImported != 0 {
		t.Errorf("unexpected import: %+v", result)
	}
	if svc.Stats().Addresses != 0 {
		t.Error("expected empty stats")
	}
}
