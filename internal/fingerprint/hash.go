// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/goccy/go-json"
)

// staticGroups is the hashed subset of a normalized bundle. Network and
// behavioral signals change between sessions and are left out.
type staticGroups struct {
	Browser   BrowserSignals   `json:"browser"`
	Hardware  HardwareSignals  `json:"hardware"`
	Rendering RenderingSignals `json:"rendering"`
}

// ComputeHash returns the hex SHA-256 of the canonical JSON of the static
// groups of normalized followed by salt. normalized must already have been
// through Normalize.
func ComputeHash(normalized *DeviceSignals, salt string) (string, error) {
	canonical, err := canonicalJSON(staticGroups{
		Browser:   normalized.Browser,
		Hardware:  normalized.Hardware,
		Rendering: normalized.Rendering,
	})
	if err != nil {
		return "", fmt.Errorf("canonicalize signals: %w", err)
	}

	h := sha256.New()
	h.Write(canonical)
	h.Write([]byte(salt))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalJSON encodes v with object keys sorted at every depth. The
// value is round-tripped through a generic map because struct encoding
// follows field order.
func canonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}
