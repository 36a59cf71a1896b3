// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package vpn

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
)

// LoadFile parses a list file into a fresh Lookup.
func LoadFile(filename string) (*Lookup, *ImportResult, error) {
	file, err := os.Open(filename) //nolint:gosec // G304: filename is trusted input from configuration
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Str("filename", filename).Msg("Error closing network list file")
		}
	}()

	return LoadReader(file)
}

// LoadReader parses list JSON from r into a fresh Lookup. Invalid entries
// are skipped and reported in the result rather than failing the load.
func LoadReader(r io.Reader) (*Lookup, *ImportResult, error) {
	start := time.Now()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read data: %w", err)
	}

	var list ListFile
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	lookup := NewLookup()
	result := &ImportResult{}

	for i := range list.Sources {
		src := &list.Sources[i]
		category, ok := ParseCategory(src.Category)
		if !ok {
			result.Skipped += len(src.Addresses) + len(src.Prefixes)
			result.Errors = append(result.Errors, fmt.Sprintf("source %q: unknown category %q", src.Provider, src.Category))
			continue
		}

		for _, ip := range src.Addresses {
			if err := lookup.AddAddress(ip, category, src.Provider); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.AddressesImported++
		}
		for _, cidr := range src.Prefixes {
			if err := lookup.AddPrefix(cidr, category, src.Provider); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.PrefixesImported++
		}
		result.SourcesImported++
	}

	lookup.loadedAt = time.Now().UTC()
	result.Duration = time.Since(start)
	return lookup, result, nil
}
