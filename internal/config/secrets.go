// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// fingerprintSaltHKDFSalt binds the derived key to this use.
	fingerprintSaltHKDFSalt = "salada-device-fingerprint"

	fingerprintSaltInfo = "fingerprint-salt-v1"

	fingerprintSaltBytes = 32

	// developmentMasterSecret is only used outside production when no secret is set.
	developmentMasterSecret = "salada-development-master-secret-do-not-use"
)

// ErrEmptySecret is returned when a derivation is asked for with no secret.
var ErrEmptySecret = errors.New("master secret cannot be empty")

// DeriveFingerprintSalt derives the hex-encoded fingerprint salt from the
// master secret with HKDF-SHA256. The same secret always yields the same
// salt, so device hashes stay stable across restarts.
func DeriveFingerprintSalt(masterSecret string) (string, error) {
	if masterSecret == "" {
		return "", ErrEmptySecret
	}

	reader := hkdf.New(sha256.New, []byte(masterSecret), []byte(fingerprintSaltHKDFSalt), []byte(fingerprintSaltInfo))
	key := make([]byte, fingerprintSaltBytes)
	if _, err := io.ReadFull(reader, key); err != nil {
		return "", fmt.Errorf("hkdf derivation failed: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// FingerprintSalt returns the configured salt, or one derived from the master
// secret. Outside production a missing master secret falls back to a fixed
// development secret.
func (c *Config) FingerprintSalt() (string, error) {
	if c.Fingerprint.Salt != "" {
		return c.Fingerprint.Salt, nil
	}
	secret := c.Security.MasterSecret
	if secret == "" && !c.IsProduction() {
		secret = developmentMasterSecret
	}
	return DeriveFingerprintSalt(secret)
}
