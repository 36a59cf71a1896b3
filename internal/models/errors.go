// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// DeviceBannedError is returned when a banned device tries to register or
// generate a fingerprint. Callers must fail closed.
type DeviceBannedError struct {
	DeviceHash string
	Reason     string
	Appealable bool
}

func (e *DeviceBannedError) Error() string {
	prefix := e.DeviceHash
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}
	return fmt.Sprintf("device %s is banned: %s", prefix, e.Reason)
}

// StoreUnavailableError wraps a persistence or cache backend failure.
// Whether the caller fails open or closed depends on the call site.
type StoreUnavailableError struct {
	Store string
	Op    string
	Err   error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s store unavailable during %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// NewStoreUnavailable wraps err unless it is nil or already a StoreUnavailableError.
func NewStoreUnavailable(store, op string, err error) error {
	if err == nil {
		return nil
	}
	var su *StoreUnavailableError
	if errors.As(err, &su) {
		return err
	}
	return &StoreUnavailableError{Store: store, Op: op, Err: err}
}

// ValidationError rejects a malformed device-signal bundle or request.
type ValidationError struct {
	Field   string
	Reason  string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) > 1 {
		return "validation failed: " + strings.Join(e.Details, "; ")
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
	}
	return "validation failed: " + e.Reason
}

// IsDeviceBanned reports whether err carries a DeviceBannedError.
func IsDeviceBanned(err error) bool {
	var target *DeviceBannedError
	return errors.As(err, &target)
}

// IsStoreUnavailable reports whether err carries a StoreUnavailableError.
func IsStoreUnavailable(err error) bool {
	var target *StoreUnavailableError
	return errors.As(err, &target)
}
