// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHashPrefix(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"abc", "abc"},
		{"0123456789ab", "0123456789ab"},
		{"0123456789abcdef0123", "0123456789ab"},
	}

	for _, tt := range tests {
		if got := HashPrefix(tt.input); got != tt.expected {
			t.Errorf("HashPrefix(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeUserID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"123456789", "123456789"},
		{"user-0123456789abcdef", "user...cdef"},
	}

	for _, tt := range tests {
		if got := SanitizeUserID(tt.input); got != tt.expected {
			t.Errorf("SanitizeUserID(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{"salt", "super-secret-salt-value", "supe...alue"},
		{"canvas", "data:image/png;base64,AAAA", "[redacted]"},
		{"device_hash", "0123456789abcdef0123456789", "0123456789ab"},
		{"violation", "multi_account", "multi_account"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := SanitizeValue(tt.key, tt.value); got != tt.expected {
				t.Errorf("SanitizeValue(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestSecurityLogger_LogDeviceBanned(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(NewTestLogger(&buf))

	l.LogDeviceBanned("0123456789abcdef0123456789abcdef", "system", "multi_account", 3, true)

	out := buf.String()
	for _, want := range []string{
		`"event":"device_banned"`,
		`"device":"0123456789ab"`,
		`"related_accounts":"3"`,
		`"level":"warn"`,
		`"component":"security"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abcdef0123456789abcdef") {
		t.Error("full device hash must not be logged")
	}
}

func TestSecurityLogger_LogCollision(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(NewTestLogger(&buf))

	l.LogCollision("42", "ffffffffffffffffffff", "critical", 2, true)

	out := buf.String()
	if !strings.Contains(out, `"level":"info"`) || !strings.Contains(out, `"exact_match":"true"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestSecurityLogger_LogRateLimitStoreFailure(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(NewTestLogger(&buf))

	l.LogRateLimitStoreFailure("point_claim", "42", errors.New("redis down"))

	out := buf.String()
	if !strings.Contains(out, `"event":"ratelimit_store_failure"`) || !strings.Contains(out, "redis down") {
		t.Errorf("unexpected output: %s", out)
	}
}
