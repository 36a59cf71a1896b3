// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package logging

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// HashPrefixLen is how many characters of a device hash appear in logs.
const HashPrefixLen = 12

// SecurityEvent is a fraud-relevant event written to the security log stream.
type SecurityEvent struct {
	Event      string
	UserID     string
	DeviceHash string
	IPAddress  string
	Severity   string
	Stage      string
	Blocked    bool
	Reason     string
	Details    map[string]string
}

// SecurityLogger writes fraud events with sanitized identifiers. Full device
// hashes, salts and raw canvas values never reach the log.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return NewSecurityLoggerWithLogger(Logger())
}

// NewSecurityLoggerWithLogger creates a security logger on logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "security").Logger(),
	}
}

// LogEvent writes event. Blocking events are logged at warn level.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info()
	if event.Blocked {
		e = l.logger.Warn()
	}
	e = e.Str("event", event.Event)

	if event.UserID != "" {
		e = e.Str("user_id", SanitizeUserID(event.UserID))
	}
	if event.DeviceHash != "" {
		e = e.Str("device", HashPrefix(event.DeviceHash))
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.Severity != "" {
		e = e.Str("severity", event.Severity)
	}
	if event.Stage != "" {
		e = e.Str("stage", event.Stage)
	}
	if event.Reason != "" {
		e = e.Str("reason", truncateString(event.Reason, 200))
	}
	e = e.Bool("blocked", event.Blocked)

	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}

	e.Msg("security event")
}

// LogDeviceBanned records a device ban and how many accounts it reaches.
func (l *SecurityLogger) LogDeviceBanned(deviceHash, bannedBy, violationType string, relatedAccounts int, permanent bool) {
	l.LogEvent(&SecurityEvent{
		Event:      "device_banned",
		DeviceHash: deviceHash,
		Blocked:    true,
		Reason:     violationType,
		Details: map[string]string{
			"banned_by":        bannedBy,
			"related_accounts": strconv.Itoa(relatedAccounts),
			"permanent":        strconv.FormatBool(permanent),
		},
	})
}

// LogBannedDeviceAttempt records a banned device trying to register.
func (l *SecurityLogger) LogBannedDeviceAttempt(userID, deviceHash string) {
	l.LogEvent(&SecurityEvent{
		Event:      "banned_device_attempt",
		UserID:     userID,
		DeviceHash: deviceHash,
		Blocked:    true,
	})
}

// LogCollision records a device collision verdict.
func (l *SecurityLogger) LogCollision(userID, deviceHash, riskLevel string, collidingUsers int, exact bool) {
	l.LogEvent(&SecurityEvent{
		Event:      "device_collision",
		UserID:     userID,
		DeviceHash: deviceHash,
		Severity:   riskLevel,
		Details: map[string]string{
			"colliding_users": strconv.Itoa(collidingUsers),
			"exact_match":     strconv.FormatBool(exact),
		},
	})
}

// LogUserBlocked records an account block.
func (l *SecurityLogger) LogUserBlocked(userID, reason, blockedBy string) {
	l.LogEvent(&SecurityEvent{
		Event:   "user_blocked",
		UserID:  userID,
		Blocked: true,
		Reason:  reason,
		Details: map[string]string{"blocked_by": blockedBy},
	})
}

// LogThreatDetected records a non-trivial analysis outcome.
func (l *SecurityLogger) LogThreatDetected(userID, level, action string, score float64) {
	l.LogEvent(&SecurityEvent{
		Event:    "threat_detected",
		UserID:   userID,
		Severity: level,
		Details: map[string]string{
			"action": action,
			"score":  strconv.FormatFloat(score, 'f', 3, 64),
		},
	})
}

// LogRateLimitStoreFailure records a limiter store error. The request was
// allowed because the limiter fails open.
func (l *SecurityLogger) LogRateLimitStoreFailure(action, identifier string, err error) {
	l.logger.Warn().
		Str("event", "ratelimit_store_failure").
		Str("action", action).
		Str("identifier", SanitizeUserID(identifier)).
		Err(err).
		Msg("Rate limit store failed, allowing request")
}

// HashPrefix shortens a device hash for logging.
func HashPrefix(hash string) string {
	if len(hash) <= HashPrefixLen {
		return hash
	}
	return hash[:HashPrefixLen]
}

// SanitizeToken masks a token, keeping the first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUserID masks a user ID, keeping the first and last 4 characters.
// Short IDs such as chat user numbers are kept whole since they are not secret.
func SanitizeUserID(userID string) string {
	if len(userID) <= 12 {
		return userID
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeValue masks values whose key suggests a secret or a raw
// fingerprint component.
func SanitizeValue(key, value string) string {
	switch strings.ToLower(key) {
	case "token", "access_token", "password", "secret", "salt", "api_key",
		"authorization", "bearer", "master_secret", "jwt":
		return SanitizeToken(value)
	case "canvas", "canvas_fingerprint", "audio_fingerprint", "webgl_fingerprint":
		return "[redacted]"
	case "hash", "device_hash", "fingerprint_hash":
		return HashPrefix(value)
	}
	return truncateString(value, 200)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
