// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EntryType categorizes an audit entry.
type EntryType string

const (
	TypeSecurityAnalysis  EntryType = "security_analysis"
	TypeDeviceBlocked     EntryType = "device_blocked"
	TypeDeviceUnblocked   EntryType = "device_unblocked"
	TypeBanAppeal         EntryType = "ban_appeal"
	TypeBanExpired        EntryType = "ban_expired"
	TypeUserBlocked       EntryType = "user_blocked"
	TypeCollisionDetected EntryType = "collision_detected"
	TypeRealtimeBlock     EntryType = "realtime_block"
)

// Severity mirrors the threat ladder so rate-of-violation queries can
// filter on it directly.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Entry is one append-only audit record.
type Entry struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        EntryType       `json:"type"`
	Severity    Severity        `json:"severity"`
	UserID      string          `json:"user_id,omitempty"`
	DeviceHash  string          `json:"device_hash,omitempty"`
	Actor       string          `json:"actor,omitempty"`
	ThreatLevel string          `json:"threat_level,omitempty"`
	RiskScore   float64         `json:"risk_score"`
	Action      string          `json:"action,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
}

// SetDetails marshals v into Details. Marshal failures leave Details empty.
func (e *Entry) SetDetails(v interface{}) {
	if v == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		e.Details = data
	}
}

// DecodeDetails unmarshals Details into v.
func (e *Entry) DecodeDetails(v interface{}) error {
	if len(e.Details) == 0 {
		return nil
	}
	return json.Unmarshal(e.Details, v)
}

// QueryFilter selects entries. Zero values match everything.
type QueryFilter struct {
	Types      []EntryType
	Severities []Severity
	UserID     string
	DeviceHash string
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int
	Offset     int
}

// Sink is the append-only write side used by the engines.
type Sink interface {
	SaveSecurityAuditLog(ctx context.Context, entry *Entry) error
}

// Store is a queryable audit backend.
type Store interface {
	Save(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	Query(ctx context.Context, filter QueryFilter) ([]Entry, error)
	Count(ctx context.Context, filter QueryFilter) (int64, error)
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// Stats summarizes a store's contents.
type Stats struct {
	TotalEntries      int64            `json:"total_entries"`
	EntriesByType     map[string]int64 `json:"entries_by_type"`
	EntriesBySeverity map[string]int64 `json:"entries_by_severity"`
	OldestEntry       *time.Time       `json:"oldest_entry,omitempty"`
	NewestEntry       *time.Time       `json:"newest_entry,omitempty"`
}
