// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// DuckDBStore implements Store on DuckDB. The analysis log is append-heavy
// and queried by aggregate (counts per user and window), which suits a
// columnar engine.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDuckDBStore creates a DuckDB-backed audit store. db comes from
// database.OpenDuckDB; the caller is responsible for calling CreateTable.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the security_audit table if it doesn't exist.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS security_audit (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			user_id TEXT,
			device_hash TEXT,
			actor TEXT,
			threat_level TEXT,
			risk_score DOUBLE NOT NULL DEFAULT 0,
			action TEXT,
			details JSON
		);

		CREATE INDEX IF NOT EXISTS idx_security_audit_timestamp ON security_audit(timestamp);
		CREATE INDEX IF NOT EXISTS idx_security_audit_user ON security_audit(user_id);
		CREATE INDEX IF NOT EXISTS idx_security_audit_device ON security_audit(device_hash);
		CREATE INDEX IF NOT EXISTS idx_security_audit_type ON security_audit(type)
	`

	for _, stmt := range strings.Split(query, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Security audit table created/verified")
	return nil
}

// Save persists an entry.
func (s *DuckDBStore) Save(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var details *string
	if len(entry.Details) > 0 {
		d := string(entry.Details)
		details = &d
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO security_audit (
			id, timestamp, type, severity, user_id, device_hash,
			actor, threat_level, risk_score, action, details
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp,
		string(entry.Type),
		string(entry.Severity),
		entry.UserID,
		entry.DeviceHash,
		entry.Actor,
		entry.ThreatLevel,
		entry.RiskScore,
		entry.Action,
		details,
	)
	if err != nil {
		return models.NewStoreUnavailable("audit", "save", err)
	}
	return nil
}

// SaveSecurityAuditLog implements Sink.
func (s *DuckDBStore) SaveSecurityAuditLog(ctx context.Context, entry *Entry) error {
	prepareEntry(entry)
	return s.Save(ctx, entry)
}

const selectColumns = `
	SELECT id, timestamp, type, severity, user_id, device_hash,
		actor, threat_level, risk_score, action,
		CAST(details AS VARCHAR) AS details
	FROM security_audit`

// Get retrieves an entry by ID.
func (s *DuckDBStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("audit entry %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}
	return entry, nil
}

// Query returns matching entries newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conditions, args := buildConditions(filter)
	query := selectColumns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, models.NewStoreUnavailable("audit", "query", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan audit row")
			continue
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}
	return entries, nil
}

// Count returns the number of entries matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conditions, args := buildConditions(filter)
	query := "SELECT COUNT(*) FROM security_audit"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, models.NewStoreUnavailable("audit", "count", err)
	}
	return count, nil
}

// Delete removes entries older than the given time.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM security_audit WHERE timestamp < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit entries: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	return count, nil
}

// GetStats returns aggregate counts.
func (s *DuckDBStore) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM security_audit").Scan(&stats.TotalEntries); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	var err error
	if stats.EntriesByType, err = s.countByColumn(ctx, "type"); err != nil {
		return nil, err
	}
	if stats.EntriesBySeverity, err = s.countByColumn(ctx, "severity"); err != nil {
		return nil, err
	}

	var oldest, newest sql.NullTime
	if err := s.db.QueryRowContext(ctx, "SELECT MIN(timestamp), MAX(timestamp) FROM security_audit").Scan(&oldest, &newest); err == nil {
		if oldest.Valid {
			stats.OldestEntry = &oldest.Time
		}
		if newest.Valid {
			stats.NewestEntry = &newest.Time
		}
	}
	return stats, nil
}

// countByColumn executes a GROUP BY query and returns counts per value.
// column is always a package constant, never caller input.
func (s *DuckDBStore) countByColumn(ctx context.Context, column string) (map[string]int64, error) {
	result := make(map[string]int64)
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM security_audit GROUP BY %s", column, column)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s counts: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err == nil {
			result[key] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s counts: %w", column, err)
	}
	return result, nil
}

func buildConditions(filter QueryFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	if cond := buildSliceCondition("type", filter.Types, &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if cond := buildSliceCondition("severity", filter.Severities, &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.DeviceHash != "" {
		conditions = append(conditions, "device_hash = ?")
		args = append(args, filter.DeviceHash)
	}
	if filter.StartTime != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filter.EndTime)
	}
	return conditions, args
}

// buildSliceCondition creates a SQL IN condition for a slice of string values.
func buildSliceCondition[T ~string](column string, values []T, args *[]interface{}) string {
	if len(values) == 0 {
		return ""
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		*args = append(*args, string(v))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ","))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry                            Entry
		entryType, severity              string
		userID, deviceHash, actor, level sql.NullString
		action, details                  sql.NullString
	)
	err := row.Scan(
		&entry.ID, &entry.Timestamp, &entryType, &severity,
		&userID, &deviceHash, &actor, &level, &entry.RiskScore, &action, &details,
	)
	if err != nil {
		return nil, err
	}
	entry.Type = EntryType(entryType)
	entry.Severity = Severity(severity)
	entry.UserID = userID.String
	entry.DeviceHash = deviceHash.String
	entry.Actor = actor.String
	entry.ThreatLevel = level.String
	entry.Action = action.String
	if details.Valid && details.String != "" {
		entry.Details = []byte(details.String)
	}
	return &entry, nil
}
