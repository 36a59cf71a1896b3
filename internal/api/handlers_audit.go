// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/audit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AuditEntries handles GET /api/v1/admin/audit.
//
// Query parameters: type and severity (repeatable), user_id, device_hash,
// since and until (RFC 3339), limit and offset.
func (h *Handler) AuditEntries(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.audit == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "audit log is not configured")
		return
	}

	filter, err := parseAuditFilter(r.URL.Query())
	if err != nil {
		writeServiceError(rw, r, "audit_query", err)
		return
	}

	entries, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		writeServiceError(rw, r, "audit_query", err)
		return
	}

	countFilter := filter
	countFilter.Limit, countFilter.Offset = 0, 0
	total, err := h.audit.Count(r.Context(), countFilter)
	if err != nil {
		writeServiceError(rw, r, "audit_count", err)
		return
	}

	if entries == nil {
		entries = []audit.Entry{}
	}
	rw.Success(map[string]interface{}{
		"entries":  entries,
		"total":    total,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
		"has_more": int64(filter.Offset+len(entries)) < total,
	})
}

func parseAuditFilter(q url.Values) (audit.QueryFilter, error) {
	filter := audit.QueryFilter{
		UserID:     q.Get("user_id"),
		DeviceHash: q.Get("device_hash"),
		Limit:      defaultAuditLimit,
	}
	for _, t := range q["type"] {
		filter.Types = append(filter.Types, audit.EntryType(t))
	}
	for _, s := range q["severity"] {
		filter.Severities = append(filter.Severities, audit.Severity(s))
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"since", &filter.StartTime}, {"until", &filter.EndTime}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, &models.ValidationError{Field: p.name, Reason: p.name + " must be an RFC 3339 timestamp"}
		}
		*p.dst = &t
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAuditLimit {
			return filter, &models.ValidationError{Field: "limit", Reason: "limit must be between 1 and 1000"}
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, &models.ValidationError{Field: "offset", Reason: "offset must be a non-negative integer"}
		}
		filter.Offset = n
	}
	return filter, nil
}
