// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/security"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/threat"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/validation"
)

// AnalyzeResponse pairs an analysis with what enforcement applied, if any.
type AnalyzeResponse struct {
	Analysis    *security.Analysis          `json:"analysis"`
	Enforcement *security.EnforcementResult `json:"enforcement,omitempty"`
}

// AnalyzeUser handles POST /api/v1/security/analyze.
func (h *Handler) AnalyzeUser(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, false)
}

// AnalyzeAndEnforce handles POST /api/v1/security/enforce.
func (h *Handler) AnalyzeAndEnforce(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, true)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, enforce bool) {
	rw := NewResponseWriter(w, r)

	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(rw, r, "analyze", err)
		return
	}

	user, err := h.users.GetUser(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(rw, r, "analyze", err)
		return
	}

	if !enforce {
		analysis, err := h.engine.AnalyzeUser(r.Context(), req.toRequest(user))
		if err != nil {
			writeServiceError(rw, r, "analyze", err)
			return
		}
		rw.Success(AnalyzeResponse{Analysis: analysis})
		return
	}

	analysis, result, err := h.engine.AnalyzeAndEnforce(r.Context(), req.toRequest(user))
	if analysis == nil {
		writeServiceError(rw, r, "analyze_enforce", err)
		return
	}
	if err != nil {
		// Enforcement is partial; the result lists what failed.
		logging.Ctx(r.Context()).Warn().Err(err).
			Str("user_id", logging.SanitizeUserID(req.UserID)).
			Msg("Enforcement incomplete")
	}
	rw.Success(AnalyzeResponse{Analysis: analysis, Enforcement: result})
}

// QuickCheck handles GET /api/v1/security/users/{userID}/quick-check.
func (h *Handler) QuickCheck(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")
	if err := validation.ValidateVar("user_id", userID, "required,max=64"); err != nil {
		writeServiceError(rw, r, "quick_check", err)
		return
	}

	result, err := h.engine.QuickSecurityCheck(r.Context(), userID)
	if err != nil && result == nil {
		writeServiceError(rw, r, "quick_check", err)
		return
	}
	rw.Success(result)
}

// RecordEvent handles POST /api/v1/security/users/{userID}/events.
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")
	if err := validation.ValidateVar("user_id", userID, "required,max=64"); err != nil {
		writeServiceError(rw, r, "record_event", err)
		return
	}

	var ev threat.Event
	if err := decodeJSON(w, r, &ev); err != nil {
		writeServiceError(rw, r, "record_event", err)
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	result, err := h.realtime.MonitorRealTime(r.Context(), userID, ev)
	if err != nil {
		writeServiceError(rw, r, "record_event", err)
		return
	}
	rw.Success(result)
}
