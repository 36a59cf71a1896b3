// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ratelimit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/validation"
)

// RateLimitActions handles GET /api/v1/ratelimit/actions.
func (h *Handler) RateLimitActions(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{"actions": h.limiter.Actions()})
}

// CheckRateLimit handles POST /api/v1/ratelimit/{action}/check. The answer
// is always 200 with the decision in the body; the caller owns the
// user-facing response.
func (h *Handler) CheckRateLimit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	action := chi.URLParam(r, "action")

	var req RateLimitCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(rw, r, "ratelimit_check", err)
		return
	}

	var (
		res ratelimit.Result
		err error
	)
	if req.RiskScore != nil {
		res, err = h.limiter.CheckDynamicLimit(r.Context(), req.Identifier, action, *req.RiskScore)
	} else {
		res, err = h.limiter.Check(r.Context(), action, req.Identifier)
	}
	if err != nil {
		writeServiceError(rw, r, "ratelimit_check", err)
		return
	}

	setRateLimitHeaders(w, res)
	rw.Success(res)
}

// PeekRateLimit handles GET /api/v1/admin/ratelimit/{action}/{identifier}.
func (h *Handler) PeekRateLimit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	action, identifier, ok := rateLimitParams(rw, r)
	if !ok {
		return
	}

	res, err := h.limiter.Peek(r.Context(), action, identifier)
	if err != nil {
		writeServiceError(rw, r, "ratelimit_peek", err)
		return
	}
	rw.Success(res)
}

// ResetRateLimit handles DELETE /api/v1/admin/ratelimit/{action}/{identifier}.
func (h *Handler) ResetRateLimit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	action, identifier, ok := rateLimitParams(rw, r)
	if !ok {
		return
	}

	if err := h.limiter.Reset(r.Context(), action, identifier); err != nil {
		writeServiceError(rw, r, "ratelimit_reset", err)
		return
	}
	rw.Success(map[string]interface{}{"reset": true, "action": action})
}

func rateLimitParams(rw *ResponseWriter, r *http.Request) (string, string, bool) {
	action := chi.URLParam(r, "action")
	identifier := chi.URLParam(r, "identifier")
	if err := validation.ValidateVar("identifier", identifier, "required,max=128"); err != nil {
		writeServiceError(rw, r, "ratelimit_params", err)
		return "", "", false
	}
	return action, identifier, true
}

func setRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	if res.Skipped {
		return
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Total))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetTime.Unix(), 10))
}
