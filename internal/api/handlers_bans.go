// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/auth"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/validation"
)

// ListBans handles GET /api/v1/admin/bans.
func (h *Handler) ListBans(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	bans, err := h.bans.GetAllBannedDevices(r.Context())
	if err != nil {
		writeServiceError(rw, r, "list_bans", err)
		return
	}
	if bans == nil {
		bans = []*ban.BannedDevice{}
	}
	rw.Success(map[string]interface{}{"bans": bans, "count": len(bans)})
}

// BanStatistics handles GET /api/v1/admin/bans/stats.
func (h *Handler) BanStatistics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	stats, err := h.bans.GetBanStatistics(r.Context())
	if err != nil {
		writeServiceError(rw, r, "ban_stats", err)
		return
	}
	rw.Success(stats)
}

// GetBan handles GET /api/v1/admin/bans/{hash}.
func (h *Handler) GetBan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hash := chi.URLParam(r, "hash")
	if err := validation.ValidateVar("hash", hash, "devicehash"); err != nil {
		writeServiceError(rw, r, "get_ban", err)
		return
	}

	status, err := h.bans.IsDeviceBanned(r.Context(), hash)
	if err != nil {
		writeServiceError(rw, r, "get_ban", err)
		return
	}
	if !status.IsBanned {
		rw.NotFound("device is not banned")
		return
	}
	rw.Success(status.Ban)
}

// CreateBan handles POST /api/v1/admin/bans. BannedBy is always the
// authenticated admin.
func (h *Handler) CreateBan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ban.BanRequest
	claims := auth.ClaimsFromContext(r.Context())
	if claims != nil {
		req.BannedBy = claims.Username
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(rw, r, "create_ban", err)
		return
	}
	if claims != nil {
		req.BannedBy = claims.Username
	}

	banned, err := h.bans.BanDevice(r.Context(), req)
	if err != nil {
		writeServiceError(rw, r, "create_ban", err)
		return
	}
	rw.Created(banned)
}

// DeleteBan handles DELETE /api/v1/admin/bans/{hash}.
func (h *Handler) DeleteBan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hash := chi.URLParam(r, "hash")
	if err := validation.ValidateVar("hash", hash, "devicehash"); err != nil {
		writeServiceError(rw, r, "delete_ban", err)
		return
	}

	var req UnbanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(rw, r, "delete_ban", err)
		return
	}

	actor := "admin"
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		actor = claims.Username
	}

	removed, err := h.bans.UnbanDevice(r.Context(), hash, actor, req.Reason)
	if err != nil {
		writeServiceError(rw, r, "delete_ban", err)
		return
	}
	if !removed {
		rw.NotFound("device is not banned")
		return
	}
	rw.Success(map[string]interface{}{"unbanned": true, "device_hash": hash})
}

// SubmitAppeal handles POST /api/v1/appeals. The answer is the same for
// unknown, permanent and already appealed bans so the endpoint cannot be
// used to probe ban state.
func (h *Handler) SubmitAppeal(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req AppealRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(rw, r, "submit_appeal", err)
		return
	}

	if _, err := h.bans.SubmitAppeal(r.Context(), req.DeviceHash, req.Reason, req.UserID); err != nil {
		writeServiceError(rw, r, "submit_appeal", err)
		return
	}
	rw.Accepted(map[string]string{"status": "received"})
}
