// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"net/http"
)

// FingerprintResponse is what a client learns about its registration.
// Risk scores and collision data stay server-side.
type FingerprintResponse struct {
	Registered bool  `json:"registered"`
	NewDevice  bool  `json:"new_device"`
	UsageCount int64 `json:"usage_count"`
}

// RegisterFingerprint handles POST /api/v1/fingerprints.
func (h *Handler) RegisterFingerprint(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req FingerprintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(rw, r, "register_fingerprint", err)
		return
	}

	fp, err := h.fingerprints.GenerateFingerprint(r.Context(), req.Signals, req.UserID)
	if err != nil {
		writeServiceError(rw, r, "register_fingerprint", err)
		return
	}

	resp := FingerprintResponse{
		Registered: true,
		NewDevice:  fp.UsageCount <= 1,
		UsageCount: fp.UsageCount,
	}
	if resp.NewDevice {
		rw.Created(resp)
		return
	}
	rw.Success(resp)
}

// DeviceHash handles POST /api/v1/fingerprints/hash. It computes the hash
// of a bundle without registering anything.
func (h *Handler) DeviceHash(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req DeviceHashRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(rw, r, "device_hash", err)
		return
	}

	hash, err := h.fingerprints.GenerateDeviceHash(r.Context(), req.Signals)
	if err != nil {
		writeServiceError(rw, r, "device_hash", err)
		return
	}
	rw.Success(map[string]string{"device_hash": hash})
}
