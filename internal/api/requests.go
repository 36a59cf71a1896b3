// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/security"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/threat"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/validation"
)

// maxBodyBytes bounds request bodies. Canvas and font lists make device
// bundles the largest payload.
const maxBodyBytes = 1 << 20

// FingerprintRequest registers a device for a user.
type FingerprintRequest struct {
	UserID  string                     `json:"user_id" validate:"required,max=64"`
	Signals *fingerprint.DeviceSignals `json:"signals" validate:"required"`
}

// DeviceHashRequest hashes a bundle without registering it.
type DeviceHashRequest struct {
	Signals *fingerprint.DeviceSignals `json:"signals" validate:"required"`
}

// AnalyzeRequest is the HTTP form of security.Request. The user is loaded
// from the user store by ID.
type AnalyzeRequest struct {
	UserID         string                     `json:"user_id" validate:"required,max=64"`
	DeviceSignals  *fingerprint.DeviceSignals `json:"device_signals,omitempty"`
	Behavior       *security.BehaviorSignals  `json:"behavior,omitempty"`
	IPAddress      string                     `json:"ip_address,omitempty" validate:"omitempty,ip"`
	Location       *models.GeoPoint           `json:"location,omitempty"`
	RecentActivity []threat.Activity          `json:"recent_activity,omitempty" validate:"max=1000"`
}

func (a *AnalyzeRequest) toRequest(user *models.User) security.Request {
	return security.Request{
		User:           user,
		DeviceSignals:  a.DeviceSignals,
		Behavior:       a.Behavior,
		IPAddress:      a.IPAddress,
		Location:       a.Location,
		RecentActivity: a.RecentActivity,
	}
}

// UnbanRequest carries the audit reason for an unban.
type UnbanRequest struct {
	Reason string `json:"reason" validate:"required,max=512"`
}

// AppealRequest is a user's appeal against a temporary ban.
type AppealRequest struct {
	DeviceHash string `json:"device_hash" validate:"required,devicehash"`
	UserID     string `json:"user_id" validate:"required,max=64"`
	Reason     string `json:"reason" validate:"required,max=1024"`
}

// RateLimitCheckRequest counts one action for an identifier. A RiskScore
// scales the limit down.
type RateLimitCheckRequest struct {
	Identifier string   `json:"identifier" validate:"required,max=128"`
	RiskScore  *float64 `json:"risk_score,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// decodeJSON reads a bounded JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return &models.ValidationError{Reason: fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes)}
		case errors.Is(err, io.EOF):
			return &models.ValidationError{Reason: "request body is empty"}
		default:
			return &models.ValidationError{Reason: "malformed JSON: " + err.Error()}
		}
	}
	return validation.ValidateStruct(v)
}
