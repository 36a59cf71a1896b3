// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package models

import (
	"time"
)

// User is the subset of an account record the engine reads and writes.
// The authoritative record lives in the user store.
type User struct {
	ID            string     `json:"id" bson:"_id"`
	Username      string     `json:"username,omitempty" bson:"username,omitempty"`
	Points        int64      `json:"points" bson:"points"`
	RegisteredAt  time.Time  `json:"registered_at" bson:"registeredAt"`
	LastActiveAt  time.Time  `json:"last_active_at,omitempty" bson:"lastActiveAt,omitempty"`
	ReferredBy    string     `json:"referred_by,omitempty" bson:"referredBy,omitempty"`
	ReferralCount int        `json:"referral_count" bson:"referralCount"`
	LastIP        string     `json:"last_ip,omitempty" bson:"lastIp,omitempty"`
	LastLocation  *GeoPoint  `json:"last_location,omitempty" bson:"lastLocation,omitempty"`
	IsBlocked     bool       `json:"is_blocked" bson:"isBlocked"`
	BlockReason   string     `json:"block_reason,omitempty" bson:"blockReason,omitempty"`
	BlockedAt     *time.Time `json:"blocked_at,omitempty" bson:"blockedAt,omitempty"`
	BlockedBy     string     `json:"blocked_by,omitempty" bson:"blockedBy,omitempty"`
	RiskScore     float64    `json:"risk_score" bson:"riskScore"`
}

// AccountAge returns how long the account has existed at now.
func (u *User) AccountAge(now time.Time) time.Duration {
	if u.RegisteredAt.IsZero() {
		return 0
	}
	return now.Sub(u.RegisteredAt)
}

// GeoPoint is a located observation of a user.
type GeoPoint struct {
	Latitude   float64   `json:"latitude" bson:"latitude"`
	Longitude  float64   `json:"longitude" bson:"longitude"`
	Country    string    `json:"country,omitempty" bson:"country,omitempty"`
	City       string    `json:"city,omitempty" bson:"city,omitempty"`
	ObservedAt time.Time `json:"observed_at" bson:"observedAt"`
}

// UserUpdate is a partial update. Nil fields are left unchanged.
type UserUpdate struct {
	Points       *int64     `json:"points,omitempty"`
	LastIP       *string    `json:"last_ip,omitempty"`
	LastLocation *GeoPoint  `json:"last_location,omitempty"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	RiskScore    *float64   `json:"risk_score,omitempty"`
}

// BlockDetails describes why an account was blocked.
type BlockDetails struct {
	Reason        string `json:"reason"`
	BlockedBy     string `json:"blocked_by"`
	DeviceHash    string `json:"device_hash,omitempty"`
	ViolationType string `json:"violation_type,omitempty"`
}
