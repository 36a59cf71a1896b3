// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package ban

import (
	"context"
	"time"
)

// BannedDevice is the ban record for one device hash.
type BannedDevice struct {
	DeviceHash       string     `json:"device_hash"`
	UserID           string     `json:"user_id,omitempty"`
	BannedAt         time.Time  `json:"banned_at"`
	BannedBy         string     `json:"banned_by"`
	Reason           string     `json:"reason"`
	ViolationType    string     `json:"violation_type"`
	RelatedAccounts  []string   `json:"related_accounts,omitempty"`
	BanDurationHours *int       `json:"ban_duration_hours,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	Appealable       bool       `json:"appealable"`
	AppealSubmitted  bool       `json:"appeal_submitted"`
	AppealedAt       *time.Time `json:"appealed_at,omitempty"`
	AppealReason     string     `json:"appeal_reason,omitempty"`
	AppealUserID     string     `json:"appeal_user_id,omitempty"`
}

// Permanent reports whether the ban has no expiry.
func (b *BannedDevice) Permanent() bool {
	return b.ExpiresAt == nil
}

// Expired reports whether a temporary ban has run out at now.
func (b *BannedDevice) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

func (b *BannedDevice) clone() *BannedDevice {
	c := *b
	c.RelatedAccounts = append([]string(nil), b.RelatedAccounts...)
	if b.BanDurationHours != nil {
		h := *b.BanDurationHours
		c.BanDurationHours = &h
	}
	if b.ExpiresAt != nil {
		t := *b.ExpiresAt
		c.ExpiresAt = &t
	}
	if b.AppealedAt != nil {
		t := *b.AppealedAt
		c.AppealedAt = &t
	}
	return &c
}

// BanRequest is the input to Service.BanDevice. A zero or nil
// DurationHours makes the ban permanent and not appealable.
type BanRequest struct {
	DeviceHash      string   `json:"device_hash" validate:"required,devicehash"`
	UserID          string   `json:"user_id"`
	Reason          string   `json:"reason" validate:"required,max=512"`
	ViolationType   string   `json:"violation_type" validate:"required,max=64"`
	RelatedAccounts []string `json:"related_accounts" validate:"max=1000"`
	DurationHours   *int     `json:"duration_hours,omitempty" validate:"omitempty,gt=0,lte=87600"`
	BannedBy        string   `json:"banned_by" validate:"required,max=128"`
}

// Status is the answer to IsDeviceBanned.
type Status struct {
	IsBanned bool          `json:"is_banned"`
	Ban      *BannedDevice `json:"ban,omitempty"`
}

// Statistics summarizes active bans.
type Statistics struct {
	TotalBanned     int            `json:"total_banned"`
	Permanent       int            `json:"permanent"`
	Temporary       int            `json:"temporary"`
	PendingAppeals  int            `json:"pending_appeals"`
	RelatedAccounts int            `json:"related_accounts"`
	ByViolationType map[string]int `json:"by_violation_type"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// UpdateFunc receives the current record (nil when absent) and returns the
// record to store. Returning an error aborts the update.
type UpdateFunc func(current *BannedDevice) (*BannedDevice, error)

// Store persists ban records keyed by device hash.
// Get returns models.ErrNotFound (wrapped) when no record exists.
type Store interface {
	Get(ctx context.Context, hash string) (*BannedDevice, error)
	Put(ctx context.Context, ban *BannedDevice) error
	Delete(ctx context.Context, hash string) (bool, error)
	List(ctx context.Context) ([]*BannedDevice, error)
	// Update applies fn atomically for one hash.
	Update(ctx context.Context, hash string, fn UpdateFunc) (*BannedDevice, error)
}
