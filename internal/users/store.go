// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package users

import (
	"context"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// Store is the user record contract consumed by the engines.
// GetUser returns models.ErrNotFound (wrapped) for unknown IDs.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) error
	BlockUser(ctx context.Context, id string, details models.BlockDetails) error
	IsUserBlocked(ctx context.Context, id string) (bool, error)
	GetUsersRegisteredRecently(ctx context.Context, window time.Duration) ([]*models.User, error)
}

// applyUpdate copies the non-nil fields of update onto user.
func applyUpdate(user *models.User, update models.UserUpdate) {
	if update.Points != nil {
		user.Points = *update.Points
	}
	if update.LastIP != nil {
		user.LastIP = *update.LastIP
	}
	if update.LastLocation != nil {
		loc := *update.LastLocation
		user.LastLocation = &loc
	}
	if update.LastActiveAt != nil {
		user.LastActiveAt = *update.LastActiveAt
	}
	if update.RiskScore != nil {
		user.RiskScore = models.Clamp01(*update.RiskScore)
	}
}
