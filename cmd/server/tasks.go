// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package main

import (
	"context"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/supervisor/services"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/vpn"
)

// Maintenance task names, also used as job metric labels.
const (
	taskBanCleanup         = "ban-cleanup"
	taskRateLimitCleanup   = "ratelimit-cleanup"
	taskAuditRetention     = "audit-retention"
	taskThreatCacheCleanup = "threat-cache-cleanup"
	taskNetworkListReload  = "network-list-reload"
)

const (
	auditRetentionInterval = time.Hour
	threatCleanupInterval  = 5 * time.Minute
)

type banCleaner interface {
	CleanupExpiredBans(ctx context.Context) (int, error)
}

type windowCleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

type auditCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

type cacheCleaner interface {
	CleanupExpired() int
}

type listReloader interface {
	Reload(ctx context.Context) (*vpn.ImportResult, error)
}

// maintenanceTasks builds the periodic services of the maintenance layer.
func maintenanceTasks(cfg *config.Config, bans banCleaner, limiter windowCleaner, auditLog auditCleaner, threats cacheCleaner) []*services.PeriodicService {
	return []*services.PeriodicService{
		services.NewPeriodicService(taskBanCleanup, cfg.Ban.CleanupInterval, bans.CleanupExpiredBans),
		services.NewPeriodicService(taskRateLimitCleanup, cfg.RateLimit.CleanupInterval, limiter.Cleanup),
		services.NewPeriodicService(taskAuditRetention, auditRetentionInterval, func(ctx context.Context) (int, error) {
			n, err := auditLog.Cleanup(ctx)
			return int(n), err
		}),
		services.NewPeriodicService(taskThreatCacheCleanup, threatCleanupInterval, func(context.Context) (int, error) {
			return threats.CleanupExpired(), nil
		}),
	}
}

// networkListTask reloads the network intelligence list. It returns nil when
// no list is configured.
func networkListTask(cfg config.VPNConfig, lists listReloader) *services.PeriodicService {
	if cfg.ListPath == "" {
		return nil
	}
	return services.NewPeriodicService(taskNetworkListReload, cfg.ReloadInterval, func(ctx context.Context) (int, error) {
		res, err := lists.Reload(ctx)
		if err != nil {
			return 0, err
		}
		return res.AddressesImported + res.PrefixesImported, nil
	})
}
