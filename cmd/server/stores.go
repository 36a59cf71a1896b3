// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/api"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/audit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/database"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ratelimit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/users"
)

// backends holds the persistence layer selected by configuration, plus
// everything that has to be closed on shutdown.
type backends struct {
	users        users.Store
	fingerprints fingerprint.Store
	bans         ban.Store
	auditStore   audit.Store
	rateLimits   ratelimit.Store

	mongo   *database.Mongo
	redis   *redis.Client
	badger  *badger.DB
	duckdb  *sql.DB
	closers []io.Closer

	readiness map[string]api.ReadinessCheck
}

// openBackends connects every configured store. On error, whatever was
// already opened is closed.
func openBackends(ctx context.Context, cfg *config.Config) (b *backends, err error) {
	b = &backends{readiness: make(map[string]api.ReadinessCheck)}
	defer func() {
		if err != nil {
			b.Close(ctx)
			b = nil
		}
	}()

	if cfg.UsesMongo() {
		b.mongo, err = database.ConnectMongo(ctx, database.MongoConfig{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return b, err
		}
		b.readiness["mongo"] = func(ctx context.Context) error {
			return b.mongo.Client.Ping(ctx, nil)
		}
	}

	if err = b.openUsers(ctx, cfg); err != nil {
		return b, err
	}
	if err = b.openFingerprints(ctx, cfg); err != nil {
		return b, err
	}
	if err = b.openBans(cfg); err != nil {
		return b, err
	}
	if err = b.openAudit(ctx, cfg); err != nil {
		return b, err
	}
	if err = b.openRateLimits(ctx, cfg); err != nil {
		return b, err
	}
	return b, nil
}

func (b *backends) openUsers(ctx context.Context, cfg *config.Config) error {
	if cfg.Users.Store != "mongo" {
		b.users = users.NewMemoryStore()
		logging.Warn().Msg("User store is in memory; users are lost on restart")
		return nil
	}
	s := users.NewMongoStore(b.mongo.Collection(database.CollectionUsers), b.mongo.Timeout())
	if err := s.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	b.users = s
	return nil
}

func (b *backends) openFingerprints(ctx context.Context, cfg *config.Config) error {
	if cfg.Fingerprint.Store != "mongo" {
		b.fingerprints = fingerprint.NewMemoryStore()
		return nil
	}
	s := fingerprint.NewMongoStore(b.mongo.Collection(database.CollectionFingerprints), b.mongo.Timeout())
	if err := s.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("create fingerprint indexes: %w", err)
	}
	b.fingerprints = s
	return nil
}

func (b *backends) openBans(cfg *config.Config) error {
	if cfg.Ban.Store != "badger" {
		b.bans = ban.NewMemoryStore()
		return nil
	}
	db, err := ban.OpenBadger(cfg.Ban.BadgerPath)
	if err != nil {
		return err
	}
	b.badger = db
	b.closers = append(b.closers, db)
	b.bans = ban.NewBadgerStore(db)
	logging.Info().Str("path", cfg.Ban.BadgerPath).Msg("Ban store opened")
	return nil
}

func (b *backends) openAudit(ctx context.Context, cfg *config.Config) error {
	if cfg.Audit.Store != "duckdb" {
		b.auditStore = audit.NewMemoryStore(cfg.Audit.MaxEntries)
		return nil
	}
	db, err := database.OpenDuckDB(ctx, cfg.Audit.Path)
	if err != nil {
		return err
	}
	b.duckdb = db
	b.closers = append(b.closers, db)

	s := audit.NewDuckDBStore(db)
	if err := s.CreateTable(ctx); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	b.auditStore = s
	b.readiness["audit"] = db.PingContext
	return nil
}

func (b *backends) openRateLimits(ctx context.Context, cfg *config.Config) error {
	var store ratelimit.Store
	switch cfg.RateLimit.Backend {
	case "mongo":
		s := ratelimit.NewMongoStore(b.mongo.Collection(database.CollectionRateLimits), b.mongo.Timeout())
		if err := s.CreateIndexes(ctx); err != nil {
			return fmt.Errorf("create rate limit indexes: %w", err)
		}
		store = s
	case "redis":
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, b.redis)
		if err := b.redis.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so a cold Redis is not fatal.
			logging.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis not reachable at startup")
		}
		b.readiness["redis"] = func(ctx context.Context) error {
			return b.redis.Ping(ctx).Err()
		}
		store = ratelimit.NewRedisStore(b.redis, cfg.Redis.KeyPrefix)
	default:
		b.rateLimits = ratelimit.NewMemoryStore(cfg.RateLimit.MemoryCapacity)
		return nil
	}

	if cfg.RateLimit.BreakerEnabled {
		store = ratelimit.NewBreakerStore(store, ratelimit.BreakerSettings{})
	}
	b.rateLimits = store
	logging.Info().
		Str("backend", cfg.RateLimit.Backend).
		Bool("breaker", cfg.RateLimit.BreakerEnabled).
		Msg("Rate limit store configured")
	return nil
}

// Close releases every backend in reverse order of opening.
func (b *backends) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		database.CloseWithLog(b.closers[i], fmt.Sprintf("%T", b.closers[i]))
	}
	b.closers = nil
	if b.mongo != nil {
		if err := b.mongo.Close(ctx); err != nil {
			logging.Error().Err(err).Msg("Error closing MongoDB client")
		}
		b.mongo = nil
	}
}
