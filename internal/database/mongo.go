// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
)

// Collection names shared by the Mongo-backed stores.
const (
	CollectionUsers        = "users"
	CollectionFingerprints = "deviceFingerprints"
	CollectionRateLimits   = "rateLimits"
)

// MongoConfig configures ConnectMongo.
type MongoConfig struct {
	URI         string
	Database    string
	Timeout     time.Duration
	MaxPoolSize uint64
}

// Mongo wraps a connected client and its database handle.
type Mongo struct {
	Client  *mongo.Client
	DB      *mongo.Database
	timeout time.Duration
}

// ConnectMongo dials and pings the server.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.Timeout)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logging.Info().Str("database", cfg.Database).Msg("MongoDB connected")
	return &Mongo{
		Client:  client,
		DB:      client.Database(cfg.Database),
		timeout: cfg.Timeout,
	}, nil
}

// Collection returns a handle for name.
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.DB.Collection(name)
}

// Timeout is the per-operation timeout stores should apply.
func (m *Mongo) Timeout() time.Duration {
	return m.timeout
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
