// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

const (
	// DefaultMongoImage is the MongoDB image used by integration tests.
	// Pipeline updates need 4.2 or later.
	DefaultMongoImage = "mongo:7"

	// DefaultRedisImage is the Redis image used by integration tests.
	DefaultRedisImage = "redis:7-alpine"

	mongoPort = "27017"
	redisPort = "6379"
)

// MongoContainer is a running MongoDB instance.
type MongoContainer struct {
	testcontainers.Container
	URI string
}

// NewMongoContainer starts a MongoDB container.
//
//	mongo, err := testinfra.NewMongoContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, mongo.Container)
//
//	db, err := database.ConnectMongo(ctx, database.MongoConfig{URI: mongo.URI, Database: "test"})
func NewMongoContainer(ctx context.Context, opts ...ContainerOption) (*MongoContainer, error) {
	cfg := &containerConfig{image: DefaultMongoImage, startTimeout: 90 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	container, addr, err := startService(ctx, cfg, mongoPort, "Waiting for connections")
	if err != nil {
		return nil, err
	}
	return &MongoContainer{
		Container: container,
		URI:       fmt.Sprintf("mongodb://%s/?directConnection=true", addr),
	}, nil
}

// RedisContainer is a running Redis instance.
type RedisContainer struct {
	testcontainers.Container
	Addr string
}

// NewRedisContainer starts a Redis container.
func NewRedisContainer(ctx context.Context, opts ...ContainerOption) (*RedisContainer, error) {
	cfg := &containerConfig{image: DefaultRedisImage, startTimeout: 60 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	container, addr, err := startService(ctx, cfg, redisPort, "Ready to accept connections")
	if err != nil {
		return nil, err
	}
	return &RedisContainer{Container: container, Addr: addr}, nil
}
