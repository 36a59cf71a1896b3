// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/database"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/testinfra"
)

func TestRedisStore_Integration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("NewRedisContainer: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, container.Container)

	client := redis.NewClient(&redis.Options{Addr: container.Addr})
	defer client.Close()

	store := NewRedisStore(client, "salada:test:")
	testStoreConformance(t, store)

	t.Run("limiter", func(t *testing.T) {
		l := NewLimiter(store, config.RateLimitConfig{})
		for i := 0; i < 3; i++ {
			res, err := l.Check(ctx, ActionTaskSubmission, "redis-user")
			if err != nil || !res.Allowed || res.FailOpen {
				t.Fatalf("call %d = %+v err %v", i+1, res, err)
			}
		}
		if res, _ := l.Check(ctx, ActionTaskSubmission, "redis-user"); res.Allowed {
			t.Error("4th task submission allowed")
		}
	})
}

func TestMongoStore_Integration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := testinfra.NewMongoContainer(ctx)
	if err != nil {
		t.Fatalf("NewMongoContainer: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, container.Container)

	db, err := database.ConnectMongo(ctx, database.MongoConfig{URI: container.URI, Database: "salada_test"})
	if err != nil {
		t.Fatalf("ConnectMongo: %v", err)
	}
	defer db.Close(context.Background())

	store := NewMongoStore(db.Collection(database.CollectionRateLimits), db.Timeout())
	if err := store.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes: %v", err)
	}
	testStoreConformance(t, store)

	t.Run("cleanup removes elapsed windows", func(t *testing.T) {
		store.Increment(ctx, "cleanup-a", 100*time.Millisecond)
		store.Increment(ctx, "cleanup-b", time.Hour)
		time.Sleep(200 * time.Millisecond)

		removed, err := store.Cleanup(ctx)
		if err != nil {
			t.Fatalf("Cleanup: %v", err)
		}
		if removed < 1 {
			t.Errorf("Cleanup removed %d, want at least 1", removed)
		}
		if _, found, _ := store.Get(ctx, "cleanup-b"); !found {
			t.Error("live window was removed")
		}
	})
}
