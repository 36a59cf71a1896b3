// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

// Package testinfra starts the external services used by integration tests.
//
// Containers are managed with testcontainers-go. Everything in the package
// is behind the integration build tag:
//
//	go test -tags integration ./...
//
// # Services
//
// NewMongoContainer backs the Mongo user, fingerprint and rate-limit stores.
// NewRedisContainer backs the Redis rate-limit store.
//
//	func TestRedisStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis.Container)
//	    // ...
//	}
//
// # CI Considerations
//
// Tests are skipped when Docker is unavailable or with -short. The first run
// pulls the images; later runs use the local cache.
package testinfra
