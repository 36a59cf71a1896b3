// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package supervisor runs the engine's long-lived services under suture v4.

# Tree

	RootSupervisor ("salada")
	├── maintenance-layer
	│   ├── ban-cleanup
	│   ├── ratelimit-cleanup
	│   ├── audit-retention
	│   └── threat-cache-cleanup
	├── jobs-layer
	│   └── verification-queue
	└── api-layer
	    └── http-server

Each layer restarts its own children. A cleanup task that keeps crashing
backs off inside the maintenance layer while the API keeps serving.

# Usage

	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMaintenanceService(services.NewPeriodicService("ban-cleanup", time.Hour, cleanup))
	tree.AddJobsService(services.NewQueueService(queue))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

# Failure Handling

suture keeps a failure counter per supervisor that decays over FailureDecay
seconds. Once it passes FailureThreshold the supervisor waits
FailureBackoff before the next restart. A service returning
suture.ErrDoNotRestart is removed instead of restarted.

Stores (MongoDB, Redis, BadgerDB, DuckDB) are not supervised. Their clients
reconnect on their own and are closed by the caller after the tree stops.
*/
package supervisor
