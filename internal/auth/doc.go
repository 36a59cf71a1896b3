// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package auth issues and validates the bearer tokens that guard the admin
endpoints (ban management, rate-limit resets).

Tokens are HS256 JWTs signed with security.admin_jwt_secret. Two roles
exist: "service" for trusted collaborators (captcha backend, bot process)
and "admin" for ban management. End users of the bot never authenticate
here.

	manager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	token, _ := manager.GenerateToken("ops-alice", auth.RoleAdmin)

	claims, err := manager.ValidateToken(token)
*/
package auth
