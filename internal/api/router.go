// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/auth"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/middleware"
)

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	return &Router{handler: handler, chiMiddleware: mw}
}

// Setup builds the route tree.
//
//	/metrics                                   Prometheus
//	/api/v1/health/{live,ready}                probes
//	/api/v1/fingerprints[/hash]                public, device registration
//	/api/v1/appeals                            public, ban appeals
//	/api/v1/security/...                       service or admin token
//	/api/v1/ratelimit/...                      service or admin token
//	/api/v1/admin/...                          admin token
func (router *Router) Setup() http.Handler {
	h := router.handler
	mw := router.chiMiddleware

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(mw.RateLimitHealth())
		r.Use(middleware.SecurityHeaders)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)

		// Public endpoints, reached from the captcha page.
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())
			r.Post("/fingerprints", h.RegisterFingerprint)
			r.Post("/fingerprints/hash", h.DeviceHash)
		})
		r.With(mw.RateLimitAppeal()).Post("/appeals", h.SubmitAppeal)

		// Trusted collaborators: captcha backend and bot process.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(auth.RoleService, auth.RoleAdmin))

			r.Route("/security", func(r chi.Router) {
				r.Post("/analyze", h.AnalyzeUser)
				r.Post("/enforce", h.AnalyzeAndEnforce)
				r.Get("/users/{userID}/quick-check", h.QuickCheck)
				r.Post("/users/{userID}/events", h.RecordEvent)
			})

			r.Route("/ratelimit", func(r chi.Router) {
				r.Get("/actions", h.RateLimitActions)
				r.Post("/{action}/check", h.CheckRateLimit)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole(auth.RoleAdmin))

			r.Get("/bans", h.ListBans)
			r.Post("/bans", h.CreateBan)
			r.Get("/bans/stats", h.BanStatistics)
			r.Get("/bans/{hash}", h.GetBan)
			r.Delete("/bans/{hash}", h.DeleteBan)

			r.Get("/ratelimit/{action}/{identifier}", h.PeekRateLimit)
			r.Delete("/ratelimit/{action}/{identifier}", h.ResetRateLimit)

			r.Get("/audit", h.AuditEntries)
		})
	})

	return r
}
