// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/auth"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
)

// ChiMiddlewareConfig configures the HTTP-level protection.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// ChiMiddlewareConfigFrom builds the middleware config from the security
// section.
func ChiMiddlewareConfigFrom(cfg config.SecurityConfig) *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.CORSOrigins,
		CORSAllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.HTTPRateLimitReqs,
		RateLimitWindow:    cfg.HTTPRateLimitWin,
		RateLimitDisabled:  cfg.HTTPRateLimitOff,
	}
}

// ChiMiddleware provides the router's middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
	jwt    *auth.JWTManager
}

// NewChiMiddleware creates the factories. jwt may be nil, in which case
// every protected route answers 401.
func NewChiMiddleware(config *ChiMiddlewareConfig, jwt *auth.JWTManager) *ChiMiddleware {
	return &ChiMiddleware{
		config: config,
		cors: cors.Handler(cors.Options{
			AllowedOrigins: config.CORSAllowedOrigins,
			AllowedMethods: config.CORSAllowedMethods,
			AllowedHeaders: config.CORSAllowedHeaders,
			ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
			MaxAge:         config.CORSMaxAge,
		}),
		jwt: jwt,
	}
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit limits requests per client IP with the configured budget.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limit(m.config.RateLimitRequests, m.config.RateLimitWindow)
}

// RateLimitHealth is a permissive per-IP limit for probes.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.limit(1000, time.Minute)
}

// RateLimitAppeal is a strict per-IP limit for the public appeal endpoint.
func (m *ChiMiddleware) RateLimitAppeal() func(http.Handler) http.Handler {
	return m.limit(5, time.Hour)
}

func (m *ChiMiddleware) limit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).TooManyRequests("too many requests", map[string]interface{}{
				"retry_after_seconds": retryAfter(w),
			})
		}),
	)
}

// retryAfter reads the Retry-After header httprate sets before calling the
// limit handler.
func retryAfter(w http.ResponseWriter) int {
	n, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil {
		return 0
	}
	return n
}

// RequireRole admits requests carrying a valid bearer token with one of
// roles, and stores its claims on the request context.
func (m *ChiMiddleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := NewResponseWriter(w, r)
			if m.jwt == nil {
				rw.Unauthorized("authentication is not configured")
				return
			}

			token, err := auth.ExtractBearerToken(r)
			if err != nil {
				rw.Unauthorized("missing bearer token")
				return
			}

			claims, err := m.jwt.ValidateToken(token)
			if err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected bearer token")
				rw.Unauthorized("invalid or expired token")
				return
			}
			if !claims.HasRole(roles...) {
				logging.Ctx(r.Context()).Warn().
					Str("username", claims.Username).
					Str("role", claims.Role).
					Str("path", r.URL.Path).
					Msg("Insufficient role")
				rw.Forbidden("insufficient role")
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			ctx = logging.ContextWithUserID(ctx, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
