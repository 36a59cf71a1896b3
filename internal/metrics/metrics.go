// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Analysis Metrics
	SecurityAnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_security_analyses_total",
			Help: "Unified security analyses by resulting threat level",
		},
		[]string{"threat_level", "action"},
	)

	SecurityAnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "salada_security_analysis_duration_seconds",
			Help:    "Duration of unified security analyses",
			Buckets: prometheus.DefBuckets,
		},
	)

	SecurityStageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_security_stage_errors_total",
			Help: "Analysis stages that failed and were skipped",
		},
		[]string{"stage"},
	)

	ThreatAnalysisCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_threat_analysis_cache_total",
			Help: "Threat analysis cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_realtime_events_total",
			Help: "Real-time monitored events by outcome",
		},
		[]string{"outcome"}, // allow, flag, block
	)

	// Fingerprint Metrics
	FingerprintsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_fingerprints_generated_total",
			Help: "Fingerprint generation attempts by result",
		},
		[]string{"result"}, // new, seen, banned, invalid, error
	)

	CollisionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_collision_checks_total",
			Help: "Device collision checks by risk level and scan mode",
		},
		[]string{"risk_level", "mode"}, // mode: inline, async, fallback
	)

	CollisionScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "salada_collision_scan_duration_seconds",
			Help:    "Duration of fuzzy collision scans",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	BotDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_bot_detections_total",
			Help: "Bot heuristic results by category",
		},
		[]string{"category"}, // human, suspicious, automated, bot
	)

	// Ban Metrics
	BanActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_ban_actions_total",
			Help: "Device ban service actions",
		},
		[]string{"action"}, // ban, unban, appeal, expire, cascade_block
	)

	BannedDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salada_banned_devices",
			Help: "Currently banned devices as of the last statistics run",
		},
	)

	// Rate Limit Metrics
	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_ratelimit_decisions_total",
			Help: "Rate limit decisions by action class",
		},
		[]string{"action", "decision"}, // allowed, denied, skipped, exempt
	)

	RateLimitStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_ratelimit_store_errors_total",
			Help: "Rate limit store failures (requests were allowed)",
		},
		[]string{"backend"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "salada_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Background Job Metrics
	VerificationJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_verification_jobs_total",
			Help: "Background verification jobs by outcome",
		},
		[]string{"type", "outcome"}, // enqueued, processed, failed, duplicate
	)

	// Audit Metrics
	AuditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salada_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full",
		},
	)

	AuditEventsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_audit_events_written_total",
			Help: "Audit events persisted by type",
		},
		[]string{"type"},
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salada_api_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salada_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordSecurityAnalysis records one completed unified analysis.
func RecordSecurityAnalysis(threatLevel, action string, duration time.Duration) {
	SecurityAnalysesTotal.WithLabelValues(threatLevel, action).Inc()
	SecurityAnalysisDuration.Observe(duration.Seconds())
}

// RecordCollisionCheck records a collision verdict.
func RecordCollisionCheck(riskLevel, mode string) {
	CollisionChecks.WithLabelValues(riskLevel, mode).Inc()
}

// RecordRateLimitDecision records a limiter verdict.
func RecordRateLimitDecision(action, decision string) {
	RateLimitDecisions.WithLabelValues(action, decision).Inc()
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordJob records a verification job outcome.
func RecordJob(jobType, outcome string) {
	VerificationJobs.WithLabelValues(jobType, outcome).Inc()
}
