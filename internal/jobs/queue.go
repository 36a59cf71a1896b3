// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/cache"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
)

// Topics used on the in-process pub/sub.
const (
	TopicCollisionScan       = "verification.collision_scan"
	TopicCollisionScanPoison = "verification.collision_scan.poison"
)

const (
	jobCollisionScan = "collision_scan"

	// metadataScanKey carries the dedup key of a scan message.
	metadataScanKey = "scan_key"

	dedupCapacity = 50000
)

// ErrNotRunning is returned by Enqueue before the router has started or
// after it closed. The in-process pub/sub drops messages nobody subscribes
// to, so the caller must fall back to doing the work inline.
var ErrNotRunning = errors.New("verification queue is not running")

// Scanner runs one fuzzy collision scan.
type Scanner interface {
	RunCollisionScan(ctx context.Context, req fingerprint.ScanRequest) (*fingerprint.CollisionResult, error)
}

// Queue is the background verification queue. It implements
// fingerprint.Enqueuer.
type Queue struct {
	cfg     config.JobsConfig
	pubsub  *gochannel.GoChannel
	router  *message.Router
	scanner Scanner
	dedup   *cache.DedupCache
	running atomic.Bool
}

var _ fingerprint.Enqueuer = (*Queue)(nil)

// NewQueue builds the router and registers the scan handlers. Call Run to
// start processing.
func NewQueue(cfg config.JobsConfig, scanner Scanner) (*Queue, error) {
	cfg = withDefaults(cfg)
	logger := watermill.NewSlogLogger(slog.New(logging.NewSlogHandler()))

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	q := &Queue{
		cfg:     cfg,
		pubsub:  pubsub,
		router:  router,
		scanner: scanner,
		dedup:   cache.NewDedupCache(dedupCapacity, cfg.DedupTTL),
	}

	// Outermost first. Failures that survive every retry are poisoned and
	// acked. Duplicates are dropped before any retry. Panics become retryable
	// errors.
	poison, err := middleware.PoisonQueue(pubsub, TopicCollisionScanPoison)
	if err != nil {
		return nil, fmt.Errorf("create poison queue middleware: %w", err)
	}
	dedup := middleware.Deduplicator{
		KeyFactory: scanKeyOf,
		Repository: dedupRepository{cache: q.dedup},
	}
	retry := middleware.Retry{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryInitialInterval * 30,
		Multiplier:      2.0,
		Logger:          logger,
	}

	scans := router.AddConsumerHandler("collision_scan", TopicCollisionScan, pubsub, q.handleCollisionScan)
	scans.AddMiddleware(poison, dedup.Middleware, retry.Middleware, middleware.Recoverer)

	// Poisoned messages keep their scan key, so they must not pass the
	// deduplicator.
	poisoned := router.AddConsumerHandler("collision_scan_poison", TopicCollisionScanPoison, pubsub, q.handlePoisoned)
	poisoned.AddMiddleware(middleware.Recoverer)

	return q, nil
}

func withDefaults(cfg config.JobsConfig) config.JobsConfig {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = time.Second
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 30 * time.Second
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 10 * time.Minute
	}
	return cfg
}

// Run processes messages until ctx is canceled or Close is called.
func (q *Queue) Run(ctx context.Context) error {
	go func() {
		select {
		case <-q.router.Running():
			q.running.Store(true)
			logging.Info().Msg("Verification queue running")
		case <-ctx.Done():
		}
	}()

	err := q.router.Run(ctx)
	q.running.Store(false)
	return err
}

// Running returns a channel closed once handlers are subscribed.
func (q *Queue) Running() <-chan struct{} {
	return q.router.Running()
}

// IsRunning reports whether Enqueue currently accepts work.
func (q *Queue) IsRunning() bool {
	return q.running.Load()
}

// Close stops the router, waiting up to the configured close timeout for
// in-flight scans, then closes the pub/sub.
func (q *Queue) Close() error {
	q.running.Store(false)
	return errors.Join(q.router.Close(), q.pubsub.Close())
}

// EnqueueCollisionScan implements fingerprint.Enqueuer.
func (q *Queue) EnqueueCollisionScan(ctx context.Context, req fingerprint.ScanRequest) error {
	if !q.running.Load() {
		return ErrNotRunning
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal scan request: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataScanKey, fingerprint.RecordID(req.Hash, req.UserID))
	if err := q.pubsub.Publish(TopicCollisionScan, msg); err != nil {
		return fmt.Errorf("publish scan request: %w", err)
	}

	metrics.RecordJob(jobCollisionScan, "enqueued")
	logging.Ctx(ctx).Debug().
		Str("device_hash", logging.HashPrefix(req.Hash)).
		Str("user_id", logging.SanitizeUserID(req.UserID)).
		Msg("Collision scan enqueued")
	return nil
}

func (q *Queue) handleCollisionScan(msg *message.Message) error {
	var req fingerprint.ScanRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		// A malformed payload will never succeed; ack it.
		metrics.RecordJob(jobCollisionScan, "failed")
		logging.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed collision scan message")
		return nil
	}

	result, err := q.scanner.RunCollisionScan(msg.Context(), req)
	if err != nil {
		return fmt.Errorf("collision scan %s: %w", logging.HashPrefix(req.Hash), err)
	}

	metrics.RecordJob(jobCollisionScan, "processed")
	logging.Debug().
		Str("device_hash", logging.HashPrefix(req.Hash)).
		Str("user_id", logging.SanitizeUserID(req.UserID)).
		Str("risk_level", string(result.RiskLevel)).
		Int("colliding_users", len(result.CollidingUsers)).
		Msg("Collision scan completed")
	return nil
}

func (q *Queue) handlePoisoned(msg *message.Message) error {
	key := msg.Metadata.Get(metadataScanKey)
	q.dedup.Forget(key)

	metrics.RecordJob(jobCollisionScan, "failed")
	logging.Error().
		Str("scan_key", key).
		Str("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)).
		Msg("Collision scan failed after retries")
	return nil
}

func scanKeyOf(msg *message.Message) (string, error) {
	key := msg.Metadata.Get(metadataScanKey)
	if key == "" {
		return msg.UUID, nil
	}
	return key, nil
}

// dedupRepository adapts cache.DedupCache to the Watermill deduplicator.
type dedupRepository struct {
	cache *cache.DedupCache
}

func (r dedupRepository) IsDuplicate(_ context.Context, key string) (bool, error) {
	if r.cache.IsDuplicate(key) {
		metrics.RecordJob(jobCollisionScan, "duplicate")
		return true, nil
	}
	return false, nil
}
