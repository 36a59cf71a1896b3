// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/metrics"
)

// Config holds configuration for the audit logger.
type Config struct {
	// BufferSize is the size of the async write buffer.
	BufferSize int

	// Retention is how long entries are kept by Cleanup.
	Retention time.Duration

	// WriteTimeout bounds a single store write.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:   1024,
		Retention:    90 * 24 * time.Hour,
		WriteTimeout: 5 * time.Second,
	}
}

// Logger is an asynchronous Sink in front of a Store. Writes never block
// the caller: when the buffer is full the entry is dropped with a warning.
// Reads go straight to the store.
type Logger struct {
	config  Config
	store   Store
	entries chan *Entry

	closeOnce sync.Once
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewLogger creates an audit logger and starts its writer.
func NewLogger(store Store, config Config) *Logger {
	defaults := DefaultConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.Retention <= 0 {
		config.Retention = defaults.Retention
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}

	l := &Logger{
		config:   config,
		store:    store,
		entries:  make(chan *Entry, config.BufferSize),
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// SaveSecurityAuditLog implements Sink. It only fails when ctx is done.
func (l *Logger) SaveSecurityAuditLog(ctx context.Context, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepareEntry(entry)

	select {
	case l.entries <- entry:
	default:
		metrics.AuditEventsDropped.Inc()
		logging.Warn().
			Str("entry_id", entry.ID).
			Str("type", string(entry.Type)).
			Msg("Audit buffer full, dropping entry")
	}
	return nil
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			// Drain remaining entries
			for {
				select {
				case entry := <-l.entries:
					l.write(entry)
				default:
					return
				}
			}
		case entry := <-l.entries:
			l.write(entry)
		}
	}
}

func (l *Logger) write(entry *Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), l.config.WriteTimeout)
	defer cancel()

	if err := l.store.Save(ctx, entry); err != nil {
		logging.Error().Err(err).
			Str("entry_id", entry.ID).
			Str("type", string(entry.Type)).
			Msg("Failed to save audit entry")
		return
	}
	metrics.AuditEventsWritten.WithLabelValues(string(entry.Type)).Inc()
}

// Close flushes buffered entries and stops the writer.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()
	return nil
}

// Cleanup deletes entries older than the retention window.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-l.config.Retention)
	count, err := l.store.Delete(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logging.Info().Int64("count", count).Msg("Cleaned up old audit entries")
	}
	return count, nil
}

// Get retrieves an entry by ID.
func (l *Logger) Get(ctx context.Context, id string) (*Entry, error) {
	return l.store.Get(ctx, id)
}

// Query retrieves entries matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of entries matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// prepareEntry fills ID and timestamp when unset.
func prepareEntry(entry *Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Severity == "" {
		entry.Severity = SeverityInfo
	}
}
