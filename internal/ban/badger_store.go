// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package ban

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

const (
	banKeyPrefix = "ban:"

	// maxConflictRetries bounds optimistic transaction retries in Update.
	maxConflictRetries = 8
)

// BadgerStore implements Store on BadgerDB. Temporary bans carry a TTL so
// Badger drops them on its own once they expire; the service still checks
// ExpiresAt because TTL granularity is one second.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time

	// updateMu serializes read-modify-write cycles in this process; the
	// conflict retry covers writers that bypass Update.
	updateMu sync.Mutex
}

// OpenBadger opens a BadgerDB at dir.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return db, nil
}

// NewBadgerStore wraps an open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now}
}

func banKey(hash string) []byte {
	return []byte(banKeyPrefix + hash)
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, hash string) (*BannedDevice, error) {
	var ban BannedDevice
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(banKey(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ban)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("ban %s: %w", hash, models.ErrNotFound)
	}
	if err != nil {
		return nil, models.NewStoreUnavailable("bans", "get", err)
	}
	return &ban, nil
}

// Put implements Store.
func (s *BadgerStore) Put(ctx context.Context, ban *BannedDevice) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return s.setInTxn(txn, ban)
	})
	if err != nil {
		return models.NewStoreUnavailable("bans", "put", err)
	}
	return nil
}

func (s *BadgerStore) setInTxn(txn *badger.Txn, ban *BannedDevice) error {
	data, err := json.Marshal(ban)
	if err != nil {
		return fmt.Errorf("marshal ban: %w", err)
	}
	entry := badger.NewEntry(banKey(ban.DeviceHash), data)
	if ban.ExpiresAt != nil {
		ttl := ban.ExpiresAt.Sub(s.now())
		if ttl < time.Second {
			ttl = time.Second
		}
		entry = entry.WithTTL(ttl)
	}
	return txn.SetEntry(entry)
}

// Delete implements Store.
func (s *BadgerStore) Delete(ctx context.Context, hash string) (bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(banKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(banKey(hash))
	})
	if err != nil {
		return false, models.NewStoreUnavailable("bans", "delete", err)
	}
	return existed, nil
}

// List implements Store, oldest ban first.
func (s *BadgerStore) List(ctx context.Context) ([]*BannedDevice, error) {
	var out []*BannedDevice
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(banKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var ban BannedDevice
				if err := json.Unmarshal(val, &ban); err != nil {
					logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping unreadable ban record")
					return nil
				}
				out = append(out, &ban)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, models.NewStoreUnavailable("bans", "list", err)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].BannedAt.Before(out[j].BannedAt)
	})
	return out, nil
}

// Update implements Store with an optimistic transaction, retried on
// badger.ErrConflict so concurrent bans of one hash merge instead of
// failing. Errors returned by fn are passed through unwrapped.
func (s *BadgerStore) Update(ctx context.Context, hash string, fn UpdateFunc) (*BannedDevice, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	var result *BannedDevice
	var fnErr error
	var err error

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		fnErr = nil
		err = s.db.Update(func(txn *badger.Txn) error {
			current, getErr := s.getInTxn(txn, hash)
			if getErr != nil {
				return getErr
			}

			next, err := fn(current)
			if err != nil {
				fnErr = err
				return err
			}
			result = next
			if next == nil {
				if current == nil {
					return nil
				}
				return txn.Delete(banKey(hash))
			}
			return s.setInTxn(txn, next)
		})

		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		logging.Debug().Str("device_hash", logging.HashPrefix(hash)).Int("attempt", attempt+1).Msg("Ban update conflict, retrying")
	}

	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, models.NewStoreUnavailable("bans", "update", err)
	}
	return result, nil
}

func (s *BadgerStore) getInTxn(txn *badger.Txn, hash string) (*BannedDevice, error) {
	item, err := txn.Get(banKey(hash))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ban BannedDevice
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &ban)
	}); err != nil {
		return nil, err
	}
	return &ban, nil
}
