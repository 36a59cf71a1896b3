// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps windows in a MongoDB collection. Increment is a single
// FindOneAndUpdate whose pipeline update decides between reset and
// increment on the server, so concurrent callers cannot interleave.
type MongoStore struct {
	coll    *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

// NewMongoStore wraps coll. timeout bounds each operation.
func NewMongoStore(coll *mongo.Collection, timeout time.Duration) *MongoStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MongoStore{coll: coll, timeout: timeout, now: time.Now}
}

func (s *MongoStore) getContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Name implements Store.
func (s *MongoStore) Name() string { return "mongo" }

// CreateIndexes creates the TTL index that lets MongoDB drop elapsed
// windows on its own.
func (s *MongoStore) CreateIndexes(ctx context.Context) error {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expireAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, key string) (State, bool, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	var st State
	filter := bson.M{"_id": key, "resetTime": bson.M{"$gt": s.now().UTC()}}
	err := s.coll.FindOne(ctx, filter).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("get rate limit %s: %w", key, err)
	}
	return st, true, nil
}

// Set implements Store.
func (s *MongoStore) Set(ctx context.Context, key string, state State) error {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	doc := bson.M{
		"_id":       key,
		"count":     state.Count,
		"resetTime": state.ResetTime.UTC(),
		"expireAt":  state.ResetTime.UTC(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set rate limit %s: %w", key, err)
	}
	return nil
}

// Increment implements Store.
func (s *MongoStore) Increment(ctx context.Context, key string, window time.Duration) (State, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	now := s.now().UTC()
	elapsed := bson.M{"$lte": bson.A{bson.M{"$ifNull": bson.A{"$resetTime", time.Time{}}}, now}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"count":     bson.M{"$cond": bson.A{elapsed, 1, bson.M{"$add": bson.A{"$count", 1}}}},
			"resetTime": bson.M{"$cond": bson.A{elapsed, now.Add(window), "$resetTime"}},
		}}},
		{{Key: "$set", Value: bson.M{"expireAt": "$resetTime"}}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var st State
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": key}, pipeline, opts).Decode(&st)
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced on a new key; the loser retries as an update.
		err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": key}, pipeline, opts).Decode(&st)
	}
	if err != nil {
		return State{}, fmt.Errorf("increment rate limit %s: %w", key, err)
	}
	return st, nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete rate limit %s: %w", key, err)
	}
	return nil
}

// Cleanup implements Store. The TTL monitor runs about once a minute, so
// this removes anything it has not reached yet.
func (s *MongoStore) Cleanup(ctx context.Context) (int, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	res, err := s.coll.DeleteMany(ctx, bson.M{"resetTime": bson.M{"$lte": s.now().UTC()}})
	if err != nil {
		return 0, fmt.Errorf("cleanup rate limits: %w", err)
	}
	return int(res.DeletedCount), nil
}
