// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoStore wraps coll. timeout bounds each operation.
func NewMongoStore(coll *mongo.Collection, timeout time.Duration) *MongoStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MongoStore{coll: coll, timeout: timeout}
}

func (s *MongoStore) getContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// CreateIndexes creates the indexes the engine queries on.
func (s *MongoStore) CreateIndexes(ctx context.Context) error {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	_, err := s.coll.Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "registeredAt", Value: -1},
				},
			},
			{
				Keys: bson.D{
					{Key: "lastIp", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "referredBy", Value: 1},
				},
			},
		},
	)
	return err
}

// GetUser implements Store.
func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	var u models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, models.NewStoreUnavailable("users", "get", err)
	}
	return &u, nil
}

// CreateUser implements Store.
func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return &models.ValidationError{Field: "id", Reason: "user id is required"}
	}
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	doc := *user
	if doc.RegisteredAt.IsZero() {
		doc.RegisteredAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s already exists", user.ID)
		}
		return models.NewStoreUnavailable("users", "create", err)
	}
	return nil
}

// UpdateUser implements Store.
func (s *MongoStore) UpdateUser(ctx context.Context, id string, update models.UserUpdate) error {
	set := bson.M{}
	if update.Points != nil {
		set["points"] = *update.Points
	}
	if update.LastIP != nil {
		set["lastIp"] = *update.LastIP
	}
	if update.LastLocation != nil {
		set["lastLocation"] = *update.LastLocation
	}
	if update.LastActiveAt != nil {
		set["lastActiveAt"] = *update.LastActiveAt
	}
	if update.RiskScore != nil {
		set["riskScore"] = models.Clamp01(*update.RiskScore)
	}
	if len(set) == 0 {
		return nil
	}

	ctx, cancel := s.getContext(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return models.NewStoreUnavailable("users", "update", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// BlockUser implements Store. The first block time is preserved.
func (s *MongoStore) BlockUser(ctx context.Context, id string, details models.BlockDetails) error {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"isBlocked":   true,
				"blockReason": details.Reason,
				"blockedBy":   details.BlockedBy,
			},
			"$min": bson.M{"blockedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return models.NewStoreUnavailable("users", "block", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// IsUserBlocked implements Store.
func (s *MongoStore) IsUserBlocked(ctx context.Context, id string) (bool, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	var doc struct {
		IsBlocked bool `bson:"isBlocked"`
	}
	opts := options.FindOne().SetProjection(bson.M{"isBlocked": 1})
	err := s.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, models.NewStoreUnavailable("users", "is_blocked", err)
	}
	return doc.IsBlocked, nil
}

// GetUsersRegisteredRecently implements Store, newest first.
func (s *MongoStore) GetUsersRegisteredRecently(ctx context.Context, window time.Duration) ([]*models.User, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	filter := bson.M{"registeredAt": bson.M{"$gte": time.Now().UTC().Add(-window)}}
	opts := options.Find().SetSort(bson.D{{Key: "registeredAt", Value: -1}})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.NewStoreUnavailable("users", "recent", err)
	}
	defer cur.Close(ctx)

	var out []*models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		out = append(out, &u)
	}
	if err := cur.Err(); err != nil {
		return nil, models.NewStoreUnavailable("users", "recent", err)
	}
	return out, nil
}
