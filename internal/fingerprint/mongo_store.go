// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

const storeName = "fingerprints"

// MongoStore implements Store and RawScanner on a MongoDB collection.
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

// CreateIndexes creates the unique (hash, userId) index and the indexes
// the collision scan reads through.
func (s *MongoStore) CreateIndexes(ctx context.Context) error {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	_, err := s.coll.Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "hash", Value: 1},
					{Key: "userId", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "lastSeenAt", Value: -1},
				},
			},
			{
				Keys: bson.D{
					{Key: "userId", Value: 1},
				},
			},
		},
	)
	return err
}

// Save implements Store as an upsert on the record ID.
func (s *MongoStore) Save(ctx context.Context, fp *DeviceFingerprint) error {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	doc := *fp
	if doc.ID == "" {
		doc.ID = RecordID(doc.Hash, doc.UserID)
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return models.NewStoreUnavailable(storeName, "save", err)
	}
	return nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, hash, userID string) (*DeviceFingerprint, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	var fp DeviceFingerprint
	err := s.coll.FindOne(ctx, bson.M{"_id": RecordID(hash, userID)}).Decode(&fp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("fingerprint %s: %w", RecordID(hash, userID), models.ErrNotFound)
	}
	if err != nil {
		return nil, models.NewStoreUnavailable(storeName, "get", err)
	}
	return &fp, nil
}

func (s *MongoStore) find(ctx context.Context, op string, filter bson.M, opts ...*options.FindOptions) ([]*DeviceFingerprint, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	sorted := append([]*options.FindOptions{options.Find().SetSort(bson.D{{Key: "lastSeenAt", Value: -1}})}, opts...)
	cur, err := s.coll.Find(ctx, filter, sorted...)
	if err != nil {
		return nil, models.NewStoreUnavailable(storeName, op, err)
	}
	defer cur.Close(ctx)

	var out []*DeviceFingerprint
	for cur.Next(ctx) {
		var fp DeviceFingerprint
		if err := cur.Decode(&fp); err != nil {
			return nil, models.NewStoreUnavailable(storeName, op, fmt.Errorf("failed to decode fingerprint: %w", err))
		}
		out = append(out, &fp)
	}
	if err := cur.Err(); err != nil {
		return nil, models.NewStoreUnavailable(storeName, op, err)
	}
	return out, nil
}

// FindByHash implements Store.
func (s *MongoStore) FindByHash(ctx context.Context, hash string) ([]*DeviceFingerprint, error) {
	return s.find(ctx, "find_by_hash", bson.M{"hash": hash})
}

// FindByUser implements Store.
func (s *MongoStore) FindByUser(ctx context.Context, userID string) ([]*DeviceFingerprint, error) {
	return s.find(ctx, "find_by_user", bson.M{"userId": userID})
}

// All implements Store.
func (s *MongoStore) All(ctx context.Context) ([]*DeviceFingerprint, error) {
	return s.find(ctx, "all", bson.M{})
}

// Recent implements Store.
func (s *MongoStore) Recent(ctx context.Context, days int) ([]*DeviceFingerprint, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	return s.find(ctx, "recent", bson.M{"lastSeenAt": bson.M{"$gte": cutoff}})
}

// Count implements Store.
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	n, err := s.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, models.NewStoreUnavailable(storeName, "count", err)
	}
	return n, nil
}

// Touch implements Store in one findOneAndUpdate.
func (s *MongoStore) Touch(ctx context.Context, hash, userID string, update TouchUpdate) (*DeviceFingerprint, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	change := bson.M{
		"$set": bson.M{
			"lastSeenAt":            update.SeenAt,
			"riskScore":             update.RiskScore,
			"quality":               update.Quality,
			"components.network":    update.Network,
			"components.behavioral": update.Behavioral,
		},
		"$inc": bson.M{"usageCount": 1},
		"$push": bson.M{
			"metadata.verificationHistory": VerificationEvent{Type: EventSeen, Timestamp: update.SeenAt},
		},
	}
	if len(update.RiskFactors) > 0 {
		change["$push"].(bson.M)["metadata.riskFactors"] = bson.M{"$each": update.RiskFactors}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var fp DeviceFingerprint
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": RecordID(hash, userID)}, change, opts).Decode(&fp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("fingerprint %s: %w", RecordID(hash, userID), models.ErrNotFound)
	}
	if err != nil {
		return nil, models.NewStoreUnavailable(storeName, "touch", err)
	}
	return &fp, nil
}

// RecordCollision implements Store. The pipeline update unions the set
// and recomputes the count server-side; the pre-image tells how many
// entries were new.
func (s *MongoStore) RecordCollision(ctx context.Context, hash, userID string, similar []string) (int, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	if similar == nil {
		similar = []string{}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"metadata.similarDevices": bson.M{"$setUnion": bson.A{
				bson.M{"$ifNull": bson.A{"$metadata.similarDevices", bson.A{}}},
				similar,
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"metadata.collisionCount": bson.M{"$size": "$metadata.similarDevices"},
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"metadata.similarDevices": 1})

	var before struct {
		Metadata struct {
			SimilarDevices []string `bson:"similarDevices"`
		} `bson:"metadata"`
	}
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": RecordID(hash, userID)}, pipeline, opts).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("fingerprint %s: %w", RecordID(hash, userID), models.ErrNotFound)
	}
	if err != nil {
		return 0, models.NewStoreUnavailable(storeName, "record_collision", err)
	}

	merged := unionStrings(before.Metadata.SimilarDevices, similar)
	return len(merged) - len(unionStrings(before.Metadata.SimilarDevices, nil)), nil
}

// AppendVerification implements Store.
func (s *MongoStore) AppendVerification(ctx context.Context, hash, userID string, event VerificationEvent) error {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": RecordID(hash, userID)},
		bson.M{"$push": bson.M{"metadata.verificationHistory": event}},
	)
	if err != nil {
		return models.NewStoreUnavailable(storeName, "append_verification", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("fingerprint %s: %w", RecordID(hash, userID), models.ErrNotFound)
	}
	return nil
}

// MarkBlocked implements Store.
func (s *MongoStore) MarkBlocked(ctx context.Context, hash string) (int, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	res, err := s.coll.UpdateMany(ctx,
		bson.M{"hash": hash, "isBlocked": bson.M{"$ne": true}},
		bson.M{
			"$set":  bson.M{"isBlocked": true},
			"$push": bson.M{"metadata.verificationHistory": VerificationEvent{Type: EventBlocked, Timestamp: time.Now().UTC()}},
		},
	)
	if err != nil {
		return 0, models.NewStoreUnavailable(storeName, "mark_blocked", err)
	}
	return int(res.ModifiedCount), nil
}

// ScanRaw implements RawScanner. Documents are decoded field by field and
// records that cannot supply a hash and user are skipped, so one legacy or
// corrupt document does not sink the scan.
func (s *MongoStore) ScanRaw(ctx context.Context, limit int) ([]*DeviceFingerprint, error) {
	ctx, cancel := s.getContext(ctx)
	defer cancel()

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, models.NewStoreUnavailable(storeName, "scan_raw", err)
	}
	defer cur.Close(ctx)

	var out []*DeviceFingerprint
	skipped := 0
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			skipped++
			continue
		}
		fp, ok := decodeLenient(doc)
		if !ok {
			skipped++
			continue
		}
		out = append(out, fp)
	}
	if err := cur.Err(); err != nil {
		return out, models.NewStoreUnavailable(storeName, "scan_raw", err)
	}
	if skipped > 0 {
		logging.Warn().Int("skipped", skipped).Int("decoded", len(out)).Msg("Raw fingerprint scan skipped unreadable documents")
	}
	return out, nil
}

func decodeLenient(doc bson.M) (*DeviceFingerprint, bool) {
	hash, _ := doc["hash"].(string)
	userID, _ := doc["userId"].(string)
	if hash == "" || userID == "" {
		return nil, false
	}

	fp := &DeviceFingerprint{
		ID:     RecordID(hash, userID),
		Hash:   hash,
		UserID: userID,
	}
	if raw, ok := doc["components"]; ok {
		if data, err := bson.Marshal(raw); err == nil {
			// A partially decoded bundle still carries enough to compare.
			_ = bson.Unmarshal(data, &fp.Components)
		}
	}
	if v, ok := doc["lastSeenAt"].(primitive.DateTime); ok {
		fp.LastSeenAt = v.Time()
	}
	return fp, true
}
