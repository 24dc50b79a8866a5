package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const storageCollection = "client_storage"

// Scope keeps one document per key, identified by "<namespace>:<key>".
type Scope struct {
	coll      *mongo.Collection
	namespace string
	now       func() time.Time
}

type storedValue struct {
	ID        string     `bson:"_id"`
	Value     string     `bson:"value"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

func NewScope(db *mongo.Database, namespace string) *Scope {
	return &Scope{coll: db.Collection(storageCollection), namespace: namespace, now: time.Now}
}

func (s *Scope) Get(ctx context.Context, key string) (string, bool, error) {
	var doc storedValue
	err := s.coll.FindOne(ctx, bson.M{"_id": s.id(key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mongo find %s: %w", key, err)
	}
	// The TTL monitor runs about once a minute; don't serve stale keys meanwhile.
	if doc.ExpiresAt != nil && !s.now().Before(*doc.ExpiresAt) {
		return "", false, nil
	}
	return doc.Value, true, nil
}

func (s *Scope) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	doc := storedValue{ID: s.id(key), Value: value}
	if ttl > 0 {
		exp := s.now().Add(ttl).UTC()
		doc.ExpiresAt = &exp
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert %s: %w", key, err)
	}
	return nil
}

func (s *Scope) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = s.id(k)
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

func (s *Scope) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Scope) Close(ctx context.Context) error {
	return s.coll.Database().Client().Disconnect(ctx)
}

func (s *Scope) id(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}
