// Package mongostore stores one MongoDB document per link.
//
// Uniqueness of shortCode is enforced by a unique index created at startup,
// so Put never does a read-then-write check: the insert either succeeds or
// fails with a duplicate key error.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sundayezeilo/shorty/internal/store"
)

const shortCodeIndexName = "shortCode_unique"

// collection is the subset of *mongo.Collection the store uses.
type collection interface {
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult
	CountDocuments(ctx context.Context, filter any, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type linkDocument struct {
	ShortCode string    `bson:"shortCode"`
	LongURL   string    `bson:"longUrl"`
	CreatedAt time.Time `bson:"createdAt"`
	Clicks    int64     `bson:"clicks"`
}

// Store is a store.Store backed by a MongoDB collection.
type Store struct {
	coll collection
}

// Connect opens a client for uri and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// New ensures the unique shortCode index on coll and returns a Store using it.
func New(ctx context.Context, coll *mongo.Collection) (*Store, error) {
	const op = "store.mongo.New"

	if err := EnsureIndexes(ctx, coll); err != nil {
		return nil, store.Unavailable(op, err)
	}
	return newStore(coll), nil
}

func newStore(c collection) *Store {
	return &Store{coll: c}
}

// EnsureIndexes creates the unique index on shortCode if it is missing.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shortCode", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(shortCodeIndexName),
	})
	return err
}

func (s *Store) Get(ctx context.Context, code string) (store.Link, error) {
	const op = "store.mongo.Get"

	var doc linkDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "shortCode", Value: code}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Link{}, store.NotFound(op, code)
		}
		return store.Link{}, store.Unavailable(op, err)
	}
	return toLink(doc), nil
}

func (s *Store) Exists(ctx context.Context, code string) (bool, error) {
	const op = "store.mongo.Exists"

	n, err := s.coll.CountDocuments(ctx,
		bson.D{{Key: "shortCode", Value: code}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, store.Unavailable(op, err)
	}
	return n > 0, nil
}

func (s *Store) Put(ctx context.Context, link store.Link) error {
	const op = "store.mongo.Put"

	_, err := s.coll.InsertOne(ctx, linkDocument{
		ShortCode: link.ShortCode,
		LongURL:   link.LongURL,
		CreatedAt: link.CreatedAt.UTC(),
		Clicks:    link.Clicks,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.Duplicate(op, link.ShortCode)
		}
		return store.Unavailable(op, err)
	}
	return nil
}

func (s *Store) IncrementClicks(ctx context.Context, code string) error {
	const op = "store.mongo.IncrementClicks"

	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "shortCode", Value: code}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "clicks", Value: 1}}}},
	)
	if err != nil {
		return store.Unavailable(op, err)
	}
	if res.MatchedCount == 0 {
		return store.NotFound(op, code)
	}
	return nil
}

func toLink(doc linkDocument) store.Link {
	return store.Link{
		ShortCode: doc.ShortCode,
		LongURL:   doc.LongURL,
		CreatedAt: doc.CreatedAt.UTC(),
		Clicks:    doc.Clicks,
	}
}

var _ store.Store = (*Store)(nil)
