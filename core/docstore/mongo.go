package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger-reconciler/core/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// namespaceNotFound is the server code for listIndexes on a missing collection.
const namespaceNotFound = 26

// Mongo is a Gateway backed by a MongoDB database.
type Mongo struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// NewMongo connects to MongoDB and verifies the connection with a ping.
func NewMongo(ctx context.Context, cfg Config) (*Mongo, error) {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeoutDuration).
		SetServerSelectionTimeout(timeoutDuration)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to mongo: %v", ErrUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeoutDuration)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: failed to ping mongo: %v", ErrUnavailable, err)
	}

	return &Mongo{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: timeoutDuration,
	}, nil
}

// Collection returns a handle on the named collection.
func (m *Mongo) Collection(name string) Collection {
	return &mongoCollection{coll: m.db.Collection(name), timeout: m.timeout}
}

// Disconnect closes the underlying client.
func (m *Mongo) Disconnect(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// indexInfo is one entry of listIndexes.
type indexInfo struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique"`
}

func (c *mongoCollection) Name() string {
	return c.coll.Name()
}

func (c *mongoCollection) EnsureIndex(ctx context.Context, fields []string, unique bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	keys := indexKeys(fields)
	want := keySignature(keys)

	existing, err := c.listIndexes(ctx)
	if err != nil {
		return err
	}
	for _, idx := range existing {
		if keySignature(idx.Key) != want {
			continue
		}
		if idx.Unique != unique {
			return fmt.Errorf("%w: %s.%s has unique=%t, expected unique=%t",
				ErrIndexConflict, c.coll.Name(), idx.Name, idx.Unique, unique)
		}
		return nil
	}

	model := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(unique),
	}
	if _, err := c.coll.Indexes().CreateOne(ctx, model); err != nil {
		return classify("create index on "+c.coll.Name(), err)
	}
	return nil
}

func (c *mongoCollection) listIndexes(ctx context.Context) ([]indexInfo, error) {
	cursor, err := c.coll.Indexes().List(ctx)
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == namespaceNotFound {
			return nil, nil
		}
		return nil, classify("list indexes on "+c.coll.Name(), err)
	}

	var existing []indexInfo
	if err := cursor.All(ctx, &existing); err != nil {
		return nil, classify("list indexes on "+c.coll.Name(), err)
	}
	return existing, nil
}

func (c *mongoCollection) Upsert(ctx context.Context, filter Filter, update Update) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.coll.UpdateOne(ctx, bson.M(filter), buildUpdate(update), options.Update().SetUpsert(true))
	if err != nil {
		return nil, classify("upsert into "+c.coll.Name(), err)
	}
	return &Result{Matched: res.MatchedCount, Modified: res.ModifiedCount, Upserted: res.UpsertedCount}, nil
}

func (c *mongoCollection) UpdateIn(ctx context.Context, field string, values []string, update Update) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	filter := bson.M{field: bson.M{"$in": values}}
	res, err := c.coll.UpdateMany(ctx, filter, buildUpdate(update))
	if err != nil {
		return nil, classify("update "+c.coll.Name(), err)
	}
	return &Result{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (c *mongoCollection) FindOne(ctx context.Context, filter Filter) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var doc bson.M
	err := c.coll.FindOne(ctx, bson.M(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("find in "+c.coll.Name(), err)
	}

	delete(doc, "_id")
	return map[string]any(doc), nil
}

// buildUpdate translates an Update into MongoDB update operators.
// Empty operators are omitted because the server rejects them.
func buildUpdate(u Update) bson.M {
	doc := bson.M{}
	if len(u.Set) > 0 {
		doc["$set"] = bson.M(u.Set)
	}
	if len(u.Inc) > 0 {
		inc := bson.M{}
		for name, delta := range u.Inc {
			inc[name] = delta
		}
		doc["$inc"] = inc
	}
	if len(u.SetOnInsert) > 0 {
		doc["$setOnInsert"] = bson.M(u.SetOnInsert)
	}
	if u.CurrentDate != "" {
		doc["$currentDate"] = bson.M{u.CurrentDate: bson.M{"$type": "timestamp"}}
	}
	return doc
}

func indexKeys(fields []string) bson.D {
	keys := make(bson.D, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, bson.E{Key: field, Value: 1})
	}
	return keys
}

// keySignature renders index keys independent of the numeric type the server returns.
func keySignature(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, e := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", e.Key, utils.ToInt(e.Value)))
	}
	return strings.Join(parts, ",")
}

// classify maps driver errors onto the gateway taxonomy.
func classify(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrWriteFailed, op, err)
}
