package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mongochat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Database is the read-only surface of a MongoDB database used by schema
// extraction and the query executor.
type Database interface {
	Name() string
	ListCollectionNames(ctx context.Context) ([]string, error)
	SampleDocument(ctx context.Context, collection string) (bson.M, error)
	Find(ctx context.Context, collection string, filter bson.D, limit int64) ([]bson.M, error)
	Aggregate(ctx context.Context, collection string, pipeline []bson.D, maxDocs int) ([]bson.M, error)
	Count(ctx context.Context, collection string, filter bson.D) (int64, error)
	Distinct(ctx context.Context, collection, field string, filter bson.D) ([]interface{}, error)
}

// MongoDatabase implements Database on top of the official driver. Every call
// runs under its own timeout.
type MongoDatabase struct {
	db      *mongo.Database
	timeout time.Duration
	log     *zap.Logger
}

func NewMongoDatabase(db *mongo.Database, timeout time.Duration, log *zap.Logger) *MongoDatabase {
	return &MongoDatabase{db: db, timeout: timeout, log: log}
}

func (m *MongoDatabase) Name() string {
	return m.db.Name()
}

func (m *MongoDatabase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

func (m *MongoDatabase) ListCollectionNames(ctx context.Context) ([]string, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	names, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		m.log.Error("failed to list collection names", zap.String("db", m.db.Name()), zap.Error(err))
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	m.log.Debug("retrieved collections", zap.Int("count", len(names)), zap.Strings("collections", names))
	return names, nil
}

// SampleDocument returns one document of the collection, or nil when the
// collection is empty.
func (m *MongoDatabase) SampleDocument(ctx context.Context, collection string) (bson.M, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	var doc bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.D{}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", collection, err)
	}
	return doc, nil
}

func (m *MongoDatabase) Find(ctx context.Context, collection string, filter bson.D, limit int64) ([]bson.M, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	cur, err := m.db.Collection(collection).Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *MongoDatabase) Aggregate(ctx context.Context, collection string, pipeline []bson.D, maxDocs int) ([]bson.M, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	cur, err := m.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.M
	for len(docs) < maxDocs && cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, cur.Err()
}

func (m *MongoDatabase) Count(ctx context.Context, collection string, filter bson.D) (int64, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.db.Collection(collection).CountDocuments(ctx, filter)
}

func (m *MongoDatabase) Distinct(ctx context.Context, collection, field string, filter bson.D) ([]interface{}, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.db.Collection(collection).Distinct(ctx, field, filter)
}

// ExtractSchema samples one document per collection, strips _id and returns
// one SchemaRecord per collection. A collection whose sample cannot be read is
// recorded as "{}".
func ExtractSchema(ctx context.Context, db Database, log *zap.Logger) ([]models.SchemaRecord, error) {
	log.Info("extracting schema info", zap.String("db", db.Name()))

	names, err := db.ListCollectionNames(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.SchemaRecord, 0, len(names))
	for _, name := range names {
		sample := "{}"
		doc, err := db.SampleDocument(ctx, name)
		switch {
		case err != nil:
			log.Error("error fetching sample", zap.String("collection", name), zap.Error(err))
		case doc == nil:
			log.Warn("no documents found in collection", zap.String("collection", name))
		default:
			delete(doc, "_id")
			if encoded, err := MarshalDocument(doc); err == nil {
				sample = encoded
			} else {
				log.Error("failed to serialize sample", zap.String("collection", name), zap.Error(err))
			}
		}
		records = append(records, models.SchemaRecord{
			DBName:         db.Name(),
			CollectionName: name,
			SampleDocument: sample,
		})
	}
	return records, nil
}
