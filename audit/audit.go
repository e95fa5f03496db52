// Package audit persists every chat interaction to a MongoDB collection and
// serves per-IP history lookups.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mongochat/logger"
	"mongochat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

const (
	CollectionName  = "chat_logs"
	DefaultDatabase = "mongochat"
	MaxHistory      = 50
)

// collection is the subset of *mongo.Collection the logger needs.
type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

type Logger struct {
	client  *mongo.Client
	coll    collection
	timeout time.Duration
	log     *zap.Logger
}

// Connect opens the audit store named by uri. The database comes from the
// URI path, falling back to DefaultDatabase.
func Connect(ctx context.Context, uri string, timeout time.Duration, log *zap.Logger) (*Logger, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid MONGO_LOGS_URI: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect audit store: %w", err)
	}

	log.Info("audit logger initialized",
		zap.String("host", logger.RedactURI(uri)),
		zap.String("db", dbName),
		zap.String("collection", CollectionName))

	l := newLogger(client.Database(dbName).Collection(CollectionName), timeout, log)
	l.client = client
	return l, nil
}

func newLogger(coll collection, timeout time.Duration, log *zap.Logger) *Logger {
	return &Logger{coll: coll, timeout: timeout, log: log}
}

func (l *Logger) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.timeout)
}

// Log inserts one interaction. Failures are logged and swallowed.
func (l *Logger) Log(ctx context.Context, entry models.InteractionLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	res, err := l.coll.InsertOne(ctx, entry)
	if err != nil {
		l.log.Error("failed to persist interaction", zap.String("session_id", entry.SessionID), zap.Error(err))
		return
	}
	l.log.Info("interaction persisted", zap.Any("id", res.InsertedID))
}

// HistoryByIP returns the newest interactions recorded for ip. limit is
// capped at MaxHistory.
func (l *Logger) HistoryByIP(ctx context.Context, ip string, limit int) ([]models.InteractionLog, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := l.coll.Find(ctx, bson.D{{Key: "ip_address", Value: strings.TrimSpace(ip)}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	entries := []models.InteractionLog{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	l.log.Debug("retrieved interaction history", zap.Int("count", len(entries)))
	return entries, nil
}

func (l *Logger) Close(ctx context.Context) error {
	if l.client == nil {
		return nil
	}
	return l.client.Disconnect(ctx)
}
