// Package chat runs chat turns against a connected MongoDB database: schema
// indexing, context retrieval, the two-pass tool loop and bookkeeping.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mongochat/ai"
	"mongochat/cache"
	"mongochat/metrics"
	"mongochat/models"
	"mongochat/service"

	"go.uber.org/zap"
)

// ErrDatabaseUnavailable wraps failures to reach the session database.
var ErrDatabaseUnavailable = errors.New("database unavailable")

// DatabaseProvider hands out database handles for a session's connection.
type DatabaseProvider interface {
	Database(ctx context.Context, uri, dbName string) (service.Database, error)
}

// ContextStore is the vector index of schemas and past interactions.
type ContextStore interface {
	StoreSchema(ctx context.Context, rec models.SchemaRecord) error
	RetrieveSchemas(ctx context.Context, dbName, query string, n int) ([]models.SchemaRecord, error)
	StoreInteraction(ctx context.Context, dbName, sessionID, query, answer string) error
	RetrieveInteractions(ctx context.Context, dbName, query string, n int) ([]string, error)
}

// Auditor records interactions. Implementations must not fail the turn.
type Auditor interface {
	Log(ctx context.Context, entry models.InteractionLog)
}

type Options struct {
	SchemaResults  int
	HistoryResults int
	// IndexTTL bounds how long a database on a given connection counts as indexed
	// for new sessions.
	IndexTTL time.Duration
}

type Service struct {
	dbs     DatabaseProvider
	store   ContextStore
	loop    *Loop
	audit   Auditor
	indexed *cache.Cache
	opts    Options
	log     *zap.Logger
}

// NewService wires the chat service. audit may be nil.
func NewService(dbs DatabaseProvider, store ContextStore, gen Generator, audit Auditor, opts Options, log *zap.Logger) *Service {
	return &Service{
		dbs:     dbs,
		store:   store,
		loop:    NewLoop(gen, log),
		audit:   audit,
		indexed: cache.NewWithTTL(opts.IndexTTL, 10*time.Minute),
		opts:    opts,
		log:     log,
	}
}

// indexedKey scopes the marker to the connection as well as the database, so
// equally named databases on different clusters are indexed separately.
func indexedKey(sess *models.Session) string {
	return "indexed:" + service.Fingerprint(sess.MongoURI) + ":" + sess.DBName
}

// Index extracts the schema of the session database and upserts it into the
// context store. It returns the indexed collection names.
func (s *Service) Index(ctx context.Context, sess *models.Session) ([]string, error) {
	db, err := s.dbs.Database(ctx, sess.MongoURI, sess.DBName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return s.index(ctx, sess, db)
}

func (s *Service) index(ctx context.Context, sess *models.Session, db service.Database) ([]string, error) {
	records, err := service.ExtractSchema(ctx, db, s.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}

	names := make([]string, 0, len(records))
	for _, rec := range records {
		if err := s.store.StoreSchema(ctx, rec); err != nil {
			metrics.RecordIndexedCollections(len(names))
			return names, err
		}
		names = append(names, rec.CollectionName)
	}
	metrics.RecordIndexedCollections(len(names))

	s.indexed.SetDefault(indexedKey(sess), true)
	sess.Indexed = true
	s.log.Info("indexed database schema", zap.String("db", sess.DBName), zap.Int("collections", len(names)))
	return names, nil
}

// ensureIndexed indexes on the first turn of a session unless another session
// already indexed the same database on the same connection recently.
func (s *Service) ensureIndexed(ctx context.Context, sess *models.Session, db service.Database) error {
	if sess.Indexed {
		return nil
	}
	if _, ok := s.indexed.Get(indexedKey(sess)); ok {
		sess.Indexed = true
		return nil
	}
	_, err := s.index(ctx, sess, db)
	return err
}

// Chat runs one turn. The session history is updated in place; the caller
// persists the session.
func (s *Service) Chat(ctx context.Context, sess *models.Session, query, clientIP string) (models.ChatResponse, error) {
	start := time.Now()
	defer metrics.ObserveTurn(start)

	db, err := s.dbs.Database(ctx, sess.MongoURI, sess.DBName)
	if err != nil {
		metrics.RecordChatTurn("error")
		return models.ChatResponse{}, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}

	var warnings []string
	if err := s.ensureIndexed(ctx, sess, db); err != nil {
		s.log.Error("schema indexing failed", zap.String("db", sess.DBName), zap.Error(err))
		warnings = append(warnings, "Schema indexing failed; answers may lack collection context.")
	}

	schemas, err := s.store.RetrieveSchemas(ctx, sess.DBName, query, s.opts.SchemaResults)
	if err != nil {
		s.log.Warn("schema retrieval failed", zap.Error(err))
		warnings = append(warnings, "Schema context could not be retrieved.")
	}
	var past []string
	if s.opts.HistoryResults > 0 {
		past, err = s.store.RetrieveInteractions(ctx, sess.DBName, query, s.opts.HistoryResults)
		if err != nil {
			s.log.Warn("history retrieval failed", zap.Error(err))
		}
	}

	contexts := make([]ai.SchemaContext, 0, len(schemas))
	for _, rec := range schemas {
		contexts = append(contexts, ai.SchemaContext{Collection: rec.CollectionName, Sample: rec.SampleDocument})
	}
	systemPrompt := ai.BuildSystemPrompt(sess.DBName, contexts, past)

	answer, err := s.loop.Run(ctx, systemPrompt, query, sess.History, service.NewExecutor(db, s.log))
	if err != nil {
		metrics.RecordChatTurn("error")
		return models.ChatResponse{}, err
	}
	warnings = append(warnings, answer.Warnings...)

	sess.AppendTurn(models.RoleUser, query)
	sess.AppendTurn(models.RoleAssistant, answer.Text)

	if s.audit != nil {
		s.audit.Log(ctx, models.InteractionLog{
			IPAddress: clientIP,
			SessionID: sess.ID,
			Timestamp: time.Now().UTC(),
			Query:     query,
			Response:  answer.Text,
		})
	}
	if err := s.store.StoreInteraction(ctx, sess.DBName, sess.ID, query, answer.Text); err != nil {
		s.log.Warn("failed to store interaction", zap.Error(err))
	}

	outcome := "direct"
	if answer.ToolUsed {
		outcome = "tool"
	}
	metrics.RecordChatTurn(outcome)

	return models.ChatResponse{
		Success:    true,
		Response:   answer.Text,
		UserQuery:  query,
		ToolUsed:   answer.ToolUsed,
		ToolResult: answer.ToolResult,
		Warnings:   warnings,
	}, nil
}
