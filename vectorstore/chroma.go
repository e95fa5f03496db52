// Package vectorstore keeps collection schemas and past chat interactions in a
// chromem-go vector index for retrieval-augmented prompting.
package vectorstore

import (
	"context"
	"fmt"
	"time"

	"mongochat/config"
	"mongochat/models"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

const (
	SchemaCollection  = "mongo_schema_metadata"
	HistoryCollection = "mongo_chat_history"
)

// ContextStore wraps the two chromem collections used by the chat service.
type ContextStore struct {
	schemas *chromem.Collection
	history *chromem.Collection
	timeout time.Duration
	log     *zap.Logger
}

// NewEmbeddingFunc picks the embedding backend from configuration.
func NewEmbeddingFunc(cfg config.EmbeddingConfig) (chromem.EmbeddingFunc, error) {
	switch cfg.Provider {
	case config.EmbeddingOllama:
		return chromem.NewEmbeddingFuncOllama(cfg.Model, cfg.BaseURL), nil
	case config.EmbeddingOpenAI:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("EMBEDDING_BASE_URL is required for provider %q", cfg.Provider)
		}
		return chromem.NewEmbeddingFuncOpenAICompat(cfg.BaseURL, cfg.APIKey, cfg.Model, nil), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
	}
}

// New opens a persistent index at path, or an in-memory one when path is
// empty.
func New(path string, embed chromem.EmbeddingFunc, timeout time.Duration, log *zap.Logger) (*ContextStore, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, true)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector store at %s: %w", path, err)
		}
	}

	schemas, err := db.GetOrCreateCollection(SchemaCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", SchemaCollection, err)
	}
	history, err := db.GetOrCreateCollection(HistoryCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", HistoryCollection, err)
	}

	log.Info("vector store ready",
		zap.String("path", path),
		zap.Int("schemas", schemas.Count()),
		zap.Int("interactions", history.Count()))

	return &ContextStore{schemas: schemas, history: history, timeout: timeout, log: log}, nil
}

func (s *ContextStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// StoreSchema upserts the schema record under "<db>_<collection>".
func (s *ContextStore) StoreSchema(ctx context.Context, rec models.SchemaRecord) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id := rec.DBName + "_" + rec.CollectionName
	s.log.Debug("storing schema", zap.String("id", id))

	err := s.schemas.AddDocument(ctx, chromem.Document{
		ID:      id,
		Content: rec.SampleDocument,
		Metadata: map[string]string{
			"db_name":         rec.DBName,
			"collection_name": rec.CollectionName,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to store schema %s: %w", id, err)
	}
	return nil
}

// RetrieveSchemas returns up to n schema records of dbName most similar to
// query.
func (s *ContextStore) RetrieveSchemas(ctx context.Context, dbName, query string, n int) ([]models.SchemaRecord, error) {
	results, err := s.query(ctx, s.schemas, dbName, query, n)
	if err != nil {
		return nil, err
	}
	records := make([]models.SchemaRecord, 0, len(results))
	for _, r := range results {
		records = append(records, models.SchemaRecord{
			DBName:         r.Metadata["db_name"],
			CollectionName: r.Metadata["collection_name"],
			SampleDocument: r.Content,
		})
	}
	s.log.Debug("retrieved schema context", zap.String("db", dbName), zap.Int("found", len(records)))
	return records, nil
}

// StoreInteraction records a question/answer pair for later retrieval.
func (s *ContextStore) StoreInteraction(ctx context.Context, dbName, sessionID, query, answer string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id := uuid.New().String()
	err := s.history.AddDocument(ctx, chromem.Document{
		ID:      id,
		Content: fmt.Sprintf("User: %s\nAssistant: %s", query, answer),
		Metadata: map[string]string{
			"db_name":    dbName,
			"session_id": sessionID,
			"type":       "chat_history",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to store interaction: %w", err)
	}
	s.log.Debug("stored chat interaction", zap.String("id", id))
	return nil
}

// RetrieveInteractions returns up to n past interactions on dbName similar
// to query.
func (s *ContextStore) RetrieveInteractions(ctx context.Context, dbName, query string, n int) ([]string, error) {
	results, err := s.query(ctx, s.history, dbName, query, n)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Content)
	}
	s.log.Debug("retrieved history context", zap.String("db", dbName), zap.Int("found", len(texts)))
	return texts, nil
}

// query clamps n to the collection size since chromem rejects larger values.
func (s *ContextStore) query(ctx context.Context, c *chromem.Collection, dbName, query string, n int) ([]chromem.Result, error) {
	if count := c.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	results, err := c.Query(ctx, query, n, map[string]string{"db_name": dbName}, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query on %s failed: %w", c.Name, err)
	}
	return results, nil
}

// SchemaCount reports the number of stored schema records across databases.
func (s *ContextStore) SchemaCount() int {
	return s.schemas.Count()
}
