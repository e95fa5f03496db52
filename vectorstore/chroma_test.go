package vectorstore

import (
	"context"
	"math"
	"strings"
	"testing"

	"mongochat/config"
	"mongochat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// letterEmbedding is a deterministic bag-of-letters embedding.
func letterEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 27)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		} else {
			vec[26]++
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[26], norm = 1, 1
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func newTestStore(t *testing.T) *ContextStore {
	t.Helper()
	s, err := New("", letterEmbedding, 0, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestStoreSchema_IsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := models.SchemaRecord{DBName: "shop", CollectionName: "orders", SampleDocument: `{"total": 10}`}

	require.NoError(t, s.StoreSchema(ctx, rec))
	rec.SampleDocument = `{"total": 12, "status": "paid"}`
	require.NoError(t, s.StoreSchema(ctx, rec))

	assert.Equal(t, 1, s.SchemaCount())

	got, err := s.RetrieveSchemas(ctx, "shop", "orders", 15)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "orders", got[0].CollectionName)
	assert.Contains(t, got[0].SampleDocument, "paid")
}

func TestRetrieveSchemas_FiltersByDatabase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.StoreSchema(ctx, models.SchemaRecord{DBName: "shop", CollectionName: "orders", SampleDocument: `{"a": 1}`}))
	require.NoError(t, s.StoreSchema(ctx, models.SchemaRecord{DBName: "shop", CollectionName: "users", SampleDocument: `{"b": 2}`}))
	require.NoError(t, s.StoreSchema(ctx, models.SchemaRecord{DBName: "crm", CollectionName: "leads", SampleDocument: `{"c": 3}`}))

	got, err := s.RetrieveSchemas(ctx, "shop", "anything", 15)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "shop", r.DBName)
	}
}

func TestRetrieve_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	schemas, err := s.RetrieveSchemas(context.Background(), "shop", "orders", 15)
	require.NoError(t, err)
	assert.Empty(t, schemas)

	history, err := s.RetrieveInteractions(context.Background(), "shop", "orders", 5)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestInteractions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StoreInteraction(ctx, "shop", "sess-1", "how many orders?", "There are 25 orders."))
	require.NoError(t, s.StoreInteraction(ctx, "crm", "sess-1", "list leads", "No leads."))

	got, err := s.RetrieveInteractions(ctx, "shop", "orders count", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "User: how many orders?\nAssistant: There are 25 orders.", got[0])
}

func TestNewEmbeddingFunc(t *testing.T) {
	_, err := NewEmbeddingFunc(config.EmbeddingConfig{Provider: config.EmbeddingOllama, Model: "nomic-embed-text"})
	assert.NoError(t, err)

	_, err = NewEmbeddingFunc(config.EmbeddingConfig{Provider: config.EmbeddingOpenAI, Model: "text-embedding-3-small"})
	assert.Error(t, err)

	_, err = NewEmbeddingFunc(config.EmbeddingConfig{Provider: config.EmbeddingOpenAI, BaseURL: "https://api.openai.com/v1", Model: "text-embedding-3-small"})
	assert.NoError(t, err)

	_, err = NewEmbeddingFunc(config.EmbeddingConfig{Provider: "cohere"})
	assert.Error(t, err)
}
