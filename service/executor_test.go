package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExecutor(t *testing.T) (*Executor, *fakeDatabase) {
	t.Helper()
	db := newFakeDatabase("shop")
	db.collections["orders"] = makeDocs(25)
	db.collections["users"] = makeDocs(3)
	return NewExecutor(db, zap.NewNop()), db
}

func limitPtr(n float64) *float64 { return &n }

func TestExecute_FindClampsLimit(t *testing.T) {
	exec, db := newTestExecutor(t)

	res := exec.Execute(context.Background(), Descriptor{
		Collection: "orders",
		Action:     ActionFind,
		Query:      json.RawMessage(`{}`),
		Limit:      limitPtr(1000),
	})

	require.True(t, res.OK(), res.Text())
	assert.Equal(t, int64(MaxFindLimit), db.lastLimit)
	assert.True(t, strings.HasPrefix(res.Output, "Found 20 documents"))

	var docs []map[string]interface{}
	body := res.Output[strings.Index(res.Output, "\n")+1:]
	require.NoError(t, json.Unmarshal([]byte(body), &docs))
	assert.Len(t, docs, 20)
}

func TestExecute_FindDefaultLimit(t *testing.T) {
	exec, db := newTestExecutor(t)

	res := exec.Execute(context.Background(), Descriptor{Collection: "orders", Action: ActionFind})

	require.True(t, res.OK())
	assert.Equal(t, int64(DefaultFindLimit), db.lastLimit)
	assert.Contains(t, res.Output, "Found 10 documents")
}

func TestExecute_UnknownCollectionRunsNoQuery(t *testing.T) {
	exec, db := newTestExecutor(t)

	res := exec.Execute(context.Background(), Descriptor{Collection: "nonexistent", Action: ActionFind})

	require.False(t, res.OK())
	assert.Equal(t, KindUnknownCollection, res.Err.Kind)
	assert.Contains(t, res.Text(), "nonexistent")
	assert.Zero(t, db.queries)
}

func TestExecute_MissingCollection(t *testing.T) {
	exec, db := newTestExecutor(t)

	res := exec.Execute(context.Background(), Descriptor{Action: ActionCount})

	require.False(t, res.OK())
	assert.Equal(t, KindMissingCollection, res.Err.Kind)
	assert.Zero(t, db.queries)
}

func TestExecute_ListCollectionsFails(t *testing.T) {
	exec, db := newTestExecutor(t)
	db.listErr = errBoom

	res := exec.Execute(context.Background(), Descriptor{Collection: "orders", Action: ActionCount})

	require.False(t, res.OK())
	assert.Equal(t, KindDatabase, res.Err.Kind)
	assert.ErrorIs(t, res.Err, errBoom)
}

func TestExecute_Count(t *testing.T) {
	exec, _ := newTestExecutor(t)

	res := exec.Execute(context.Background(), Descriptor{
		Collection: "users",
		Action:     ActionCount,
		Query:      json.RawMessage(`{"status": "active"}`),
	})

	require.True(t, res.OK())
	assert.Equal(t, "Count: 3", res.Output)
}

func TestExecute_AggregateRejectsWriteStages(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"out", `[{"$match": {}}, {"$out": "copy"}]`},
		{"merge", `[{"$merge": {"into": "copy"}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, db := newTestExecutor(t)

			res := exec.Execute(context.Background(), Descriptor{
				Collection: "orders",
				Action:     ActionAggregate,
				Query:      json.RawMessage(tt.query),
			})

			require.False(t, res.OK())
			assert.Equal(t, KindForbiddenStage, res.Err.Kind)
			assert.Zero(t, db.queries)
		})
	}
}

func TestExecute_AggregateCapsResults(t *testing.T) {
	exec, db := newTestExecutor(t)

	res := exec.Execute(context.Background(), Descriptor{
		Collection: "orders",
		Action:     ActionAggregate,
		Query:      json.RawMessage(`[{"$match": {"n": {"$gte": 0}}}, {"$sort": {"n": -1, "name": 1}}]`),
	})

	require.True(t, res.OK(), res.Text())
	assert.Contains(t, res.Output, "Aggregation returned 20 documents")
	require.Len(t, db.lastPipe, 2)
	assert.Equal(t, "$sort", db.lastPipe[1][0].Key)
}

func TestExecute_DistinctRequiresField(t *testing.T) {
	exec, db := newTestExecutor(t)

	res := exec.Execute(context.Background(), Descriptor{Collection: "orders", Action: ActionDistinct})

	require.False(t, res.OK())
	assert.Equal(t, KindMissingField, res.Err.Kind)
	assert.True(t, strings.HasPrefix(res.Text(), "Error (missing_field)"))
	assert.Zero(t, db.queries)
}

func TestExecute_DistinctCapsValues(t *testing.T) {
	exec, db := newTestExecutor(t)
	for i := 0; i < 60; i++ {
		db.distinct = append(db.distinct, i)
	}

	res := exec.Execute(context.Background(), Descriptor{Collection: "orders", Action: ActionDistinct, Field: "status"})

	require.True(t, res.OK())
	assert.Equal(t, "status", db.lastField)
	assert.Contains(t, res.Output, "showing 50 of 60")

	var values []int
	body := res.Output[strings.Index(res.Output, "\n")+1:]
	require.NoError(t, json.Unmarshal([]byte(body), &values))
	assert.Len(t, values, MaxDistinct)
}

func TestExecute_UnknownAction(t *testing.T) {
	exec, db := newTestExecutor(t)

	res := exec.Execute(context.Background(), Descriptor{Collection: "orders", Action: "drop"})

	require.False(t, res.OK())
	assert.Equal(t, KindUnknownAction, res.Err.Kind)
	assert.Contains(t, res.Text(), `"drop"`)
	assert.Zero(t, db.queries)
}

func TestExecute_DatabaseErrorBecomesResult(t *testing.T) {
	exec, db := newTestExecutor(t)
	db.queryErr = errBoom

	res := exec.Execute(context.Background(), Descriptor{Collection: "orders", Action: ActionCount})

	require.False(t, res.OK())
	assert.Equal(t, KindDatabase, res.Err.Kind)
	assert.Contains(t, res.Text(), "boom")
}
