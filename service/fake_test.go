package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// fakeDatabase serves canned data and counts query calls.
type fakeDatabase struct {
	name        string
	collections map[string][]bson.M
	distinct    []interface{}
	listErr     error
	queryErr    error
	sampleErr   map[string]error

	queries   int
	lastLimit int64
	lastField string
	lastPipe  []bson.D
}

func newFakeDatabase(name string) *fakeDatabase {
	return &fakeDatabase{name: name, collections: map[string][]bson.M{}, sampleErr: map[string]error{}}
}

func (f *fakeDatabase) Name() string { return f.name }

func (f *fakeDatabase) ListCollectionNames(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	names := make([]string, 0, len(f.collections))
	for n := range f.collections {
		names = append(names, n)
	}
	return names, nil
}

func (f *fakeDatabase) SampleDocument(ctx context.Context, collection string) (bson.M, error) {
	if err := f.sampleErr[collection]; err != nil {
		return nil, err
	}
	docs := f.collections[collection]
	if len(docs) == 0 {
		return nil, nil
	}
	copied := bson.M{}
	for k, v := range docs[0] {
		copied[k] = v
	}
	return copied, nil
}

func (f *fakeDatabase) Find(ctx context.Context, collection string, filter bson.D, limit int64) ([]bson.M, error) {
	f.queries++
	f.lastLimit = limit
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	docs := f.collections[collection]
	if int64(len(docs)) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (f *fakeDatabase) Aggregate(ctx context.Context, collection string, pipeline []bson.D, maxDocs int) ([]bson.M, error) {
	f.queries++
	f.lastPipe = pipeline
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	// returns everything so the executor cap is exercised
	return f.collections[collection], nil
}

func (f *fakeDatabase) Count(ctx context.Context, collection string, filter bson.D) (int64, error) {
	f.queries++
	if f.queryErr != nil {
		return 0, f.queryErr
	}
	return int64(len(f.collections[collection])), nil
}

func (f *fakeDatabase) Distinct(ctx context.Context, collection, field string, filter bson.D) ([]interface{}, error) {
	f.queries++
	f.lastField = field
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.distinct, nil
}

func makeDocs(n int) []bson.M {
	docs := make([]bson.M, n)
	for i := range docs {
		docs[i] = bson.M{"n": i, "name": fmt.Sprintf("doc-%d", i)}
	}
	return docs
}

var errBoom = errors.New("boom")
