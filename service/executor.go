package service

import (
	"context"
	"fmt"

	"mongochat/metrics"

	"go.uber.org/zap"
)

// Executor runs validated actions against one database.
type Executor struct {
	db  Database
	log *zap.Logger
}

func NewExecutor(db Database, log *zap.Logger) *Executor {
	return &Executor{db: db, log: log}
}

// Execute validates the descriptor and runs it. It never returns a Go error:
// every failure is reported in Result.Err.
func (e *Executor) Execute(ctx context.Context, d Descriptor) Result {
	res := e.execute(ctx, d)

	label := d.Action
	switch label {
	case ActionFind, ActionCount, ActionAggregate, ActionDistinct:
	default:
		label = "unknown"
	}
	outcome := "ok"
	if res.Err != nil {
		outcome = string(res.Err.Kind)
	}
	metrics.RecordToolCall(label, outcome)
	return res
}

func (e *Executor) execute(ctx context.Context, d Descriptor) Result {
	if d.Collection == "" {
		return failed(d.Action, newExecError(KindMissingCollection, "collection is required"))
	}

	names, err := e.db.ListCollectionNames(ctx)
	if err != nil {
		return failed(d.Action, &ExecError{Kind: KindDatabase, Message: "failed to list collections", Err: err})
	}
	if !contains(names, d.Collection) {
		e.log.Warn("action rejected: unknown collection", zap.String("collection", d.Collection), zap.String("db", e.db.Name()))
		return failed(d.Action, newExecError(KindUnknownCollection,
			fmt.Sprintf("collection %q does not exist in database %q", d.Collection, e.db.Name())))
	}

	action, verr := d.Validate()
	if verr != nil {
		e.log.Warn("action rejected", zap.String("kind", string(verr.Kind)), zap.String("reason", verr.Message))
		return failed(d.Action, verr)
	}

	e.log.Info("executing action", zap.String("action", action.Kind()), zap.String("collection", action.CollectionName()))

	switch a := action.(type) {
	case FindAction:
		return e.find(ctx, a)
	case CountAction:
		return e.count(ctx, a)
	case AggregateAction:
		return e.aggregate(ctx, a)
	case DistinctAction:
		return e.distinct(ctx, a)
	default:
		return failed(d.Action, newExecError(KindUnknownAction, fmt.Sprintf("unsupported action %q", action.Kind())))
	}
}

func (e *Executor) dbError(action string, err error) Result {
	e.log.Error("query execution failed", zap.String("action", action), zap.Error(err))
	return failed(action, &ExecError{Kind: KindDatabase, Message: action + " failed", Err: err})
}

func (e *Executor) find(ctx context.Context, a FindAction) Result {
	docs, err := e.db.Find(ctx, a.Collection, a.Filter, a.Limit)
	if err != nil {
		return e.dbError(ActionFind, err)
	}
	if int64(len(docs)) > a.Limit {
		docs = docs[:a.Limit]
	}
	body, err := MarshalDocuments(docs)
	if err != nil {
		return e.dbError(ActionFind, err)
	}
	return Result{Action: ActionFind, Output: fmt.Sprintf("Found %d documents (limit %d):\n%s", len(docs), a.Limit, body)}
}

func (e *Executor) count(ctx context.Context, a CountAction) Result {
	n, err := e.db.Count(ctx, a.Collection, a.Filter)
	if err != nil {
		return e.dbError(ActionCount, err)
	}
	return Result{Action: ActionCount, Output: fmt.Sprintf("Count: %d", n)}
}

func (e *Executor) aggregate(ctx context.Context, a AggregateAction) Result {
	docs, err := e.db.Aggregate(ctx, a.Collection, a.Pipeline, MaxAggregateDocs)
	if err != nil {
		return e.dbError(ActionAggregate, err)
	}
	if len(docs) > MaxAggregateDocs {
		docs = docs[:MaxAggregateDocs]
	}
	body, err := MarshalDocuments(docs)
	if err != nil {
		return e.dbError(ActionAggregate, err)
	}
	return Result{Action: ActionAggregate, Output: fmt.Sprintf("Aggregation returned %d documents:\n%s", len(docs), body)}
}

func (e *Executor) distinct(ctx context.Context, a DistinctAction) Result {
	values, err := e.db.Distinct(ctx, a.Collection, a.Field, a.Filter)
	if err != nil {
		return e.dbError(ActionDistinct, err)
	}
	total := len(values)
	if total > MaxDistinct {
		values = values[:MaxDistinct]
	}
	body, err := marshalValues(values)
	if err != nil {
		return e.dbError(ActionDistinct, err)
	}
	if total > MaxDistinct {
		return Result{Action: ActionDistinct, Output: fmt.Sprintf("Distinct values for '%s' (showing %d of %d):\n%s", a.Field, MaxDistinct, total, body)}
	}
	return Result{Action: ActionDistinct, Output: fmt.Sprintf("Distinct values for '%s' (%d):\n%s", a.Field, total, body)}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
