package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	ActionFind      = "find"
	ActionCount     = "count"
	ActionAggregate = "aggregate"
	ActionDistinct  = "distinct"
)

// ErrInvalidFormat is returned when an action block is not a JSON object.
var ErrInvalidFormat = errors.New("invalid format")

// Descriptor is the wire form of an action request emitted by the model.
type Descriptor struct {
	Collection string          `json:"collection"`
	Action     string          `json:"action"`
	Query      json.RawMessage `json:"query,omitempty"`
	Limit      *float64        `json:"limit,omitempty"`
	Field      string          `json:"field,omitempty"`
}

// DecodeDescriptor parses the body of an action block. Only structural JSON
// problems fail here; semantic validation happens in Descriptor.Validate.
func DecodeDescriptor(body string) (Descriptor, error) {
	body = stripFences(body)
	if !strings.HasPrefix(body, "{") {
		return Descriptor{}, fmt.Errorf("%w: descriptor must be a JSON object", ErrInvalidFormat)
	}

	var d Descriptor
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&d); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if dec.More() {
		return Descriptor{}, fmt.Errorf("%w: trailing data after descriptor", ErrInvalidFormat)
	}
	d.Collection = strings.TrimSpace(d.Collection)
	d.Action = strings.ToLower(strings.TrimSpace(d.Action))
	return d, nil
}

// stripFences removes a markdown code fence the model sometimes wraps the
// JSON body in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// Action is a validated descriptor. Exactly one of the concrete types below.
type Action interface {
	CollectionName() string
	Kind() string
}

type FindAction struct {
	Collection string
	Filter     bson.D
	Limit      int64
}

type CountAction struct {
	Collection string
	Filter     bson.D
}

type AggregateAction struct {
	Collection string
	Pipeline   []bson.D
}

type DistinctAction struct {
	Collection string
	Field      string
	Filter     bson.D
}

func (a FindAction) CollectionName() string      { return a.Collection }
func (a CountAction) CollectionName() string     { return a.Collection }
func (a AggregateAction) CollectionName() string { return a.Collection }
func (a DistinctAction) CollectionName() string  { return a.Collection }

func (FindAction) Kind() string      { return ActionFind }
func (CountAction) Kind() string     { return ActionCount }
func (AggregateAction) Kind() string { return ActionAggregate }
func (DistinctAction) Kind() string  { return ActionDistinct }

const (
	DefaultFindLimit = 10
	MaxFindLimit     = 20
	MaxAggregateDocs = 20
	MaxDistinct      = 50
)

// forbiddenStages are pipeline stages that write data.
var forbiddenStages = map[string]bool{
	"$out":   true,
	"$merge": true,
}

// Validate checks the descriptor and converts it to its typed variant.
func (d Descriptor) Validate() (Action, *ExecError) {
	switch d.Action {
	case ActionFind:
		filter, err := parseFilter(d.Query)
		if err != nil {
			return nil, err
		}
		return FindAction{Collection: d.Collection, Filter: filter, Limit: clampLimit(d.Limit)}, nil
	case ActionCount:
		filter, err := parseFilter(d.Query)
		if err != nil {
			return nil, err
		}
		return CountAction{Collection: d.Collection, Filter: filter}, nil
	case ActionAggregate:
		pipeline, err := parsePipeline(d.Query)
		if err != nil {
			return nil, err
		}
		return AggregateAction{Collection: d.Collection, Pipeline: pipeline}, nil
	case ActionDistinct:
		field := strings.TrimSpace(d.Field)
		if field == "" {
			return nil, newExecError(KindMissingField, "distinct requires a 'field' parameter")
		}
		filter, err := parseFilter(d.Query)
		if err != nil {
			return nil, err
		}
		return DistinctAction{Collection: d.Collection, Field: field, Filter: filter}, nil
	case "":
		return nil, newExecError(KindUnknownAction, "action is required (one of find, count, aggregate, distinct)")
	default:
		return nil, newExecError(KindUnknownAction, fmt.Sprintf("unknown action %q (expected find, count, aggregate or distinct)", d.Action))
	}
}

// clampLimit truncates fractional limits such as 5.0 written by the model.
func clampLimit(limit *float64) int64 {
	if limit == nil || math.IsNaN(*limit) {
		return DefaultFindLimit
	}
	n := math.Trunc(*limit)
	if n <= 0 {
		return DefaultFindLimit
	}
	if n > MaxFindLimit {
		return MaxFindLimit
	}
	return int64(n)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// parseFilter reads a filter object as relaxed Extended JSON, so literals like
// {"$oid": "..."} become real ObjectIDs.
func parseFilter(raw json.RawMessage) (bson.D, *ExecError) {
	if isNull(raw) {
		return bson.D{}, nil
	}
	if bytes.TrimSpace(raw)[0] != '{' {
		return nil, newExecError(KindInvalidQuery, "query must be a JSON object for this action")
	}
	var filter bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &filter); err != nil {
		return nil, newExecError(KindInvalidQuery, fmt.Sprintf("invalid query filter: %v", err))
	}
	if filter == nil {
		filter = bson.D{}
	}
	return filter, nil
}

// parsePipeline reads an aggregation pipeline and rejects write stages. Only
// top-level stage keys are inspected.
func parsePipeline(raw json.RawMessage) ([]bson.D, *ExecError) {
	if isNull(raw) || bytes.TrimSpace(raw)[0] != '[' {
		return nil, newExecError(KindInvalidQuery, "aggregate query must be an array of pipeline stages")
	}

	// Extended JSON parsing needs a document at the top level.
	wrapped := make([]byte, 0, len(raw)+14)
	wrapped = append(wrapped, `{"pipeline":`...)
	wrapped = append(wrapped, raw...)
	wrapped = append(wrapped, '}')

	var holder struct {
		Pipeline []bson.D `bson:"pipeline"`
	}
	if err := bson.UnmarshalExtJSON(wrapped, false, &holder); err != nil {
		return nil, newExecError(KindInvalidQuery, fmt.Sprintf("invalid pipeline: each stage must be an object: %v", err))
	}

	for i, stage := range holder.Pipeline {
		for _, elem := range stage {
			if forbiddenStages[elem.Key] {
				return nil, newExecError(KindForbiddenStage, fmt.Sprintf("stage %d uses %s, which is not allowed (read-only access)", i, elem.Key))
			}
		}
	}
	if holder.Pipeline == nil {
		holder.Pipeline = []bson.D{}
	}
	return holder.Pipeline, nil
}
