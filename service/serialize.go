package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Normalize converts BSON values into JSON-native values. Identifiers, dates
// and other BSON-only types become strings so the result can be embedded in a
// prompt.
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return nil
	case bson.M:
		out := make(map[string]interface{}, len(val))
		for k, e := range val {
			out[k] = Normalize(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, e := range val {
			out[k] = Normalize(e)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(val))
		for _, e := range val {
			out[e.Key] = Normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = Normalize(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = Normalize(e)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case primitive.Timestamp:
		return fmt.Sprintf("Timestamp(%d, %d)", val.T, val.I)
	case primitive.Decimal128:
		return val.String()
	case primitive.Binary:
		return base64.StdEncoding.EncodeToString(val.Data)
	case primitive.Regex:
		return val.String()
	case primitive.JavaScript:
		return string(val)
	case primitive.Symbol:
		return string(val)
	case primitive.CodeWithScope:
		return val.String()
	case primitive.DBPointer:
		return val.String()
	case primitive.MinKey:
		return "MinKey"
	case primitive.MaxKey:
		return "MaxKey"
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Sprint(val)
		}
		return val
	case float32:
		return Normalize(float64(val))
	case string, bool, int, int32, int64:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// MarshalDocument serializes one document to compact JSON.
func MarshalDocument(doc interface{}) (string, error) {
	data, err := json.Marshal(Normalize(doc))
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}
	return string(data), nil
}

// MarshalDocuments serializes a result set to indented JSON.
func MarshalDocuments(docs []bson.M) (string, error) {
	normalized := make([]interface{}, len(docs))
	for i, d := range docs {
		normalized[i] = Normalize(d)
	}
	data, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal documents: %w", err)
	}
	return string(data), nil
}

func marshalValues(values []interface{}) (string, error) {
	data, err := json.Marshal(Normalize(values))
	if err != nil {
		return "", fmt.Errorf("failed to marshal values: %w", err)
	}
	return string(data), nil
}
