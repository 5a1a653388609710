package convert

import (
	"encoding/base64"
	"encoding/json"

	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
)

// Value is the storage-side representation of an OTLP AnyValue.
// It marshals to plain JSON: strings, numbers, bools, arrays and
// objects nest without a depth limit, absent values become null.
type Value struct {
	v any
}

// FromAnyValue converts an OTLP AnyValue into a Value. Nil and
// unpopulated unions convert to the null Value. Byte values are
// base64-encoded, matching their JSON wire representation.
func FromAnyValue(av *commonv1.AnyValue) Value {
	return Value{v: anyValueToGo(av)}
}

// IsNull reports whether the value carries no data.
func (v Value) IsNull() bool {
	return v.v == nil
}

// MarshalJSON encodes the value in its canonical JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.v)
}

func anyValueToGo(av *commonv1.AnyValue) any {
	if av == nil {
		return nil
	}
	switch val := av.Value.(type) {
	case *commonv1.AnyValue_StringValue:
		return val.StringValue
	case *commonv1.AnyValue_IntValue:
		return val.IntValue
	case *commonv1.AnyValue_DoubleValue:
		return val.DoubleValue
	case *commonv1.AnyValue_BoolValue:
		return val.BoolValue
	case *commonv1.AnyValue_BytesValue:
		return base64.StdEncoding.EncodeToString(val.BytesValue)
	case *commonv1.AnyValue_ArrayValue:
		if val.ArrayValue == nil {
			return []any{}
		}
		arr := make([]any, len(val.ArrayValue.Values))
		for i, el := range val.ArrayValue.Values {
			arr[i] = anyValueToGo(el)
		}
		return arr
	case *commonv1.AnyValue_KvlistValue:
		if val.KvlistValue == nil {
			return map[string]any{}
		}
		m := make(map[string]any, len(val.KvlistValue.Values))
		for _, kv := range val.KvlistValue.Values {
			if kv != nil {
				m[kv.Key] = anyValueToGo(kv.Value)
			}
		}
		return m
	default:
		return nil
	}
}

// AttributesJSON converts an OTLP KeyValue slice to its JSON object
// encoding. Empty and nil slices encode as "{}" so the stored column
// is always valid JSON.
func AttributesJSON(kvs []*commonv1.KeyValue) string {
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		if kv != nil && kv.Key != "" {
			m[kv.Key] = anyValueToGo(kv.Value)
		}
	}
	b, _ := json.Marshal(m)
	return string(b)
}
