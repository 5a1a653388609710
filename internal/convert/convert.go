// Package convert flattens OTLP export payloads into storage rows.
//
// Every function here is pure and total: malformed or partially
// populated protocol messages degrade to zero values and nulls, they
// never produce an error. Safe for concurrent use.
package convert

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	resourcev1 "go.opentelemetry.io/proto/otlp/resource/v1"
)

// serviceNameKey is the OTLP semantic-convention resource attribute
// identifying the producing service.
const serviceNameKey = "service.name"

// ServiceName returns the resource's service.name string attribute,
// or "" when the resource is nil, the key is absent, or the value is
// not a string.
func ServiceName(res *resourcev1.Resource) string {
	if res == nil {
		return ""
	}
	for _, kv := range res.Attributes {
		if kv == nil || kv.Key != serviceNameKey {
			continue
		}
		if sv, ok := kv.Value.GetValue().(*commonv1.AnyValue_StringValue); ok {
			return sv.StringValue
		}
		return ""
	}
	return ""
}

// hexID converts a binary trace or span id to its lowercase hex form.
// Empty input yields "".
func hexID(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return hex.EncodeToString(b)
}

// optional returns nil for the empty string, otherwise a pointer to s.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// attributesMap converts a KeyValue slice into a plain Go map for
// embedding inside a larger JSON document (span events and links).
func attributesMap(kvs []*commonv1.KeyValue) map[string]any {
	if len(kvs) == 0 {
		return nil
	}
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		if kv != nil && kv.Key != "" {
			m[kv.Key] = anyValueToGo(kv.Value)
		}
	}
	return m
}

// displayString flattens an AnyValue to the single-line text form used
// for log bodies. Scalars stringify directly, bytes pass through
// unmodified, arrays and maps render with bracket/brace joining. The
// rendering is lossy and intended for display only.
func displayString(av *commonv1.AnyValue) string {
	if av == nil {
		return ""
	}
	switch val := av.Value.(type) {
	case *commonv1.AnyValue_StringValue:
		return val.StringValue
	case *commonv1.AnyValue_IntValue:
		return strconv.FormatInt(val.IntValue, 10)
	case *commonv1.AnyValue_DoubleValue:
		return strconv.FormatFloat(val.DoubleValue, 'f', -1, 64)
	case *commonv1.AnyValue_BoolValue:
		return strconv.FormatBool(val.BoolValue)
	case *commonv1.AnyValue_BytesValue:
		return string(val.BytesValue)
	case *commonv1.AnyValue_ArrayValue:
		if val.ArrayValue == nil {
			return "[]"
		}
		parts := make([]string, len(val.ArrayValue.Values))
		for i, el := range val.ArrayValue.Values {
			parts[i] = displayString(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *commonv1.AnyValue_KvlistValue:
		if val.KvlistValue == nil {
			return "{}"
		}
		parts := make([]string, 0, len(val.KvlistValue.Values))
		for _, kv := range val.KvlistValue.Values {
			if kv != nil {
				parts = append(parts, kv.Key+"="+displayString(kv.Value))
			}
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}
