package convert

import (
	"encoding/json"

	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	resourcev1 "go.opentelemetry.io/proto/otlp/resource/v1"
	tracev1 "go.opentelemetry.io/proto/otlp/trace/v1"

	"otelkeep/internal/storage"
)

// Span flattens one OTLP span with its enclosing resource and scope
// into a storage row. Duration is end minus start and is deliberately
// not clamped when the input end time precedes the start time.
func Span(span *tracev1.Span, res *resourcev1.Resource, scope *commonv1.InstrumentationScope, collectorName string) storage.StoredSpan {
	row := storage.StoredSpan{
		CollectorName:  collectorName,
		TraceID:        hexID(span.TraceId),
		SpanID:         hexID(span.SpanId),
		ParentSpanID:   hexID(span.ParentSpanId),
		OperationName:  span.Name,
		ServiceName:    optional(ServiceName(res)),
		StartTimeNanos: int64(span.StartTimeUnixNano),
		EndTimeNanos:   int64(span.EndTimeUnixNano),
		DurationNanos:  int64(span.EndTimeUnixNano) - int64(span.StartTimeUnixNano),
		Kind:           int32(span.Kind),
		Attributes:     AttributesJSON(span.Attributes),
		Events:         eventsJSON(span.Events),
		Links:          linksJSON(span.Links),
		ResourceAttrs:  resourceAttrsJSON(res),
	}
	if span.Status != nil {
		row.StatusCode = int32(span.Status.Code)
		row.StatusMessage = span.Status.Message
	}
	if scope != nil {
		row.ScopeName = scope.Name
		row.ScopeVersion = scope.Version
		row.ScopeAttrs = AttributesJSON(scope.Attributes)
	} else {
		row.ScopeAttrs = "{}"
	}
	return row
}

func resourceAttrsJSON(res *resourcev1.Resource) string {
	if res == nil {
		return "{}"
	}
	return AttributesJSON(res.Attributes)
}

func eventsJSON(events []*tracev1.Span_Event) string {
	out := make([]storage.SpanEvent, 0, len(events))
	for _, ev := range events {
		if ev == nil {
			continue
		}
		out = append(out, storage.SpanEvent{
			Name:         ev.Name,
			TimeNanos:    int64(ev.TimeUnixNano),
			Attributes:   attributesMap(ev.Attributes),
			DroppedCount: ev.DroppedAttributesCount,
		})
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func linksJSON(links []*tracev1.Span_Link) string {
	out := make([]storage.SpanLink, 0, len(links))
	for _, ln := range links {
		if ln == nil {
			continue
		}
		out = append(out, storage.SpanLink{
			TraceID:      hexID(ln.TraceId),
			SpanID:       hexID(ln.SpanId),
			TraceState:   ln.TraceState,
			Attributes:   attributesMap(ln.Attributes),
			DroppedCount: ln.DroppedAttributesCount,
		})
	}
	b, _ := json.Marshal(out)
	return string(b)
}
