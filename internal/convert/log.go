package convert

import (
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	logsv1 "go.opentelemetry.io/proto/otlp/logs/v1"
	resourcev1 "go.opentelemetry.io/proto/otlp/resource/v1"

	"otelkeep/internal/storage"
)

// Log flattens one OTLP log record into a storage row. The body is
// reduced to its display-string form, an unspecified severity number
// becomes null rather than zero, and trace/span correlation ids are
// kept only when present.
func Log(lr *logsv1.LogRecord, res *resourcev1.Resource, scope *commonv1.InstrumentationScope, collectorName string) storage.StoredLog {
	row := storage.StoredLog{
		CollectorName:  collectorName,
		TimestampNanos: int64(lr.TimeUnixNano),
		SeverityText:   optional(lr.SeverityText),
		Body:           displayString(lr.Body),
		ServiceName:    optional(ServiceName(res)),
		TraceID:        optional(hexID(lr.TraceId)),
		SpanID:         optional(hexID(lr.SpanId)),
		Attributes:     AttributesJSON(lr.Attributes),
		ResourceAttrs:  resourceAttrsJSON(res),
	}
	if lr.SeverityNumber != logsv1.SeverityNumber_SEVERITY_NUMBER_UNSPECIFIED {
		n := int32(lr.SeverityNumber)
		row.SeverityNumber = &n
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
