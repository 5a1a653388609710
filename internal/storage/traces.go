package storage

import (
	"context"
	"database/sql"
	"encoding/json"
)

// defaultRootOperation labels a trace whose root span is missing from
// the stored window (e.g. only child spans were exported).
const defaultRootOperation = "Trace"

const (
	minQueryLimit = 1
	maxQueryLimit = 500
)

func clampLimit(limit int) int {
	if limit < minQueryLimit {
		return minQueryLimit
	}
	if limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}

// RecentTraces groups spans by trace and returns per-trace summaries
// ordered by start time descending. collector filters by logical
// source when non-empty. The limit is clamped to [1, 500].
func (s *Storage) RecentTraces(ctx context.Context, limit int, collector string) ([]TraceSummary, error) {
	query := `
SELECT
    t.trace_id,
    MIN(t.start_time_nanos),
    MAX(t.end_time_nanos),
    COUNT(*),
    SUM(CASE WHEN t.status_code = 2 THEN 1 ELSE 0 END),
    (SELECT r.operation_name FROM spans r
       WHERE r.trace_id = t.trace_id
         AND (r.parent_span_id IS NULL OR r.parent_span_id = '')
       ORDER BY r.start_time_nanos LIMIT 1),
    (SELECT r.service_name FROM spans r
       WHERE r.trace_id = t.trace_id
         AND (r.parent_span_id IS NULL OR r.parent_span_id = '')
       ORDER BY r.start_time_nanos LIMIT 1)
FROM spans t`

	var args []any
	if collector != "" {
		query += " WHERE t.collector_name = ?"
		args = append(args, collector)
	}
	query += `
GROUP BY t.trace_id
ORDER BY MIN(t.start_time_nanos) DESC
LIMIT ?`
	args = append(args, clampLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewQueryError("failed to query recent traces", err)
	}
	defer rows.Close()

	var summaries []TraceSummary
	for rows.Next() {
		var t TraceSummary
		var rootOp sql.NullString
		var rootSvc sql.NullString
		if err := rows.Scan(&t.TraceID, &t.StartTimeNanos, &t.EndTimeNanos,
			&t.SpanCount, &t.ErrorCount, &rootOp, &rootSvc); err != nil {
			return nil, NewQueryError("failed to scan trace summary", err)
		}
		if rootOp.Valid {
			t.RootOperation = rootOp.String
		} else {
			t.RootOperation = defaultRootOperation
		}
		if rootSvc.Valid {
			svc := rootSvc.String
			t.RootService = &svc
		}
		summaries = append(summaries, t)
	}
	return summaries, rows.Err()
}

// TraceSpans returns every span of one trace ordered by start time
// ascending, with the JSON blobs decoded for display.
func (s *Storage) TraceSpans(ctx context.Context, traceID string) ([]TraceSpan, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT span_id, parent_span_id, operation_name, service_name,
       start_time_nanos, end_time_nanos, duration_nanos,
       status_code, status_message, kind, attributes, events, links
FROM spans
WHERE trace_id = ?
ORDER BY start_time_nanos ASC`, traceID)
	if err != nil {
		return nil, NewQueryError("failed to query trace spans", err)
	}
	defer rows.Close()

	var spans []TraceSpan
	for rows.Next() {
		var sp TraceSpan
		var parent, service sql.NullString
		var attrs, events, links string
		if err := rows.Scan(&sp.SpanID, &parent, &sp.OperationName, &service,
			&sp.StartTimeNanos, &sp.EndTimeNanos, &sp.DurationNanos,
			&sp.StatusCode, &sp.StatusMessage, &sp.Kind, &attrs, &events, &links); err != nil {
			return nil, NewQueryError("failed to scan trace span", err)
		}
		sp.ParentSpanID = parent.String
		if service.Valid {
			svc := service.String
			sp.ServiceName = &svc
		}
		// Stored blobs are written by the converter, so decode errors
		// only happen for rows inserted through the raw query console.
		json.Unmarshal([]byte(attrs), &sp.Attributes)
		json.Unmarshal([]byte(events), &sp.Events)
		json.Unmarshal([]byte(links), &sp.Links)
		spans = append(spans, sp)
	}
	return spans, rows.Err()
}
