package storage

import (
	"context"
	"database/sql"
)

// Batch writes. Each Store* call inserts its whole batch in one
// transaction: on any failure the transaction rolls back and the
// caller must treat the entire batch as rejected. Empty batches are
// a no-op. Duplicate rows are possible by design (at-least-once
// export semantics); no uniqueness is enforced on (trace_id, span_id).

const insertSpanSQL = `
INSERT INTO spans (
    collector_name, trace_id, span_id, parent_span_id, operation_name,
    service_name, start_time_nanos, end_time_nanos, duration_nanos,
    status_code, status_message, kind, attributes, events, links,
    resource_attributes, scope_name, scope_version, scope_attributes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertMetricSQL = `
INSERT INTO metrics (
    collector_name, metric_name, description, unit, type, service_name,
    timestamp_nanos, value, attributes, resource_attributes,
    scope_name, scope_version, scope_attributes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertLogSQL = `
INSERT INTO logs (
    collector_name, timestamp_nanos, severity_text, severity_number,
    body, service_name, trace_id, span_id, attributes,
    resource_attributes, scope_name, scope_version, scope_attributes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// StoreSpans inserts a span batch transactionally.
func (s *Storage) StoreSpans(ctx context.Context, spans []StoredSpan) error {
	if len(spans) == 0 {
		return nil
	}
	return s.inTx(ctx, insertSpanSQL, func(stmt *sql.Stmt) error {
		for _, sp := range spans {
			_, err := stmt.ExecContext(ctx,
				sp.CollectorName, sp.TraceID, sp.SpanID, nullIfEmpty(sp.ParentSpanID),
				sp.OperationName, sp.ServiceName, sp.StartTimeNanos, sp.EndTimeNanos,
				sp.DurationNanos, sp.StatusCode, sp.StatusMessage, sp.Kind,
				sp.Attributes, sp.Events, sp.Links, sp.ResourceAttrs,
				sp.ScopeName, sp.ScopeVersion, sp.ScopeAttrs,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// StoreMetrics inserts a metric data point batch transactionally.
func (s *Storage) StoreMetrics(ctx context.Context, metrics []StoredMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	return s.inTx(ctx, insertMetricSQL, func(stmt *sql.Stmt) error {
		for _, m := range metrics {
			_, err := stmt.ExecContext(ctx,
				m.CollectorName, m.MetricName, m.Description, m.Unit, m.Type,
				m.ServiceName, m.TimestampNanos, m.Value, m.Attributes,
				m.ResourceAttrs, m.ScopeName, m.ScopeVersion, m.ScopeAttrs,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// StoreLogs inserts a log record batch transactionally.
func (s *Storage) StoreLogs(ctx context.Context, logs []StoredLog) error {
	if len(logs) == 0 {
		return nil
	}
	return s.inTx(ctx, insertLogSQL, func(stmt *sql.Stmt) error {
		for _, l := range logs {
			_, err := stmt.ExecContext(ctx,
				l.CollectorName, l.TimestampNanos, l.SeverityText, l.SeverityNumber,
				l.Body, l.ServiceName, l.TraceID, l.SpanID, l.Attributes,
				l.ResourceAttrs, l.ScopeName, l.ScopeVersion, l.ScopeAttrs,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// inTx runs fn with a prepared statement inside one transaction.
func (s *Storage) inTx(ctx context.Context, query string, fn func(*sql.Stmt) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewConnectionError("failed to begin transaction", err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return NewQueryError("failed to prepare insert", err)
	}
	defer stmt.Close()

	if err := fn(stmt); err != nil {
		tx.Rollback()
		return NewQueryError("failed to insert batch", err)
	}

	if err := tx.Commit(); err != nil {
		return NewQueryError("failed to commit batch", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
