package storage

import (
	"context"
	"database/sql"
	"encoding/json"
)

const logColumns = `timestamp_nanos, severity_text, severity_number, body,
       service_name, trace_id, span_id, attributes`

// RecentLogs returns log rows ordered by timestamp descending,
// optionally filtered by collector and a minimum severity number
// (0 disables the severity filter; rows with a null severity are
// excluded when a threshold is set). The limit is clamped to [1, 500].
func (s *Storage) RecentLogs(ctx context.Context, limit int, collector string, minSeverity int32) ([]LogEntry, error) {
	query := "SELECT " + logColumns + " FROM logs WHERE 1=1"
	var args []any

	if collector != "" {
		query += " AND collector_name = ?"
		args = append(args, collector)
	}
	if minSeverity > 0 {
		query += " AND severity_number >= ?"
		args = append(args, minSeverity)
	}
	query += " ORDER BY timestamp_nanos DESC LIMIT ?"
	args = append(args, clampLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewQueryError("failed to query recent logs", err)
	}
	defer rows.Close()

	return scanLogRows(rows)
}

// SearchLogs runs a full-text search over log bodies, newest match
// first. With FTS5 the query uses MATCH syntax; without it, the term
// is matched as a substring.
func (s *Storage) SearchLogs(ctx context.Context, match string, limit int) ([]LogEntry, error) {
	query := "SELECT " + logColumns + ` FROM logs
WHERE id IN (SELECT rowid FROM logs_fts WHERE logs_fts MATCH ?)
ORDER BY timestamp_nanos DESC
LIMIT ?`
	arg := any(match)
	if !s.ftsEnabled {
		query = "SELECT " + logColumns + ` FROM logs
WHERE body LIKE ?
ORDER BY timestamp_nanos DESC
LIMIT ?`
		arg = "%" + match + "%"
	}

	rows, err := s.db.QueryContext(ctx, query, arg, clampLimit(limit))
	if err != nil {
		return nil, NewQueryError("failed to search logs", err)
	}
	defer rows.Close()

	return scanLogRows(rows)
}

func scanLogRows(rows *sql.Rows) ([]LogEntry, error) {
	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var sevText, service, traceID, spanID sql.NullString
		var sevNum sql.NullInt32
		var attrs string
		if err := rows.Scan(&e.TimestampNanos, &sevText, &sevNum, &e.Body,
			&service, &traceID, &spanID, &attrs); err != nil {
			return nil, NewQueryError("failed to scan log row", err)
		}
		if sevText.Valid {
			v := sevText.String
			e.SeverityText = &v
		}
		if sevNum.Valid {
			v := sevNum.Int32
			e.SeverityNumber = &v
		}
		if service.Valid {
			v := service.String
			e.ServiceName = &v
		}
		if traceID.Valid {
			v := traceID.String
			e.TraceID = &v
		}
		if spanID.Valid {
			v := spanID.String
			e.SpanID = &v
		}
		// Stored blobs are written by the converter, so decode errors
		// only happen for rows inserted through the raw query console.
		json.Unmarshal([]byte(attrs), &e.Attributes)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
