package storage

import (
	"context"
	"fmt"
)

// migration is one named, ordered schema step. Applied migrations are
// recorded in schema_migrations; re-running against a migrated
// database is a no-op. New steps only add tables or columns.
type migration struct {
	name  string
	stmts []string
}

var migrations = []migration{
	{
		name: "001_create_spans",
		stmts: []string{`
CREATE TABLE IF NOT EXISTS spans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    collector_name TEXT NOT NULL,
    trace_id TEXT NOT NULL,
    span_id TEXT NOT NULL,
    parent_span_id TEXT,
    operation_name TEXT NOT NULL,
    service_name TEXT,
    start_time_nanos INTEGER NOT NULL,
    end_time_nanos INTEGER NOT NULL,
    duration_nanos INTEGER NOT NULL,
    status_code INTEGER NOT NULL DEFAULT 0,
    status_message TEXT NOT NULL DEFAULT '',
    kind INTEGER NOT NULL DEFAULT 0,
    attributes TEXT NOT NULL DEFAULT '{}',
    events TEXT NOT NULL DEFAULT '[]',
    links TEXT NOT NULL DEFAULT '[]',
    resource_attributes TEXT NOT NULL DEFAULT '{}',
    scope_name TEXT NOT NULL DEFAULT '',
    scope_version TEXT NOT NULL DEFAULT '',
    scope_attributes TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
)`,
			`CREATE INDEX IF NOT EXISTS idx_spans_trace_start ON spans(trace_id, start_time_nanos)`,
			`CREATE INDEX IF NOT EXISTS idx_spans_service_start ON spans(service_name, start_time_nanos)`,
		},
	},
	{
		name: "002_create_metrics",
		stmts: []string{`
CREATE TABLE IF NOT EXISTS metrics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    collector_name TEXT NOT NULL,
    metric_name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    unit TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    service_name TEXT,
    timestamp_nanos INTEGER NOT NULL,
    value REAL,
    attributes TEXT NOT NULL DEFAULT '{}',
    resource_attributes TEXT NOT NULL DEFAULT '{}',
    scope_name TEXT NOT NULL DEFAULT '',
    scope_version TEXT NOT NULL DEFAULT '',
    scope_attributes TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
)`,
			`CREATE INDEX IF NOT EXISTS idx_metrics_name_ts ON metrics(metric_name, timestamp_nanos)`,
		},
	},
	{
		name: "003_create_logs",
		stmts: []string{`
CREATE TABLE IF NOT EXISTS logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    collector_name TEXT NOT NULL,
    timestamp_nanos INTEGER NOT NULL,
    severity_text TEXT,
    severity_number INTEGER,
    body TEXT NOT NULL DEFAULT '',
    service_name TEXT,
    trace_id TEXT,
    span_id TEXT,
    attributes TEXT NOT NULL DEFAULT '{}',
    resource_attributes TEXT NOT NULL DEFAULT '{}',
    scope_name TEXT NOT NULL DEFAULT '',
    scope_version TEXT NOT NULL DEFAULT '',
    scope_attributes TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
)`,
			`CREATE INDEX IF NOT EXISTS idx_logs_severity_ts ON logs(severity_number, timestamp_nanos)`,
		},
	},
}

// ftsStatements build the full-text index over log bodies. They run
// outside the migration ledger because FTS5 availability depends on
// how the driver was built; when it is missing, log search falls back
// to LIKE matching.
var ftsStatements = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS logs_fts USING fts5(body, content='logs', content_rowid='id')`,
	`CREATE TRIGGER IF NOT EXISTS logs_fts_insert AFTER INSERT ON logs BEGIN
    INSERT INTO logs_fts(rowid, body) VALUES (new.id, new.body);
END`,
	`CREATE TRIGGER IF NOT EXISTS logs_fts_delete AFTER DELETE ON logs BEGIN
    INSERT INTO logs_fts(logs_fts, rowid, body) VALUES ('delete', old.id, old.body);
END`,
}

func (s *Storage) initFTS(ctx context.Context) {
	for _, stmt := range ftsStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.log.Warn().Err(err).Msg("fts5 unavailable, log search degrades to substring match")
			s.ftsEnabled = false
			return
		}
	}
	s.ftsEnabled = true
}

// migrate applies every pending migration in order, each inside its
// own transaction together with its ledger entry.
func (s *Storage) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations ledger: %w", err)
	}

	for _, m := range migrations {
		var applied int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE name = ?", m.name).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to read migrations ledger: %w", err)
		}
		if applied > 0 {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		for _, stmt := range m.stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %s: %w", m.name, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (name) VALUES (?)", m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}

		s.log.Debug().Str("migration", m.name).Msg("applied schema migration")
	}

	return nil
}
