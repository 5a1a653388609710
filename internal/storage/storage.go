// Package storage is the persistence layer: a single SQLite database
// holding spans, metrics and logs for every logical collector,
// partitioned by the collector_name column.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Storage owns the database handle. All reads and writes are funneled
// through one open connection, which is the engine's serialization
// boundary: individual transactions are atomic, concurrent batches
// from different sources commit in arbitrary order.
type Storage struct {
	db           *sql.DB
	path         string
	log          zerolog.Logger
	stopFn       func()
	sweepRunning chan struct{}
	ftsEnabled   bool

	// lastSweep is written by the cron worker goroutine and read by
	// callers on their own goroutines.
	sweepMu   sync.Mutex
	lastSweep *RetentionResult
}

// New opens (or creates) the database at dbPath and applies any
// pending migrations. An empty path opens an in-memory database.
func New(dbPath string, log zerolog.Logger) (*Storage, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Single connection: the serialization boundary for all access.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Storage{
		db:           db,
		path:         dbPath,
		log:          log.With().Str("component", "storage").Logger(),
		sweepRunning: make(chan struct{}, 1),
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	s.initFTS(ctx)

	return s, nil
}

// Health checks that the database connection is usable.
func (s *Storage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close stops the retention worker if one is running and closes the
// database connection.
func (s *Storage) Close() error {
	if s.stopFn != nil {
		s.stopFn()
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Storage) Path() string {
	return s.path
}
