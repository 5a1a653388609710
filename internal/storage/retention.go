package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionPolicy holds the per-signal time-to-live in hours. A zero
// TTL means records of that signal are deleted immediately on the
// next sweep.
type RetentionPolicy struct {
	SpanTTLHours   int `json:"span_ttl_hours"`
	MetricTTLHours int `json:"metric_ttl_hours"`
	LogTTLHours    int `json:"log_ttl_hours"`
}

// DefaultRetentionPolicy keeps spans for 3 days, metrics for 7 and
// logs for 2.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{SpanTTLHours: 72, MetricTTLHours: 168, LogTTLHours: 48}
}

// RetentionResult is the outcome of one sweep.
type RetentionResult struct {
	Timestamp      time.Time
	Duration       time.Duration
	SpansDeleted   int64
	MetricsDeleted int64
	LogsDeleted    int64
}

// ApplyRetention deletes rows older than the policy's per-signal TTL
// cutoffs, keyed on each table's nanosecond timestamp column, then
// truncates the WAL to reclaim space. All deletes run in one
// transaction.
func (s *Storage) ApplyRetention(ctx context.Context, policy RetentionPolicy) (*RetentionResult, error) {
	start := time.Now()
	result := &RetentionResult{Timestamp: start}

	cutoff := func(ttlHours int) int64 {
		return start.Add(-time.Duration(ttlHours) * time.Hour).UnixNano()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, NewConnectionError("failed to begin retention transaction", err)
	}

	sweeps := []struct {
		stmt    string
		cutoff  int64
		deleted *int64
	}{
		{"DELETE FROM spans WHERE start_time_nanos < ?", cutoff(policy.SpanTTLHours), &result.SpansDeleted},
		{"DELETE FROM metrics WHERE timestamp_nanos < ?", cutoff(policy.MetricTTLHours), &result.MetricsDeleted},
		{"DELETE FROM logs WHERE timestamp_nanos < ?", cutoff(policy.LogTTLHours), &result.LogsDeleted},
	}
	for _, sw := range sweeps {
		res, err := tx.ExecContext(ctx, sw.stmt, sw.cutoff)
		if err != nil {
			tx.Rollback()
			return nil, NewQueryError("failed to delete expired rows", err)
		}
		*sw.deleted, _ = res.RowsAffected()
	}

	if err := tx.Commit(); err != nil {
		return nil, NewQueryError("failed to commit retention sweep", err)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.log.Warn().Err(err).Msg("retention checkpoint failed")
	}

	result.Duration = time.Since(start)

	s.sweepMu.Lock()
	s.lastSweep = result
	s.sweepMu.Unlock()
	return result, nil
}

// LastSweep returns the most recent sweep result, or nil if none ran.
func (s *Storage) LastSweep() *RetentionResult {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	return s.lastSweep
}

// ClearCollector deletes all spans, metrics and logs tagged with the
// given collector name, leaving other sources untouched. Used when a
// user discards a collector.
func (s *Storage) ClearCollector(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewConnectionError("failed to begin clear transaction", err)
	}
	for _, table := range []string{"spans", "metrics", "logs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE collector_name = ?", name); err != nil {
			tx.Rollback()
			return NewQueryError("failed to clear collector data", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return NewQueryError("failed to commit clear", err)
	}
	s.log.Info().Str("collector", name).Msg("cleared collector data")
	return nil
}

// StartRetentionWorker schedules periodic sweeps with the given
// policy. One sweep runs immediately; later runs fire every interval.
// The worker stops when the storage is closed.
func (s *Storage) StartRetentionWorker(policy RetentionPolicy, interval time.Duration) {
	if interval < time.Minute {
		interval = time.Minute
	}

	s.sweep(policy)

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() { s.sweep(policy) }); err != nil {
		s.log.Error().Err(err).Dur("interval", interval).
			Msg("failed to schedule retention sweeps")
		return
	}
	c.Start()
	s.stopFn = func() { c.Stop() }

	s.log.Info().
		Dur("interval", interval).
		Int("span_ttl_hours", policy.SpanTTLHours).
		Int("metric_ttl_hours", policy.MetricTTLHours).
		Int("log_ttl_hours", policy.LogTTLHours).
		Msg("retention worker started")
}

func (s *Storage) sweep(policy RetentionPolicy) {
	// Non-blocking: skip if a sweep is already in flight.
	select {
	case s.sweepRunning <- struct{}{}:
		defer func() { <-s.sweepRunning }()
	default:
		s.log.Warn().Msg("retention sweep already in progress, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := s.ApplyRetention(ctx, policy)
	if err != nil {
		s.log.Error().Err(err).Msg("retention sweep failed")
		return
	}
	s.log.Info().
		Int64("spans_deleted", result.SpansDeleted).
		Int64("metrics_deleted", result.MetricsDeleted).
		Int64("logs_deleted", result.LogsDeleted).
		Dur("duration", result.Duration).
		Msg("retention sweep completed")
}
