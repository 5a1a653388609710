// Package ingest implements the three OTLP collector export services.
// Each handler resolves a logical collector name for the request,
// flattens the payload through internal/convert, writes the batch in
// one storage transaction and reports failures through the OTLP
// partial-success contract rather than RPC errors.
package ingest

import (
	"context"

	"otelkeep/internal/storage"
)

// Store is the write surface the export services depend on. Batches
// are all-or-none: an error means no row of the batch was persisted.
type Store interface {
	StoreSpans(ctx context.Context, spans []storage.StoredSpan) error
	StoreMetrics(ctx context.Context, metrics []storage.StoredMetric) error
	StoreLogs(ctx context.Context, logs []storage.StoredLog) error
}

// Counters receives accepted record counts. Implementations must be
// safe for concurrent use; handlers call these from per-RPC
// goroutines.
type Counters interface {
	AddSpans(n int64)
	AddMetricPoints(n int64)
	AddLogRecords(n int64)
}

// NopCounters discards all counts.
type NopCounters struct{}

func (NopCounters) AddSpans(int64)        {}
func (NopCounters) AddMetricPoints(int64) {}
func (NopCounters) AddLogRecords(int64)   {}
