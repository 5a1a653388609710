package storage

import (
	"context"
	"database/sql"
)

// metricCatalogCap bounds the catalog listing.
const metricCatalogCap = 200

// MetricCatalog lists distinct (metric_name, type, unit) groups with
// sample counts, distinct-service counts and the latest timestamp,
// most recent first, capped at 200 entries.
func (s *Storage) MetricCatalog(ctx context.Context, collector string) ([]MetricDescriptor, error) {
	query := `
SELECT metric_name, type, unit, COUNT(*),
       COUNT(DISTINCT service_name), MAX(timestamp_nanos)
FROM metrics`

	var args []any
	if collector != "" {
		query += " WHERE collector_name = ?"
		args = append(args, collector)
	}
	query += `
GROUP BY metric_name, type, unit
ORDER BY MAX(timestamp_nanos) DESC
LIMIT ?`
	args = append(args, metricCatalogCap)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewQueryError("failed to query metric catalog", err)
	}
	defer rows.Close()

	var descriptors []MetricDescriptor
	for rows.Next() {
		var d MetricDescriptor
		if err := rows.Scan(&d.MetricName, &d.Type, &d.Unit,
			&d.SampleCount, &d.ServiceCount, &d.LatestTSNanos); err != nil {
			return nil, NewQueryError("failed to scan metric descriptor", err)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, rows.Err()
}

// MetricSeries buckets a metric's samples into fixed windows of
// bucketSeconds (minimum 1s) via integer-division truncation, grouped
// by service, averaging the value per bucket. Null-valued samples are
// excluded before averaging, so a bucket holding only null samples
// produces no row. fromNanos/toNanos bound the window; zero toNanos
// means unbounded.
func (s *Storage) MetricSeries(ctx context.Context, metricName, collector string, fromNanos, toNanos int64, bucketSeconds int64) ([]MetricPoint, error) {
	if bucketSeconds < 1 {
		bucketSeconds = 1
	}
	bucketNanos := bucketSeconds * int64(1e9)

	query := `
SELECT (timestamp_nanos / ?) * ? AS bucket_start,
       service_name, AVG(value), COUNT(value)
FROM metrics
WHERE metric_name = ? AND value IS NOT NULL AND timestamp_nanos >= ?`
	args := []any{bucketNanos, bucketNanos, metricName, fromNanos}

	if toNanos > 0 {
		query += " AND timestamp_nanos < ?"
		args = append(args, toNanos)
	}
	if collector != "" {
		query += " AND collector_name = ?"
		args = append(args, collector)
	}
	query += `
GROUP BY bucket_start, service_name
ORDER BY bucket_start ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewQueryError("failed to query metric series", err)
	}
	defer rows.Close()

	var points []MetricPoint
	for rows.Next() {
		var p MetricPoint
		var service sql.NullString
		if err := rows.Scan(&p.BucketStartNanos, &service, &p.AvgValue, &p.SampleCount); err != nil {
			return nil, NewQueryError("failed to scan metric point", err)
		}
		if service.Valid {
			svc := service.String
			p.ServiceName = &svc
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
