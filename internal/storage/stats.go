package storage

import "context"

// Stats counts spans, metric points and log records per distinct
// collector_name observed across the three tables.
func (s *Storage) Stats(ctx context.Context) ([]CollectorStats, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT collector_name, SUM(spans), SUM(metrics), SUM(logs) FROM (
    SELECT collector_name, COUNT(*) AS spans, 0 AS metrics, 0 AS logs
    FROM spans GROUP BY collector_name
    UNION ALL
    SELECT collector_name, 0, COUNT(*), 0
    FROM metrics GROUP BY collector_name
    UNION ALL
    SELECT collector_name, 0, 0, COUNT(*)
    FROM logs GROUP BY collector_name
)
GROUP BY collector_name
ORDER BY collector_name`)
	if err != nil {
		return nil, NewQueryError("failed to query collector stats", err)
	}
	defer rows.Close()

	var stats []CollectorStats
	for rows.Next() {
		var c CollectorStats
		if err := rows.Scan(&c.CollectorName, &c.Spans, &c.Metrics, &c.Logs); err != nil {
			return nil, NewQueryError("failed to scan collector stats", err)
		}
		stats = append(stats, c)
	}
	return stats, rows.Err()
}
