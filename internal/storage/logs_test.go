package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentLogsOrderedByTimestamp(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.StoreLogs(ctx, []StoredLog{
		testLog("foo", "first", 1_000, i32Ptr(9)),
		testLog("foo", "second", 2_000, i32Ptr(13)),
	}))

	logs, err := s.RecentLogs(ctx, 10, "", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "second", logs[0].Body)
	assert.Equal(t, "first", logs[1].Body)
}

func TestRecentLogsSeverityThreshold(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.StoreLogs(ctx, []StoredLog{
		testLog("foo", "info msg", 1_000, i32Ptr(9)),
		testLog("foo", "error msg", 2_000, i32Ptr(17)),
		testLog("foo", "no severity", 3_000, nil),
	}))

	logs, err := s.RecentLogs(ctx, 10, "", 17)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "error msg", logs[0].Body)

	// Threshold zero disables the filter; null severities come back.
	logs, err = s.RecentLogs(ctx, 10, "", 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Nil(t, logs[0].SeverityNumber)
}

func TestRecentLogsCollectorFilter(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.StoreLogs(ctx, []StoredLog{
		testLog("foo", "from foo", 1_000, nil),
		testLog("bar", "from bar", 2_000, nil),
	}))

	logs, err := s.RecentLogs(ctx, 10, "bar", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "from bar", logs[0].Body)
}

func TestLogRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	in := testLog("foo", "connection refused", 1_000, i32Ptr(17))
	in.SeverityText = strPtr("ERROR")
	in.TraceID = strPtr("trace-1")
	in.SpanID = strPtr("span-a")
	in.Attributes = `{"component":"db"}`
	require.NoError(t, s.StoreLogs(ctx, []StoredLog{in}))

	logs, err := s.RecentLogs(ctx, 1, "", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	got := logs[0]
	assert.Equal(t, int64(1_000), got.TimestampNanos)
	require.NotNil(t, got.SeverityText)
	assert.Equal(t, "ERROR", *got.SeverityText)
	require.NotNil(t, got.SeverityNumber)
	assert.Equal(t, int32(17), *got.SeverityNumber)
	assert.Equal(t, "connection refused", got.Body)
	require.NotNil(t, got.TraceID)
	assert.Equal(t, "trace-1", *got.TraceID)
	require.NotNil(t, got.SpanID)
	assert.Equal(t, "span-a", *got.SpanID)
	assert.Equal(t, map[string]any{"component": "db"}, got.Attributes)
}

func TestSearchLogs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.StoreLogs(ctx, []StoredLog{
		testLog("foo", "connection refused by upstream", 1_000, nil),
		testLog("foo", "request completed", 2_000, nil),
		testLog("foo", "upstream timeout while connecting", 3_000, nil),
	}))

	logs, err := s.SearchLogs(ctx, "upstream", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "upstream timeout while connecting", logs[0].Body, "newest match first")
	assert.Equal(t, "connection refused by upstream", logs[1].Body)
}

func TestSearchLogsNoMatches(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.StoreLogs(ctx, []StoredLog{
		testLog("foo", "all quiet", 1_000, nil),
	}))

	logs, err := s.SearchLogs(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
