package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	collectorlogsv1 "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	collectormetricsv1 "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	collectortracev1 "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	logsv1 "go.opentelemetry.io/proto/otlp/logs/v1"
	metricsv1 "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcev1 "go.opentelemetry.io/proto/otlp/resource/v1"
	tracev1 "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/grpc/metadata"

	"otelkeep/internal/storage"
)

// stubStore records batches and optionally fails every write.
type stubStore struct {
	mu      sync.Mutex
	err     error
	spans   []storage.StoredSpan
	metrics []storage.StoredMetric
	logs    []storage.StoredLog
}

func (s *stubStore) StoreSpans(_ context.Context, spans []storage.StoredSpan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.spans = append(s.spans, spans...)
	return nil
}

func (s *stubStore) StoreMetrics(_ context.Context, metrics []storage.StoredMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.metrics = append(s.metrics, metrics...)
	return nil
}

func (s *stubStore) StoreLogs(_ context.Context, logs []storage.StoredLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, logs...)
	return nil
}

// countingCounters records totals for assertions.
type countingCounters struct {
	mu      sync.Mutex
	spans   int64
	points  int64
	records int64
}

func (c *countingCounters) AddSpans(n int64) {
	c.mu.Lock()
	c.spans += n
	c.mu.Unlock()
}

func (c *countingCounters) AddMetricPoints(n int64) {
	c.mu.Lock()
	c.points += n
	c.mu.Unlock()
}

func (c *countingCounters) AddLogRecords(n int64) {
	c.mu.Lock()
	c.records += n
	c.mu.Unlock()
}

func mdContext(pairs ...string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(pairs...))
}

func resourceWithService(name string) *resourcev1.Resource {
	return &resourcev1.Resource{Attributes: []*commonv1.KeyValue{{
		Key:   "service.name",
		Value: &commonv1.AnyValue{Value: &commonv1.AnyValue_StringValue{StringValue: name}},
	}}}
}

func traceRequest(service string, spanCount int) *collectortracev1.ExportTraceServiceRequest {
	spans := make([]*tracev1.Span, spanCount)
	for i := range spans {
		spans[i] = &tracev1.Span{
			TraceId: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
			SpanId:  []byte{1, 2, 3, 4, 5, 6, 7, byte(i)},
			Name:    "op",
		}
	}
	return &collectortracev1.ExportTraceServiceRequest{
		ResourceSpans: []*tracev1.ResourceSpans{{
			Resource:   resourceWithService(service),
			ScopeSpans: []*tracev1.ScopeSpans{{Spans: spans}},
		}},
	}
}

func TestResolveCollectorNameHeaderWins(t *testing.T) {
	ctx := mdContext("collector-name", "foo", "user-agent", "grpc-go/1.69.0")
	name := resolveCollectorName(ctx, func() string { return "checkout" })
	assert.Equal(t, "foo", name)
}

func TestResolveCollectorNameUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"opentelemetry-collector/0.90.0", "otelcol"},
		{"my-collector/1.0", "collector"},
		{"custom-agent/2.1", "custom-agent/2.1"},
	}
	for _, tt := range tests {
		ctx := mdContext("user-agent", tt.ua)
		name := resolveCollectorName(ctx, func() string { return "" })
		assert.Equal(t, tt.want, name)
	}
}

func TestResolveCollectorNameServiceNameFallback(t *testing.T) {
	name := resolveCollectorName(context.Background(), func() string { return "checkout" })
	assert.Equal(t, "checkout", name)
}

func TestResolveCollectorNameDefault(t *testing.T) {
	name := resolveCollectorName(context.Background(), func() string { return "" })
	assert.Equal(t, "default", name)
}

func TestTraceExportStoresSpans(t *testing.T) {
	store := &stubStore{}
	counters := &countingCounters{}
	svc := NewTraceService(store, counters, zerolog.Nop())

	resp, err := svc.Export(mdContext("collector-name", "foo"), traceRequest("checkout", 2))
	require.NoError(t, err)
	assert.Nil(t, resp.PartialSuccess)

	require.Len(t, store.spans, 2)
	assert.Equal(t, "foo", store.spans[0].CollectorName)
	assert.Equal(t, int64(2), counters.spans)
}

func TestTraceExportUsesServiceNameWithoutMetadata(t *testing.T) {
	store := &stubStore{}
	svc := NewTraceService(store, NopCounters{}, zerolog.Nop())

	_, err := svc.Export(context.Background(), traceRequest("checkout", 1))
	require.NoError(t, err)
	require.Len(t, store.spans, 1)
	assert.Equal(t, "checkout", store.spans[0].CollectorName)
}

func TestTraceExportRejectsWholeBatchOnStorageFailure(t *testing.T) {
	store := &stubStore{err: errors.New("disk full")}
	counters := &countingCounters{}
	svc := NewTraceService(store, counters, zerolog.Nop())

	resp, err := svc.Export(context.Background(), traceRequest("checkout", 3))
	require.NoError(t, err, "storage failure is data-plane, not an rpc error")
	require.NotNil(t, resp.PartialSuccess)
	assert.Equal(t, int64(3), resp.PartialSuccess.RejectedSpans)
	assert.Contains(t, resp.PartialSuccess.ErrorMessage, "disk full")
	assert.Equal(t, int64(0), counters.spans, "rejected records are not counted")

	// The same request succeeds once the sink recovers.
	store.err = nil
	resp, err = svc.Export(context.Background(), traceRequest("checkout", 3))
	require.NoError(t, err)
	assert.Nil(t, resp.PartialSuccess)
	assert.Equal(t, int64(3), counters.spans)
}

func TestTraceExportEmptyRequest(t *testing.T) {
	store := &stubStore{err: errors.New("must not be called")}
	svc := NewTraceService(store, NopCounters{}, zerolog.Nop())

	resp, err := svc.Export(context.Background(), &collectortracev1.ExportTraceServiceRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.PartialSuccess)
}

func TestMetricsExportFansOutDataPoints(t *testing.T) {
	store := &stubStore{}
	counters := &countingCounters{}
	svc := NewMetricsService(store, counters, zerolog.Nop())

	req := &collectormetricsv1.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricsv1.ResourceMetrics{{
			Resource: resourceWithService("checkout"),
			ScopeMetrics: []*metricsv1.ScopeMetrics{{
				Metrics: []*metricsv1.Metric{{
					Name: "requests",
					Data: &metricsv1.Metric_Gauge{Gauge: &metricsv1.Gauge{
						DataPoints: []*metricsv1.NumberDataPoint{
							{TimeUnixNano: 1, Value: &metricsv1.NumberDataPoint_AsDouble{AsDouble: 1}},
							{TimeUnixNano: 2, Value: &metricsv1.NumberDataPoint_AsDouble{AsDouble: 2}},
						},
					}},
				}},
			}},
		}},
	}

	resp, err := svc.Export(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, resp.PartialSuccess)
	assert.Len(t, store.metrics, 2)
	assert.Equal(t, int64(2), counters.points)
	assert.Equal(t, "checkout", store.metrics[0].CollectorName)
}

func TestMetricsExportRejectedCountIsDataPoints(t *testing.T) {
	store := &stubStore{err: errors.New("down")}
	svc := NewMetricsService(store, NopCounters{}, zerolog.Nop())

	req := &collectormetricsv1.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricsv1.ResourceMetrics{{
			ScopeMetrics: []*metricsv1.ScopeMetrics{{
				Metrics: []*metricsv1.Metric{{
					Name: "requests",
					Data: &metricsv1.Metric_Gauge{Gauge: &metricsv1.Gauge{
						DataPoints: []*metricsv1.NumberDataPoint{
							{TimeUnixNano: 1}, {TimeUnixNano: 2}, {TimeUnixNano: 3},
						},
					}},
				}},
			}},
		}},
	}

	resp, err := svc.Export(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.PartialSuccess)
	assert.Equal(t, int64(3), resp.PartialSuccess.RejectedDataPoints)
}

func TestLogsExport(t *testing.T) {
	store := &stubStore{}
	counters := &countingCounters{}
	svc := NewLogsService(store, counters, zerolog.Nop())

	req := &collectorlogsv1.ExportLogsServiceRequest{
		ResourceLogs: []*logsv1.ResourceLogs{{
			Resource: resourceWithService("checkout"),
			ScopeLogs: []*logsv1.ScopeLogs{{
				LogRecords: []*logsv1.LogRecord{{
					TimeUnixNano: 1,
					Body:         &commonv1.AnyValue{Value: &commonv1.AnyValue_StringValue{StringValue: "hello"}},
				}},
			}},
		}},
	}

	resp, err := svc.Export(mdContext("collector-name", "foo"), req)
	require.NoError(t, err)
	assert.Nil(t, resp.PartialSuccess)
	require.Len(t, store.logs, 1)
	assert.Equal(t, "foo", store.logs[0].CollectorName)
	assert.Equal(t, "hello", store.logs[0].Body)
	assert.Equal(t, int64(1), counters.records)
}

func TestLogsExportStorageFailure(t *testing.T) {
	store := &stubStore{err: errors.New("down")}
	svc := NewLogsService(store, NopCounters{}, zerolog.Nop())

	req := &collectorlogsv1.ExportLogsServiceRequest{
		ResourceLogs: []*logsv1.ResourceLogs{{
			ScopeLogs: []*logsv1.ScopeLogs{{
				LogRecords: []*logsv1.LogRecord{{TimeUnixNano: 1}, {TimeUnixNano: 2}},
			}},
		}},
	}

	resp, err := svc.Export(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.PartialSuccess)
	assert.Equal(t, int64(2), resp.PartialSuccess.RejectedLogRecords)
}
