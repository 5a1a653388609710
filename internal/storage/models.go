package storage

// Row types persisted by the engine. Spans, metric data points and log
// records are flattened by internal/convert before they reach the write
// path; once inserted they are immutable until a retention sweep or an
// explicit clear removes them.

// StoredSpan is one row in the spans table.
type StoredSpan struct {
	CollectorName  string
	TraceID        string
	SpanID         string
	ParentSpanID   string // empty marks a root span, stored as NULL
	OperationName  string
	ServiceName    *string
	StartTimeNanos int64
	EndTimeNanos   int64
	DurationNanos  int64
	StatusCode     int32
	StatusMessage  string
	Kind           int32
	Attributes     string // JSON object
	Events         string // JSON array of SpanEvent
	Links          string // JSON array of SpanLink
	ResourceAttrs  string // JSON object
	ScopeName      string
	ScopeVersion   string
	ScopeAttrs     string // JSON object
}

// SpanEvent is the JSON element stored in StoredSpan.Events.
type SpanEvent struct {
	Name         string         `json:"name"`
	TimeNanos    int64          `json:"time_nanos"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	DroppedCount uint32         `json:"dropped_count,omitempty"`
}

// SpanLink is the JSON element stored in StoredSpan.Links.
type SpanLink struct {
	TraceID      string         `json:"trace_id"`
	SpanID       string         `json:"span_id"`
	TraceState   string         `json:"trace_state,omitempty"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	DroppedCount uint32         `json:"dropped_count,omitempty"`
}

// StoredMetric is one row in the metrics table, one per data point.
type StoredMetric struct {
	CollectorName  string
	MetricName     string
	Description    string
	Unit           string
	Type           string // gauge|counter|sum|histogram|exponential_histogram|summary
	ServiceName    *string
	TimestampNanos int64
	Value          *float64
	Attributes     string // JSON object, data point attributes
	ResourceAttrs  string // JSON object
	ScopeName      string
	ScopeVersion   string
	ScopeAttrs     string // JSON object
}

// StoredLog is one row in the logs table.
type StoredLog struct {
	CollectorName  string
	TimestampNanos int64
	SeverityText   *string
	SeverityNumber *int32
	Body           string
	ServiceName    *string
	TraceID        *string
	SpanID         *string
	Attributes     string // JSON object
	ResourceAttrs  string // JSON object
	ScopeName      string
	ScopeVersion   string
	ScopeAttrs     string // JSON object
}

// TraceSummary is a per-trace aggregate computed by RecentTraces.
type TraceSummary struct {
	TraceID        string
	RootOperation  string
	RootService    *string
	StartTimeNanos int64
	EndTimeNanos   int64
	SpanCount      int64
	ErrorCount     int64
}

// TraceSpan is a span decoded for display by TraceSpans.
type TraceSpan struct {
	SpanID         string
	ParentSpanID   string
	OperationName  string
	ServiceName    *string
	StartTimeNanos int64
	EndTimeNanos   int64
	DurationNanos  int64
	StatusCode     int32
	StatusMessage  string
	Kind           int32
	Attributes     map[string]any
	Events         []SpanEvent
	Links          []SpanLink
}

// MetricDescriptor is one entry of the metric catalog.
type MetricDescriptor struct {
	MetricName    string
	Type          string
	Unit          string
	SampleCount   int64
	ServiceCount  int64
	LatestTSNanos int64
}

// MetricPoint is one bucket of an aggregated metric series.
type MetricPoint struct {
	BucketStartNanos int64
	ServiceName      *string
	AvgValue         float64
	SampleCount      int64
}

// LogEntry is a log row as returned by RecentLogs and SearchLogs.
type LogEntry struct {
	TimestampNanos int64
	SeverityText   *string
	SeverityNumber *int32
	Body           string
	ServiceName    *string
	TraceID        *string
	SpanID         *string
	Attributes     map[string]any
}

// CollectorStats counts rows per logical collector across the three tables.
type CollectorStats struct {
	CollectorName string
	Spans         int64
	Metrics       int64
	Logs          int64
}

// QueryResult carries the outcome of an ad-hoc read-only query.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}
