package server

import "sync"

// Counters accumulates received record counts across the lifetime of
// the process. Increments come from concurrent RPC handlers, so all
// mutation happens behind the internal mutex; callers never lock.
type Counters struct {
	mu           sync.Mutex
	spans        int64
	metricPoints int64
	logRecords   int64
}

// NewCounters creates a zeroed counter set.
func NewCounters() *Counters {
	return &Counters{}
}

// AddSpans records n accepted spans.
func (c *Counters) AddSpans(n int64) {
	c.mu.Lock()
	c.spans += n
	c.mu.Unlock()
}

// AddMetricPoints records n accepted metric data points.
func (c *Counters) AddMetricPoints(n int64) {
	c.mu.Lock()
	c.metricPoints += n
	c.mu.Unlock()
}

// AddLogRecords records n accepted log records.
func (c *Counters) AddLogRecords(n int64) {
	c.mu.Lock()
	c.logRecords += n
	c.mu.Unlock()
}

// Snapshot returns a consistent view of all three counters.
func (c *Counters) Snapshot() (spans, metricPoints, logRecords int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spans, c.metricPoints, c.logRecords
}
