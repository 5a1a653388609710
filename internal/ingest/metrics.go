package ingest

import (
	"context"

	"github.com/rs/zerolog"
	collectormetricsv1 "go.opentelemetry.io/proto/otlp/collector/metrics/v1"

	"otelkeep/internal/convert"
	"otelkeep/internal/storage"
)

// MetricsService implements the OTLP gRPC MetricsService.
type MetricsService struct {
	collectormetricsv1.UnimplementedMetricsServiceServer
	store    Store
	counters Counters
	log      zerolog.Logger
}

// NewMetricsService creates the metrics export handler.
func NewMetricsService(store Store, counters Counters, log zerolog.Logger) *MetricsService {
	return &MetricsService{
		store:    store,
		counters: counters,
		log:      log.With().Str("component", "ingest.metrics").Logger(),
	}
}

// Export fans every metric out into data point rows and stores them in
// one transaction. The rejected count of the partial-success response
// is data points, not metrics.
func (s *MetricsService) Export(ctx context.Context, req *collectormetricsv1.ExportMetricsServiceRequest) (*collectormetricsv1.ExportMetricsServiceResponse, error) {
	collector := resolveCollectorName(ctx, func() string {
		for _, rm := range req.GetResourceMetrics() {
			if name := convert.ServiceName(rm.GetResource()); name != "" {
				return name
			}
		}
		return ""
	})

	var batch []storage.StoredMetric
	for _, rm := range req.GetResourceMetrics() {
		res := rm.GetResource()
		for _, sm := range rm.GetScopeMetrics() {
			scope := sm.GetScope()
			for _, m := range sm.GetMetrics() {
				if m == nil {
					continue
				}
				batch = append(batch, convert.Metric(m, res, scope, collector)...)
			}
		}
	}

	resp := &collectormetricsv1.ExportMetricsServiceResponse{}
	if len(batch) == 0 {
		return resp, nil
	}

	if err := s.store.StoreMetrics(ctx, batch); err != nil {
		s.log.Error().Err(err).Str("collector", collector).Int("data_points", len(batch)).
			Msg("metric batch rejected")
		resp.PartialSuccess = &collectormetricsv1.ExportMetricsPartialSuccess{
			RejectedDataPoints: int64(len(batch)),
			ErrorMessage:       err.Error(),
		}
		return resp, nil
	}

	s.counters.AddMetricPoints(int64(len(batch)))
	s.log.Debug().Str("collector", collector).Int("data_points", len(batch)).Msg("metrics stored")
	return resp, nil
}
