package ingest

import (
	"context"

	"github.com/rs/zerolog"
	collectortracev1 "go.opentelemetry.io/proto/otlp/collector/trace/v1"

	"otelkeep/internal/convert"
	"otelkeep/internal/storage"
)

// TraceService implements the OTLP gRPC TraceService.
type TraceService struct {
	collectortracev1.UnimplementedTraceServiceServer
	store    Store
	counters Counters
	log      zerolog.Logger
}

// NewTraceService creates the trace export handler.
func NewTraceService(store Store, counters Counters, log zerolog.Logger) *TraceService {
	return &TraceService{
		store:    store,
		counters: counters,
		log:      log.With().Str("component", "ingest.traces").Logger(),
	}
}

// Export stores every span of the request in one transaction. Storage
// failure rejects the whole batch via the partial-success response;
// the RPC itself still succeeds, per OTLP convention.
func (s *TraceService) Export(ctx context.Context, req *collectortracev1.ExportTraceServiceRequest) (*collectortracev1.ExportTraceServiceResponse, error) {
	collector := resolveCollectorName(ctx, func() string {
		for _, rs := range req.GetResourceSpans() {
			if name := convert.ServiceName(rs.GetResource()); name != "" {
				return name
			}
		}
		return ""
	})

	var batch []storage.StoredSpan
	for _, rs := range req.GetResourceSpans() {
		res := rs.GetResource()
		for _, ss := range rs.GetScopeSpans() {
			scope := ss.GetScope()
			for _, span := range ss.GetSpans() {
				if span == nil {
					continue
				}
				batch = append(batch, convert.Span(span, res, scope, collector))
			}
		}
	}

	resp := &collectortracev1.ExportTraceServiceResponse{}
	if len(batch) == 0 {
		return resp, nil
	}

	if err := s.store.StoreSpans(ctx, batch); err != nil {
		s.log.Error().Err(err).Str("collector", collector).Int("spans", len(batch)).
			Msg("span batch rejected")
		resp.PartialSuccess = &collectortracev1.ExportTracePartialSuccess{
			RejectedSpans: int64(len(batch)),
			ErrorMessage:  err.Error(),
		}
		return resp, nil
	}

	s.counters.AddSpans(int64(len(batch)))
	s.log.Debug().Str("collector", collector).Int("spans", len(batch)).Msg("spans stored")
	return resp, nil
}
