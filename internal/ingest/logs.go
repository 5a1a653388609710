package ingest

import (
	"context"

	"github.com/rs/zerolog"
	collectorlogsv1 "go.opentelemetry.io/proto/otlp/collector/logs/v1"

	"otelkeep/internal/convert"
	"otelkeep/internal/storage"
)

// LogsService implements the OTLP gRPC LogsService.
type LogsService struct {
	collectorlogsv1.UnimplementedLogsServiceServer
	store    Store
	counters Counters
	log      zerolog.Logger
}

// NewLogsService creates the logs export handler.
func NewLogsService(store Store, counters Counters, log zerolog.Logger) *LogsService {
	return &LogsService{
		store:    store,
		counters: counters,
		log:      log.With().Str("component", "ingest.logs").Logger(),
	}
}

// Export stores every log record of the request in one transaction.
func (s *LogsService) Export(ctx context.Context, req *collectorlogsv1.ExportLogsServiceRequest) (*collectorlogsv1.ExportLogsServiceResponse, error) {
	collector := resolveCollectorName(ctx, func() string {
		for _, rl := range req.GetResourceLogs() {
			if name := convert.ServiceName(rl.GetResource()); name != "" {
				return name
			}
		}
		return ""
	})

	var batch []storage.StoredLog
	for _, rl := range req.GetResourceLogs() {
		res := rl.GetResource()
		for _, sl := range rl.GetScopeLogs() {
			scope := sl.GetScope()
			for _, lr := range sl.GetLogRecords() {
				if lr == nil {
					continue
				}
				batch = append(batch, convert.Log(lr, res, scope, collector))
			}
		}
	}

	resp := &collectorlogsv1.ExportLogsServiceResponse{}
	if len(batch) == 0 {
		return resp, nil
	}

	if err := s.store.StoreLogs(ctx, batch); err != nil {
		s.log.Error().Err(err).Str("collector", collector).Int("log_records", len(batch)).
			Msg("log batch rejected")
		resp.PartialSuccess = &collectorlogsv1.ExportLogsPartialSuccess{
			RejectedLogRecords: int64(len(batch)),
			ErrorMessage:       err.Error(),
		}
		return resp, nil
	}

	s.counters.AddLogRecords(int64(len(batch)))
	s.log.Debug().Str("collector", collector).Int("log_records", len(batch)).Msg("logs stored")
	return resp, nil
}
