package ingest

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

const (
	// collectorNameHeader carries an explicit, authoritative source
	// name set by the exporting collector's configuration.
	collectorNameHeader = "collector-name"

	// fallbackCollectorName tags telemetry whose origin could not be
	// determined at all. Identification must never fail the request.
	fallbackCollectorName = "default"
)

// resolveCollectorName determines the logical source of an export
// request. Priority: the collector-name metadata header, then a
// pattern match on the user-agent header, then the first non-empty
// service.name resource attribute in the payload, then "default".
func resolveCollectorName(ctx context.Context, firstServiceName func() string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(collectorNameHeader); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
		if vals := md.Get("user-agent"); len(vals) > 0 && vals[0] != "" {
			return nameFromUserAgent(vals[0])
		}
	}
	if name := firstServiceName(); name != "" {
		return name
	}
	return fallbackCollectorName
}

func nameFromUserAgent(ua string) string {
	switch {
	case strings.Contains(ua, "opentelemetry-collector"):
		return "otelcol"
	case strings.Contains(ua, "collector"):
		return "collector"
	default:
		return ua
	}
}
