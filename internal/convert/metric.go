package convert

import (
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	metricsv1 "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcev1 "go.opentelemetry.io/proto/otlp/resource/v1"

	"otelkeep/internal/storage"
)

// Metric type tags stored in the metrics.type column.
const (
	MetricTypeGauge        = "gauge"
	MetricTypeCounter      = "counter"
	MetricTypeSum          = "sum"
	MetricTypeHistogram    = "histogram"
	MetricTypeExpHistogram = "exponential_histogram"
	MetricTypeSummary      = "summary"
)

// Metric fans one OTLP metric out into storage rows, one per data
// point. Gauge and sum points carry their scalar value (ints widened
// to double); a monotonic sum is tagged "counter". Histogram,
// exponential histogram and summary points keep only the distribution
// sum as the stored value, which is null when the sum is absent.
// A metric with no recognized data variant produces no rows.
func Metric(m *metricsv1.Metric, res *resourcev1.Resource, scope *commonv1.InstrumentationScope, collectorName string) []storage.StoredMetric {
	base := storage.StoredMetric{
		CollectorName: collectorName,
		MetricName:    m.Name,
		Description:   m.Description,
		Unit:          m.Unit,
		ServiceName:   optional(ServiceName(res)),
		ResourceAttrs: resourceAttrsJSON(res),
	}
	if scope != nil {
		base.ScopeName = scope.Name
		base.ScopeVersion = scope.Version
		base.ScopeAttrs = AttributesJSON(scope.Attributes)
	} else {
		base.ScopeAttrs = "{}"
	}

	switch data := m.Data.(type) {
	case *metricsv1.Metric_Gauge:
		if data.Gauge == nil {
			return nil
		}
		return numberRows(base, MetricTypeGauge, data.Gauge.DataPoints)

	case *metricsv1.Metric_Sum:
		if data.Sum == nil {
			return nil
		}
		typ := MetricTypeSum
		if data.Sum.IsMonotonic {
			typ = MetricTypeCounter
		}
		return numberRows(base, typ, data.Sum.DataPoints)

	case *metricsv1.Metric_Histogram:
		if data.Histogram == nil {
			return nil
		}
		rows := make([]storage.StoredMetric, 0, len(data.Histogram.DataPoints))
		for _, dp := range data.Histogram.DataPoints {
			if dp == nil {
				continue
			}
			row := base
			row.Type = MetricTypeHistogram
			row.TimestampNanos = int64(dp.TimeUnixNano)
			row.Value = dp.Sum
			row.Attributes = AttributesJSON(dp.Attributes)
			rows = append(rows, row)
		}
		return rows

	case *metricsv1.Metric_ExponentialHistogram:
		if data.ExponentialHistogram == nil {
			return nil
		}
		rows := make([]storage.StoredMetric, 0, len(data.ExponentialHistogram.DataPoints))
		for _, dp := range data.ExponentialHistogram.DataPoints {
			if dp == nil {
				continue
			}
			row := base
			row.Type = MetricTypeExpHistogram
			row.TimestampNanos = int64(dp.TimeUnixNano)
			row.Value = dp.Sum
			row.Attributes = AttributesJSON(dp.Attributes)
			rows = append(rows, row)
		}
		return rows

	case *metricsv1.Metric_Summary:
		if data.Summary == nil {
			return nil
		}
		rows := make([]storage.StoredMetric, 0, len(data.Summary.DataPoints))
		for _, dp := range data.Summary.DataPoints {
			if dp == nil {
				continue
			}
			sum := dp.Sum
			row := base
			row.Type = MetricTypeSummary
			row.TimestampNanos = int64(dp.TimeUnixNano)
			row.Value = &sum
			row.Attributes = AttributesJSON(dp.Attributes)
			rows = append(rows, row)
		}
		return rows

	default:
		return nil
	}
}

func numberRows(base storage.StoredMetric, typ string, points []*metricsv1.NumberDataPoint) []storage.StoredMetric {
	rows := make([]storage.StoredMetric, 0, len(points))
	for _, dp := range points {
		if dp == nil {
			continue
		}
		row := base
		row.Type = typ
		row.TimestampNanos = int64(dp.TimeUnixNano)
		row.Attributes = AttributesJSON(dp.Attributes)
		switch v := dp.Value.(type) {
		case *metricsv1.NumberDataPoint_AsDouble:
			val := v.AsDouble
			row.Value = &val
		case *metricsv1.NumberDataPoint_AsInt:
			val := float64(v.AsInt)
			row.Value = &val
		}
		rows = append(rows, row)
	}
	return rows
}
