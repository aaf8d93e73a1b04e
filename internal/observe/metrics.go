// Package observe provides application-wide observability primitives for
// Lorekeep: OpenTelemetry metrics with a Prometheus exporter bridge.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Lorekeep metrics.
const meterName = "github.com/MrWong99/lorekeep"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SearchDuration tracks retrieval latency. Use with attributes:
	//   attribute.String("path", "index"|"fallback"), attribute.String("kind", ...)
	SearchDuration metric.Float64Histogram

	// FallbackSearches counts searches answered by the keyword fallback.
	// Use with attribute: attribute.String("reason", "no_index"|"index_error")
	FallbackSearches metric.Int64Counter

	// IndexErrors counts failed similarity-index calls by operation.
	// Use with attribute: attribute.String("op", ...)
	IndexErrors metric.Int64Counter

	// MirrorWrites counts repository mirror writes. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	MirrorWrites metric.Int64Counter

	// QuestTransitions counts applied quest status transitions. Use with
	// attribute: attribute.String("to", ...)
	QuestTransitions metric.Int64Counter

	// EntityCount tracks the number of records held in the repository.
	EntityCount metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// in-process retrieval plus one remote index round trip.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SearchDuration, err = m.Float64Histogram("lorekeep.search.duration",
		metric.WithDescription("Latency of entity retrieval by path and kind."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FallbackSearches, err = m.Int64Counter("lorekeep.search.fallbacks",
		metric.WithDescription("Searches answered by the keyword fallback, by reason."),
	); err != nil {
		return nil, err
	}
	if met.IndexErrors, err = m.Int64Counter("lorekeep.index.errors",
		metric.WithDescription("Failed similarity-index calls by operation."),
	); err != nil {
		return nil, err
	}
	if met.MirrorWrites, err = m.Int64Counter("lorekeep.mirror.writes",
		metric.WithDescription("Repository mirror writes by status."),
	); err != nil {
		return nil, err
	}
	if met.QuestTransitions, err = m.Int64Counter("lorekeep.quest.transitions",
		metric.WithDescription("Applied quest status transitions by target status."),
	); err != nil {
		return nil, err
	}
	if met.EntityCount, err = m.Int64UpDownCounter("lorekeep.entities",
		metric.WithDescription("Number of records held in the repository."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Panics if instrument
// creation fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// Attrs wraps attributes into a measurement option for counter and
// histogram call sites.
func Attrs(kvs ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(kvs...)
}

// RecordSearch records one search with its duration in seconds.
func (m *Metrics) RecordSearch(ctx context.Context, path, kind string, seconds float64) {
	m.SearchDuration.Record(ctx, seconds,
		metric.WithAttributes(Attr("path", path), Attr("kind", kind)))
}
