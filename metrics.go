package scgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    materializeHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordMaterialize(components int, duration time.Duration, err error) {
//	    p.materializeHistogram.Observe(duration.Seconds())
//	    // ... record error state, component count, etc.
//	}
type MetricsCollector interface {
	// RecordCatalogBuild is called after the catalog is built at Open.
	// duration is the total time taken, err is nil if successful.
	RecordCatalogBuild(duration time.Duration, err error)

	// RecordMaterialize is called after each materialize operation.
	// components is the number of planned identifiers.
	RecordMaterialize(components int, duration time.Duration, err error)

	// RecordAppend is called after each append operation.
	// components is the number of planned identifiers before delta
	// subtraction.
	RecordAppend(components int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCatalogBuild(time.Duration, error)     {}
func (NoopMetricsCollector) RecordMaterialize(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordAppend(int, time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CatalogBuildCount     atomic.Int64
	CatalogBuildErrors    atomic.Int64
	MaterializeCount      atomic.Int64
	MaterializeErrors     atomic.Int64
	MaterializeComponents atomic.Int64
	MaterializeTotalNanos atomic.Int64
	AppendCount           atomic.Int64
	AppendErrors          atomic.Int64
	AppendComponents      atomic.Int64
	AppendTotalNanos      atomic.Int64
}

// RecordCatalogBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCatalogBuild(duration time.Duration, err error) {
	b.CatalogBuildCount.Add(1)
	if err != nil {
		b.CatalogBuildErrors.Add(1)
	}
}

// RecordMaterialize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMaterialize(components int, duration time.Duration, err error) {
	b.MaterializeCount.Add(1)
	b.MaterializeComponents.Add(int64(components))
	b.MaterializeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MaterializeErrors.Add(1)
	}
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(components int, duration time.Duration, err error) {
	b.AppendCount.Add(1)
	b.AppendComponents.Add(int64(components))
	b.AppendTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AppendErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CatalogBuildCount:     b.CatalogBuildCount.Load(),
		CatalogBuildErrors:    b.CatalogBuildErrors.Load(),
		MaterializeCount:      b.MaterializeCount.Load(),
		MaterializeErrors:     b.MaterializeErrors.Load(),
		MaterializeComponents: b.MaterializeComponents.Load(),
		MaterializeAvgNanos:   avgNanos(&b.MaterializeTotalNanos, &b.MaterializeCount),
		AppendCount:           b.AppendCount.Load(),
		AppendErrors:          b.AppendErrors.Load(),
		AppendComponents:      b.AppendComponents.Load(),
		AppendAvgNanos:        avgNanos(&b.AppendTotalNanos, &b.AppendCount),
	}
}

func avgNanos(total, count *atomic.Int64) int64 {
	c := count.Load()
	if c == 0 {
		return 0
	}
	return total.Load() / c
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CatalogBuildCount     int64
	CatalogBuildErrors    int64
	MaterializeCount      int64
	MaterializeErrors     int64
	MaterializeComponents int64
	MaterializeAvgNanos   int64
	AppendCount           int64
	AppendErrors          int64
	AppendComponents      int64
	AppendAvgNanos        int64
}
