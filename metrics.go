package bowgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; a
// Prometheus-backed implementation ships with this package.
type MetricsCollector interface {
	// RecordTrain is called after each vocabulary training run.
	RecordTrain(duration time.Duration, err error)

	// RecordAdd is called after each database insertion.
	RecordAdd(duration time.Duration, err error)

	// RecordQuery is called after each query.
	// topN is the number of results requested.
	RecordQuery(topN int, duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot save or load.
	RecordSnapshot(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTrain(time.Duration, error)      {}
func (NoopMetricsCollector) RecordAdd(time.Duration, error)        {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	TrainCount      atomic.Int64
	TrainErrors     atomic.Int64
	AddCount        atomic.Int64
	AddErrors       atomic.Int64
	AddTotalNanos   atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
	SnapshotCount   atomic.Int64
	SnapshotErrors  atomic.Int64
}

// RecordTrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrain(duration time.Duration, err error) {
	b.TrainCount.Add(1)
	if err != nil {
		b.TrainErrors.Add(1)
	}
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(topN int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector counters.
type BasicMetricsStats struct {
	TrainCount     int64
	TrainErrors    int64
	AddCount       int64
	AddErrors      int64
	AddAvgNanos    int64
	QueryCount     int64
	QueryErrors    int64
	QueryAvgNanos  int64
	SnapshotCount  int64
	SnapshotErrors int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	stats := BasicMetricsStats{
		TrainCount:     b.TrainCount.Load(),
		TrainErrors:    b.TrainErrors.Load(),
		AddCount:       b.AddCount.Load(),
		AddErrors:      b.AddErrors.Load(),
		QueryCount:     b.QueryCount.Load(),
		QueryErrors:    b.QueryErrors.Load(),
		SnapshotCount:  b.SnapshotCount.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
	}
	if stats.AddCount > 0 {
		stats.AddAvgNanos = b.AddTotalNanos.Load() / stats.AddCount
	}
	if stats.QueryCount > 0 {
		stats.QueryAvgNanos = b.QueryTotalNanos.Load() / stats.QueryCount
	}
	return stats
}
