package phreduce

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordLoad is called after a matrix has been loaded.
	// columns and entries describe the loaded matrix; err is nil if successful.
	RecordLoad(columns int, entries uint64, duration time.Duration, err error)

	// RecordReduce is called after each Reduce call.
	RecordReduce(engine string, stats Stats, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, uint64, time.Duration, error)     {}
func (NoopMetricsCollector) RecordReduce(string, Stats, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadColumns      atomic.Int64
	LoadEntries      atomic.Int64
	LoadTotalNanos   atomic.Int64
	ReduceCount      atomic.Int64
	ReduceErrors     atomic.Int64
	ReduceMerges     atomic.Int64
	ReducePasses     atomic.Int64
	ReduceWidens     atomic.Int64
	ReduceTotalNanos atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(columns int, entries uint64, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadColumns.Add(int64(columns))
	b.LoadEntries.Add(int64(entries)) //nolint:gosec // entry counts are far below MaxInt64
}

// RecordReduce implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReduce(_ string, stats Stats, duration time.Duration, err error) {
	b.ReduceCount.Add(1)
	b.ReduceTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReduceErrors.Add(1)
		return
	}
	b.ReduceMerges.Add(int64(stats.Merges)) //nolint:gosec // counts are far below MaxInt64
	b.ReducePasses.Add(int64(stats.Passes)) //nolint:gosec // counts are far below MaxInt64
	b.ReduceWidens.Add(int64(stats.Widens)) //nolint:gosec // counts are far below MaxInt64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadColumns:    b.LoadColumns.Load(),
		LoadEntries:    b.LoadEntries.Load(),
		LoadAvgNanos:   avg(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		ReduceCount:    b.ReduceCount.Load(),
		ReduceErrors:   b.ReduceErrors.Load(),
		ReduceMerges:   b.ReduceMerges.Load(),
		ReducePasses:   b.ReducePasses.Load(),
		ReduceWidens:   b.ReduceWidens.Load(),
		ReduceAvgNanos: avg(b.ReduceTotalNanos.Load(), b.ReduceCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount      int64
	LoadErrors     int64
	LoadColumns    int64
	LoadEntries    int64
	LoadAvgNanos   int64
	ReduceCount    int64
	ReduceErrors   int64
	ReduceMerges   int64
	ReducePasses   int64
	ReduceWidens   int64
	ReduceAvgNanos int64
}
