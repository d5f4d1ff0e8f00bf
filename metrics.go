package scenegraph

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// observability package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordNodeInsert is called after each node insertion attempt.
	RecordNodeInsert(layer LayerID, err error)

	// RecordEdgeInsert is called after an edge is stored.
	RecordEdgeInsert(interLayer bool)

	// RecordEdgeCorrection is called when an inter-layer edge was submitted
	// child first and stored reversed.
	RecordEdgeCorrection(parent, child LayerID)

	// RecordQuery is called after each nearest neighbour query.
	// k is the number of neighbours requested, found the number returned.
	RecordQuery(k, found int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordNodeInsert(LayerID, error)       {}
func (NoopMetricsCollector) RecordEdgeInsert(bool)                 {}
func (NoopMetricsCollector) RecordEdgeCorrection(LayerID, LayerID) {}
func (NoopMetricsCollector) RecordQuery(int, int, time.Duration)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	NodeInserts     atomic.Int64
	NodeErrors      atomic.Int64
	IntraEdges      atomic.Int64
	InterEdges      atomic.Int64
	Corrections     atomic.Int64
	QueryCount      atomic.Int64
	QueryResults    atomic.Int64
	QueryTotalNanos atomic.Int64
}

// RecordNodeInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordNodeInsert(_ LayerID, err error) {
	if err != nil {
		b.NodeErrors.Add(1)
		return
	}
	b.NodeInserts.Add(1)
}

// RecordEdgeInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEdgeInsert(interLayer bool) {
	if interLayer {
		b.InterEdges.Add(1)
		return
	}
	b.IntraEdges.Add(1)
}

// RecordEdgeCorrection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEdgeCorrection(LayerID, LayerID) {
	b.Corrections.Add(1)
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_, found int, duration time.Duration) {
	b.QueryCount.Add(1)
	b.QueryResults.Add(int64(found))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
}

// Stats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) Stats() BasicMetricsStats {
	s := BasicMetricsStats{
		NodeInserts:  b.NodeInserts.Load(),
		NodeErrors:   b.NodeErrors.Load(),
		IntraEdges:   b.IntraEdges.Load(),
		InterEdges:   b.InterEdges.Load(),
		Corrections:  b.Corrections.Load(),
		QueryCount:   b.QueryCount.Load(),
		QueryResults: b.QueryResults.Load(),
	}
	if s.QueryCount > 0 {
		s.QueryAvgNanos = b.QueryTotalNanos.Load() / s.QueryCount
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	NodeInserts   int64
	NodeErrors    int64
	IntraEdges    int64
	InterEdges    int64
	Corrections   int64
	QueryCount    int64
	QueryResults  int64
	QueryAvgNanos int64
}
