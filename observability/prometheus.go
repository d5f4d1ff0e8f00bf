package observability

import (
	"time"

	"github.com/hupe1980/scenegraph"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements scenegraph.MetricsCollector.
type PrometheusCollector struct {
	nodeInserts  *prometheus.CounterVec
	edgeInserts  *prometheus.CounterVec
	corrections  *prometheus.CounterVec
	queryLatency prometheus.Histogram
	queryResults prometheus.Histogram
	queryShort   prometheus.Counter
}

var _ scenegraph.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collector and registers its metrics
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		nodeInserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenegraph_node_inserts_total",
			Help: "Node insertion attempts",
		}, []string{"layer", "status"}),
		edgeInserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenegraph_edge_inserts_total",
			Help: "Edges stored",
		}, []string{"kind"}),
		corrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenegraph_edge_corrections_total",
			Help: "Inter-layer edges submitted child first and stored reversed",
		}, []string{"parent", "child"}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scenegraph_query_latency_seconds",
			Help:    "Latency of nearest neighbour queries",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		queryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scenegraph_query_results",
			Help:    "Neighbours returned per query",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		}),
		queryShort: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scenegraph_query_short_total",
			Help: "Queries that returned fewer neighbours than requested",
		}),
	}

	for _, m := range []prometheus.Collector{
		c.nodeInserts,
		c.edgeInserts,
		c.corrections,
		c.queryLatency,
		c.queryResults,
		c.queryShort,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordNodeInsert implements scenegraph.MetricsCollector.
func (c *PrometheusCollector) RecordNodeInsert(layer scenegraph.LayerID, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.nodeInserts.WithLabelValues(layer.String(), status).Inc()
}

// RecordEdgeInsert implements scenegraph.MetricsCollector.
func (c *PrometheusCollector) RecordEdgeInsert(interLayer bool) {
	kind := "intra"
	if interLayer {
		kind = "inter"
	}
	c.edgeInserts.WithLabelValues(kind).Inc()
}

// RecordEdgeCorrection implements scenegraph.MetricsCollector.
func (c *PrometheusCollector) RecordEdgeCorrection(parent, child scenegraph.LayerID) {
	c.corrections.WithLabelValues(parent.String(), child.String()).Inc()
}

// RecordQuery implements scenegraph.MetricsCollector.
func (c *PrometheusCollector) RecordQuery(k, found int, d time.Duration) {
	c.queryLatency.Observe(d.Seconds())
	c.queryResults.Observe(float64(found))
	if found < k {
		c.queryShort.Inc()
	}
}
