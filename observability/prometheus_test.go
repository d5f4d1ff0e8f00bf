package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/scenegraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestPrometheusCollector_Graph(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	g := scenegraph.New(scenegraph.WithMetricsCollector(mc))
	require.NoError(t, g.AddNode(scenegraph.LayerPlaces, 1, scenegraph.NodeAttributes{Position: r3.Vec{X: 1}}))
	require.NoError(t, g.AddNode(scenegraph.LayerPlaces, 2, scenegraph.NodeAttributes{}))
	require.NoError(t, g.AddNode(scenegraph.LayerObjects, 1, scenegraph.NodeAttributes{}))
	assert.Error(t, g.AddNode(scenegraph.LayerPlaces, 1, scenegraph.NodeAttributes{}))

	g.AddEdge(scenegraph.NewEdge(scenegraph.LayerPlaces, 1, scenegraph.LayerPlaces, 2))
	g.AddEdge(scenegraph.NewEdge(scenegraph.LayerObjects, 1, scenegraph.LayerPlaces, 1))

	assert.Equal(t, 2.0, testutil.ToFloat64(mc.nodeInserts.WithLabelValues("places", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.nodeInserts.WithLabelValues("places", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.nodeInserts.WithLabelValues("objects", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.edgeInserts.WithLabelValues("intra")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.edgeInserts.WithLabelValues("inter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.corrections.WithLabelValues("places", "objects")))
}

func TestPrometheusCollector_Query(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	mc.RecordQuery(3, 3, time.Millisecond)
	mc.RecordQuery(3, 1, 2*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(mc.queryShort))
	assert.Equal(t, 1, testutil.CollectAndCount(mc.queryLatency))

	expected := `
# HELP scenegraph_query_short_total Queries that returned fewer neighbours than requested
# TYPE scenegraph_query_short_total counter
scenegraph_query_short_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "scenegraph_query_short_total"))
}

func TestNewPrometheusCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	_, err = NewPrometheusCollector(reg)
	assert.Error(t, err)
}
