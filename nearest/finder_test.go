package nearest

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/scenegraph"
	"github.com/hupe1980/scenegraph/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var backends = []Backend{BackendKDTree, BackendFlat}

func placesLayer(t testing.TB, positions []r3.Vec) (*scenegraph.Graph, []scenegraph.NodeID) {
	t.Helper()
	g := scenegraph.New()
	ids, err := testutil.PopulateLayer(g, scenegraph.LayerPlaces, 1, positions)
	require.NoError(t, err)
	return g, ids
}

func resultIDs(rs []Result) []scenegraph.NodeID {
	out := make([]scenegraph.NodeID, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestNodeFinder_Find(t *testing.T) {
	for _, b := range backends {
		t.Run(b.String(), func(t *testing.T) {
			g, ids := placesLayer(t, []r3.Vec{{}, {X: 1}, {X: 5}})
			f, err := NewNodeFinder(g.Layer(scenegraph.LayerPlaces), ids, WithBackend(b))
			require.NoError(t, err)
			assert.Equal(t, 3, f.Len())

			got := f.Find(r3.Vec{X: 0.1}, 2, false)
			require.Len(t, got, 2)
			assert.Equal(t, scenegraph.NodeID(1), got[0].ID)
			assert.Equal(t, 0, got[0].Rank)
			assert.InDelta(t, 0.1, got[0].Distance, 1e-12)
			assert.Equal(t, scenegraph.NodeID(2), got[1].ID)
			assert.Equal(t, 1, got[1].Rank)
			assert.InDelta(t, 0.9, got[1].Distance, 1e-12)
		})
	}
}

func TestNodeFinder_SkipFirst(t *testing.T) {
	for _, b := range backends {
		t.Run(b.String(), func(t *testing.T) {
			g, ids := placesLayer(t, []r3.Vec{{}, {X: 1}, {X: 5}})
			f, err := NewNodeFinder(g.Layer(scenegraph.LayerPlaces), ids, WithBackend(b))
			require.NoError(t, err)

			got := f.Find(r3.Vec{}, 2, true)
			assert.Equal(t, []Result{
				{ID: 2, Rank: 1, Distance: 1},
				{ID: 3, Rank: 2, Distance: 5},
			}, got)
		})
	}
}

func TestNodeFinder_TiesFollowConstructionOrder(t *testing.T) {
	for _, b := range backends {
		t.Run(b.String(), func(t *testing.T) {
			g, _ := placesLayer(t, []r3.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}})
			layer := g.Layer(scenegraph.LayerPlaces)

			f, err := NewNodeFinder(layer, []scenegraph.NodeID{4, 2, 5, 1, 3}, WithBackend(b))
			require.NoError(t, err)
			assert.Equal(t, []scenegraph.NodeID{4, 2, 5}, resultIDs(f.Find(r3.Vec{}, 3, false)))

			set := map[scenegraph.NodeID]struct{}{5: {}, 3: {}, 1: {}}
			f, err = NewNodeFinderFromSet(layer, set, WithBackend(b))
			require.NoError(t, err)
			assert.Equal(t, []scenegraph.NodeID{1, 3, 5}, resultIDs(f.Find(r3.Vec{}, 5, false)))
		})
	}
}

func TestNodeFinder_EmptyResults(t *testing.T) {
	g, ids := placesLayer(t, []r3.Vec{{}, {X: 1}})
	layer := g.Layer(scenegraph.LayerPlaces)

	f, err := NewNodeFinder(layer, ids)
	require.NoError(t, err)
	assert.Empty(t, f.Find(r3.Vec{}, 0, false))
	assert.Empty(t, f.Find(r3.Vec{}, -3, true))
	assert.Len(t, f.Find(r3.Vec{}, 10, false), 2)

	empty, err := NewNodeFinder(layer, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty.Find(r3.Vec{}, 3, false))
	assert.Empty(t, empty.Find(r3.Vec{}, 3, false))
	assert.Empty(t, empty.Find(r3.Vec{}, 3, true))
}

func TestNewNodeFinder_UnknownNode(t *testing.T) {
	g, _ := placesLayer(t, []r3.Vec{{}})
	_, err := NewNodeFinder(g.Layer(scenegraph.LayerPlaces), []scenegraph.NodeID{1, 99})
	assert.ErrorIs(t, err, scenegraph.ErrNodeNotFound)
}

func TestNodeFinder_SnapshotsPositions(t *testing.T) {
	g, ids := placesLayer(t, []r3.Vec{{}, {X: 3}})
	f, err := NewNodeFinder(g.Layer(scenegraph.LayerPlaces), ids)
	require.NoError(t, err)

	require.NoError(t, g.SetNodeAttributes(scenegraph.LayerPlaces, 1, scenegraph.NodeAttributes{Position: r3.Vec{X: 10}}))
	assert.Equal(t, scenegraph.NodeID(1), f.Find(r3.Vec{X: -1}, 1, false)[0].ID)
}

func TestNodeFinder_MatchesExactSearch(t *testing.T) {
	rng := testutil.NewRNG(4711)
	pts := rng.ClusteredPositions(500, 6, 40, 3)
	g, ids := placesLayer(t, pts)
	layer := g.Layer(scenegraph.LayerPlaces)

	for _, b := range backends {
		t.Run(b.String(), func(t *testing.T) {
			f, err := NewNodeFinder(layer, ids, WithBackend(b))
			require.NoError(t, err)

			for _, q := range rng.UniformPositions(25, 45) {
				want := testutil.ExactKNN(q, pts, 7)
				got := f.Find(q, 7, false)
				require.Len(t, got, len(want))
				for i := range want {
					assert.Equal(t, ids[want[i].Index], got[i].ID)
					assert.Equal(t, i, got[i].Rank)
					assert.True(t, testutil.AlmostEqual(want[i].Distance, got[i].Distance, 1e-9))
				}
			}
		})
	}
}

func TestNodeFinder_FindBatch(t *testing.T) {
	rng := testutil.NewRNG(7)
	g, ids := placesLayer(t, rng.UniformPositions(200, 20))
	f, err := NewNodeFinder(g.Layer(scenegraph.LayerPlaces), ids, WithParallelism(3))
	require.NoError(t, err)

	queries := rng.UniformPositions(40, 20)
	got, err := f.FindBatch(context.Background(), queries, 4, true)
	require.NoError(t, err)
	require.Len(t, got, len(queries))
	for i, q := range queries {
		assert.Equal(t, f.Find(q, 4, true), got[i])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.FindBatch(ctx, queries, 4, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNodeFinder_RecordsQueries(t *testing.T) {
	g, ids := placesLayer(t, []r3.Vec{{}, {X: 1}, {X: 2}})
	mc := &scenegraph.BasicMetricsCollector{}
	f, err := NewNodeFinder(g.Layer(scenegraph.LayerPlaces), ids, WithMetricsCollector(mc))
	require.NoError(t, err)

	f.Find(r3.Vec{}, 2, false)
	f.Find(r3.Vec{}, 5, true)

	stats := mc.Stats()
	assert.Equal(t, int64(2), stats.QueryCount)
	assert.Equal(t, int64(4), stats.QueryResults)
}

func TestParseBackend(t *testing.T) {
	for in, want := range map[string]Backend{"": BackendKDTree, "KDTree": BackendKDTree, "kd-tree": BackendKDTree, "flat": BackendFlat} {
		got, err := ParseBackend(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseBackend("balltree")
	assert.Error(t, err)
	assert.Equal(t, "backend(9)", Backend(9).String())
}

func BenchmarkNodeFinder_Find(b *testing.B) {
	for _, n := range []int{1_000, 10_000} {
		for _, backend := range backends {
			b.Run(fmt.Sprintf("%s/n=%d", backend, n), func(b *testing.B) {
				rng := testutil.NewRNG(1)
				g, ids := placesLayer(b, rng.UniformPositions(n, 100))
				f, err := NewNodeFinder(g.Layer(scenegraph.LayerPlaces), ids, WithBackend(backend))
				require.NoError(b, err)
				queries := rng.UniformPositions(256, 100)

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					f.Find(queries[i%len(queries)], 10, false)
				}
			})
		}
	}
}
