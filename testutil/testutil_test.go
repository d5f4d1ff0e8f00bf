package testutil

import (
	"testing"

	"github.com/hupe1980/scenegraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestUniformPositions(t *testing.T) {
	rng := NewRNG(4711)

	pts := rng.UniformPositions(64, 10)

	require.Len(t, pts, 64)
	for _, p := range pts {
		assert.GreaterOrEqual(t, p.X, -10.0)
		assert.Less(t, p.X, 10.0)
		assert.GreaterOrEqual(t, p.Z, -10.0)
		assert.Less(t, p.Z, 10.0)
	}
}

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(42)
	first := rng.UniformPositions(4, 1)
	rng.Reset()
	assert.Equal(t, first, rng.UniformPositions(4, 1))
	assert.Equal(t, int64(42), rng.Seed())
}

func TestGridIndices(t *testing.T) {
	rng := NewRNG(4711)
	for _, idx := range rng.GridIndices(100, 3) {
		for _, c := range idx {
			assert.GreaterOrEqual(t, c, int64(-3))
			assert.LessOrEqual(t, c, int64(3))
		}
	}
}

func TestExactKNN(t *testing.T) {
	pts := []r3.Vec{{X: 5}, {X: 1}, {X: -1}, {}}
	got := ExactKNN(r3.Vec{}, pts, 3)
	assert.Equal(t, []Neighbor{{Index: 3, Distance: 0}, {Index: 1, Distance: 1}, {Index: 2, Distance: 1}}, got)
	assert.Len(t, ExactKNN(r3.Vec{}, pts, 10), 4)
}

func TestPopulateLayer(t *testing.T) {
	g := scenegraph.New()
	ids, err := PopulateLayer(g, scenegraph.LayerPlaces, 10, []r3.Vec{{X: 1}, {X: 2}})
	require.NoError(t, err)
	assert.Equal(t, []scenegraph.NodeID{10, 11}, ids)

	_, err = PopulateLayer(g, scenegraph.LayerPlaces, 11, []r3.Vec{{}})
	assert.ErrorIs(t, err, scenegraph.ErrNodeExists)
}
