package scenegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestLayer(t *testing.T) {
	l := NewLayer(LayerObjects)
	require.NoError(t, l.AddNode(3, NodeAttributes{Name: "chair"}))
	require.NoError(t, l.AddNode(1, NodeAttributes{Name: "table"}))
	require.NoError(t, l.AddNode(2, NodeAttributes{Name: "lamp"}))

	t.Run("Node", func(t *testing.T) {
		n, err := l.Node(1)
		require.NoError(t, err)
		assert.Equal(t, "table", n.Attributes().Name)

		_, err = l.Node(9)
		assert.ErrorIs(t, err, ErrNodeNotFound)
		assert.Contains(t, err.Error(), "o9")
	})

	t.Run("Ordering", func(t *testing.T) {
		assert.Equal(t, []NodeID{1, 2, 3}, l.NodeIDs())
		nodes := l.Nodes()
		require.Len(t, nodes, 3)
		assert.Equal(t, NodeID(1), nodes[0].ID())
		assert.Equal(t, 3, l.NumNodes())
	})

	t.Run("IntraLayerEdges", func(t *testing.T) {
		e0 := l.AddIntraLayerEdge(NewEdge(LayerObjects, 1, LayerObjects, 2))
		e1 := l.AddIntraLayerEdge(NewEdge(LayerObjects, 2, LayerObjects, 3))
		assert.Equal(t, EdgeID(0), e0.ID)
		assert.Equal(t, EdgeID(1), e1.ID)
		assert.Equal(t, []Edge{e0, e1}, l.Edges())
		assert.Equal(t, []EdgeID{0, 1}, l.EdgeIDs())

		n, _ := l.Node(2)
		assert.Equal(t, []Edge{e0, e1}, n.Siblings())
	})

	t.Run("MutableNodePanics", func(t *testing.T) {
		requireViolation(t, ErrNodeNotFound, func() { l.mutableNode(42) })
	})

	t.Run("ForeignEdgePanics", func(t *testing.T) {
		requireViolation(t, ErrInvalidEdge, func() { l.AddIntraLayerEdge(NewEdge(LayerPlaces, 1, LayerPlaces, 2)) })
	})
}

func TestNodeAttributesAreCopied(t *testing.T) {
	cloud := []byte{1, 2, 3}
	l := NewLayer(LayerObjects)
	require.NoError(t, l.AddNode(1, NodeAttributes{PointCloud: cloud}))

	cloud[0] = 9
	n, _ := l.Node(1)
	attrs := n.Attributes()
	assert.Equal(t, []byte{1, 2, 3}, attrs.PointCloud)

	attrs.PointCloud[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, n.Attributes().PointCloud)
}

func TestBoundingBox_Contains(t *testing.T) {
	box := r3.Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}

	aabb := BoundingBox{Type: BoundingBoxAABB, Extents: box, World: r3.Vec{X: 10}}
	assert.True(t, aabb.Contains(r3.Vec{X: 10.5}))
	assert.False(t, aabb.Contains(r3.Vec{X: 8}))

	obb := BoundingBox{
		Type:     BoundingBoxOBB,
		Extents:  r3.Box{Min: r3.Vec{X: -2, Y: -0.5, Z: -0.5}, Max: r3.Vec{X: 2, Y: 0.5, Z: 0.5}},
		Rotation: r3.NewRotation(0.5*3.141592653589793, r3.Vec{Z: 1}),
	}
	assert.True(t, obb.Contains(r3.Vec{Y: 1.5}))
	assert.False(t, obb.Contains(r3.Vec{X: 1.5}))

	assert.False(t, BoundingBox{}.Contains(r3.Vec{}))
}
