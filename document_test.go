package scenegraph

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestDocument_RoundTrip(t *testing.T) {
	g := testGraph(t)
	require.NoError(t, g.SetNodeAttributes(LayerObjects, 2, NodeAttributes{
		Position:      r3.Vec{X: 1, Y: 2, Z: 3},
		Orientation:   r3.NewRotation(1, r3.Vec{Z: 1}),
		Color:         [3]uint8{255, 0, 10},
		SemanticLabel: 4,
		Name:          "sofa",
		Timestamp:     time.Unix(1700000000, 0).UTC(),
		BoundingBox: BoundingBox{
			Type:    BoundingBoxAABB,
			Extents: r3.Box{Min: r3.Vec{X: -1}, Max: r3.Vec{X: 1}},
		},
		PointCloud: []byte("xyz"),
		IsActive:   true,
	}))
	g.AddEdge(NewEdge(LayerObjects, 1, LayerObjects, 2))
	g.AddEdge(NewEdge(LayerPlaces, 10, LayerObjects, 1))
	g.AddEdge(NewEdge(LayerPlaces, 11, LayerObjects, 1))
	g.AddEdge(NewEdge(LayerPlaces, 10, LayerRooms, 100))

	data, err := json.Marshal(g.Export())
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.NoError(t, doc.Validate())

	restored, err := Import(doc)
	require.NoError(t, err)

	if diff := cmp.Diff(g.Export(), restored.Export()); diff != "" {
		t.Fatalf("restored graph mismatch (-want +got):\n%s", diff)
	}

	// Parent links are rebuilt with last write wins.
	object, ok := restored.Node(LayerObjects, 1)
	require.True(t, ok)
	pe, ok := object.Parent()
	require.True(t, ok)
	assert.Equal(t, NodeID(11), pe.StartNode)

	// Counters continue where the original left off.
	assert.Equal(t, g.NextInterLayerEdgeID(), restored.NextInterLayerEdgeID())
	next := restored.AddEdge(NewEdge(LayerRooms, 100, LayerPlaces, 11))
	assert.Equal(t, EdgeID(3), next.ID)
}

func TestImport_RejectsMalformed(t *testing.T) {
	base := func() Document {
		return Document{Layers: []LayerDocument{
			{ID: LayerPlaces, Nodes: []NodeDocument{{ID: 1}, {ID: 2}}},
			{ID: LayerRooms, Nodes: []NodeDocument{{ID: 1}}},
		}}
	}

	t.Run("Empty", func(t *testing.T) {
		assert.ErrorIs(t, Document{}.Validate(), ErrEmptyDocument)
	})

	t.Run("DuplicateNode", func(t *testing.T) {
		doc := base()
		doc.Layers[0].Nodes = append(doc.Layers[0].Nodes, NodeDocument{ID: 1})
		_, err := Import(doc)
		assert.ErrorIs(t, err, ErrNodeExists)
	})

	t.Run("ChildFirstInterLayerEdge", func(t *testing.T) {
		doc := base()
		doc.InterLayerEdges = []Edge{NewEdge(LayerPlaces, 1, LayerRooms, 1)}
		_, err := Import(doc)
		assert.ErrorIs(t, err, ErrInvalidEdge)
	})

	t.Run("DanglingIntraLayerEdge", func(t *testing.T) {
		doc := base()
		doc.Layers[0].Edges = []Edge{NewEdge(LayerPlaces, 1, LayerPlaces, 3)}
		_, err := Import(doc)
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("DuplicateInterLayerEdge", func(t *testing.T) {
		doc := base()
		e := NewEdge(LayerRooms, 1, LayerPlaces, 1)
		doc.InterLayerEdges = []Edge{e, e}
		_, err := Import(doc)
		assert.ErrorIs(t, err, ErrDuplicateEdgeID)
	})
}
