package scenegraph

import (
	"fmt"

	"github.com/tidwall/btree"
)

// Layer holds the nodes and intra-layer edges of one hierarchy level.
type Layer struct {
	id         LayerID
	nodes      btree.Map[NodeID, *Node]
	edges      btree.Map[EdgeID, Edge]
	nextEdgeID EdgeID
}

// NewLayer creates an empty layer.
func NewLayer(id LayerID) *Layer {
	return &Layer{id: id}
}

// ID returns the layer ID.
func (l *Layer) ID() LayerID { return l.id }

// Node returns the node with the given ID.
func (l *Layer) Node(id NodeID) (*Node, error) {
	n, ok := l.nodes.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, Symbol(l.id, id))
	}
	return n, nil
}

// HasNode reports whether the layer contains id.
func (l *Layer) HasNode(id NodeID) bool {
	_, ok := l.nodes.Get(id)
	return ok
}

// mutableNode returns the node for in-place updates. The caller must have
// validated that id exists.
func (l *Layer) mutableNode(id NodeID) *Node {
	n, ok := l.nodes.Get(id)
	if !ok {
		violation("Layer.mutableNode", ErrNodeNotFound, "%s", Symbol(l.id, id))
	}
	return n
}

// AddNode inserts a node.
func (l *Layer) AddNode(id NodeID, attrs NodeAttributes) error {
	if l.HasNode(id) {
		return fmt.Errorf("%w: %s", ErrNodeExists, Symbol(l.id, id))
	}
	l.nodes.Set(id, newNode(l.id, id, attrs))
	return nil
}

// AddIntraLayerEdge stores e under the next layer-local edge ID and returns
// the stored edge. Both endpoints must belong to this layer.
func (l *Layer) AddIntraLayerEdge(e Edge) Edge {
	if e.StartLayer != l.id || e.EndLayer != l.id {
		violation("Layer.AddIntraLayerEdge", ErrInvalidEdge, "edge %s does not belong to layer %s", e, l.id)
	}
	start := l.mutableNode(e.StartNode)
	end := l.mutableNode(e.EndNode)

	e.ID = l.nextEdgeID
	l.nextEdgeID++

	start.addSibling(e)
	end.addSibling(e)
	l.edges.Set(e.ID, e)
	return e
}

// Edge returns the intra-layer edge with the given ID.
func (l *Layer) Edge(id EdgeID) (Edge, bool) { return l.edges.Get(id) }

// Edges returns all intra-layer edges ordered by ID.
func (l *Layer) Edges() []Edge { return l.edges.Values() }

// EdgeIDs returns the intra-layer edge IDs in ascending order.
func (l *Layer) EdgeIDs() []EdgeID { return l.edges.Keys() }

// Nodes returns all nodes ordered by ID.
func (l *Layer) Nodes() []*Node { return l.nodes.Values() }

// NodeIDs returns the node IDs in ascending order.
func (l *Layer) NodeIDs() []NodeID { return l.nodes.Keys() }

// NumNodes returns the number of nodes in the layer.
func (l *Layer) NumNodes() int { return l.nodes.Len() }

// NumEdges returns the number of intra-layer edges.
func (l *Layer) NumEdges() int { return l.edges.Len() }

// NextEdgeID returns the ID the next intra-layer edge will receive.
func (l *Layer) NextEdgeID() EdgeID { return l.nextEdgeID }

// restoreEdge inserts an already identified edge, used when loading
// persisted graphs.
func (l *Layer) restoreEdge(e Edge) {
	l.mutableNode(e.StartNode).addSibling(e)
	l.mutableNode(e.EndNode).addSibling(e)
	l.edges.Set(e.ID, e)
	if e.ID >= l.nextEdgeID {
		l.nextEdgeID = e.ID + 1
	}
}
