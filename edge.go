package scenegraph

import "fmt"

// EdgeID identifies an edge. Inter-layer edges draw IDs from a per-graph
// counter; intra-layer edges from a per-layer counter.
type EdgeID int64

// Edge is a directed connection between two nodes.
type Edge struct {
	ID         EdgeID  `json:"id"`
	StartLayer LayerID `json:"start_layer"`
	StartNode  NodeID  `json:"start_node"`
	EndLayer   LayerID `json:"end_layer"`
	EndNode    NodeID  `json:"end_node"`
	Weight     float64 `json:"weight,omitempty"`
}

// NewEdge returns an edge from (startLayer, start) to (endLayer, end).
// The ID is assigned when the edge is inserted into a graph.
func NewEdge(startLayer LayerID, start NodeID, endLayer LayerID, end NodeID) Edge {
	return Edge{StartLayer: startLayer, StartNode: start, EndLayer: endLayer, EndNode: end}
}

// IsInterLayer reports whether the edge connects two different layers.
func (e Edge) IsInterLayer() bool { return e.StartLayer != e.EndLayer }

// Valid reports whether both endpoint layers are known and the edge is not a
// self-loop.
func (e Edge) Valid() bool {
	if !e.StartLayer.Valid() || !e.EndLayer.Valid() {
		return false
	}
	return e.StartLayer != e.EndLayer || e.StartNode != e.EndNode
}

// Swapped returns a copy of the edge with start and end exchanged.
func (e Edge) Swapped() Edge {
	e.StartLayer, e.EndLayer = e.EndLayer, e.StartLayer
	e.StartNode, e.EndNode = e.EndNode, e.StartNode
	return e
}

// Other returns the endpoint opposite to (layer, id).
func (e Edge) Other(layer LayerID, id NodeID) (LayerID, NodeID) {
	if e.StartLayer == layer && e.StartNode == id {
		return e.EndLayer, e.EndNode
	}
	return e.StartLayer, e.StartNode
}

func (e Edge) String() string {
	return fmt.Sprintf("%d:%s->%s", e.ID, Symbol(e.StartLayer, e.StartNode), Symbol(e.EndLayer, e.EndNode))
}
