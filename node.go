package scenegraph

import (
	"time"

	"github.com/tidwall/btree"
	"gonum.org/v1/gonum/spatial/r3"
)

// NodeKey names a node across the whole graph.
type NodeKey struct {
	Layer LayerID
	ID    NodeID
}

func (k NodeKey) String() string { return Symbol(k.Layer, k.ID).String() }

// NodeID identifies a node within its layer.
type NodeID uint64

// BoundingBoxType describes how a BoundingBox is parameterised.
type BoundingBoxType uint8

const (
	// BoundingBoxNone means the node has no extent.
	BoundingBoxNone BoundingBoxType = iota
	// BoundingBoxAABB is axis aligned in world coordinates.
	BoundingBoxAABB
	// BoundingBoxOBB is oriented by Rotation around World.
	BoundingBoxOBB
)

// BoundingBox is the spatial extent of a node.
type BoundingBox struct {
	Type BoundingBoxType
	// Extents in the box frame.
	Extents r3.Box
	// World is the box origin in world coordinates.
	World    r3.Vec
	Rotation r3.Rotation
}

// Contains reports whether the world point p lies inside the box.
func (b BoundingBox) Contains(p r3.Vec) bool {
	switch b.Type {
	case BoundingBoxAABB:
		return b.Extents.Contains(r3.Sub(p, b.World))
	case BoundingBoxOBB:
		local := r3.Sub(p, b.World)
		if b.Rotation == (r3.Rotation{}) {
			return b.Extents.Contains(local)
		}
		inv := r3.Rotation{Real: b.Rotation.Real, Imag: -b.Rotation.Imag, Jmag: -b.Rotation.Jmag, Kmag: -b.Rotation.Kmag}
		return b.Extents.Contains(inv.Rotate(local))
	default:
		return false
	}
}

// NodeAttributes holds the payload attached to a node. Payloads produced by
// reconstruction (PointCloud) are stored without interpretation.
type NodeAttributes struct {
	Position      r3.Vec
	Orientation   r3.Rotation
	Color         [3]uint8
	SemanticLabel uint32
	Name          string
	Timestamp     time.Time
	BoundingBox   BoundingBox
	PointCloud    []byte
	IsActive      bool
}

func (a NodeAttributes) clone() NodeAttributes {
	if a.PointCloud != nil {
		a.PointCloud = append([]byte(nil), a.PointCloud...)
	}
	return a
}

// Node is a vertex of the scene graph. Nodes are owned by their Layer and
// mutated only through the Graph.
type Node struct {
	id    NodeID
	layer LayerID
	attrs NodeAttributes

	parent   *Edge
	children btree.Map[EdgeID, Edge]
	siblings btree.Map[EdgeID, Edge]
}

func newNode(layer LayerID, id NodeID, attrs NodeAttributes) *Node {
	return &Node{id: id, layer: layer, attrs: attrs.clone()}
}

// ID returns the node ID.
func (n *Node) ID() NodeID { return n.id }

// Layer returns the layer the node belongs to.
func (n *Node) Layer() LayerID { return n.layer }

// Symbol returns the node's prefixed label.
func (n *Node) Symbol() NodeSymbol { return Symbol(n.layer, n.id) }

// Attributes returns a copy of the node attributes.
func (n *Node) Attributes() NodeAttributes { return n.attrs.clone() }

// Position is shorthand for Attributes().Position.
func (n *Node) Position() r3.Vec { return n.attrs.Position }

// Parent returns the node's parent edge, if any.
func (n *Node) Parent() (Edge, bool) {
	if n.parent == nil {
		return Edge{}, false
	}
	return *n.parent, true
}

// HasParent reports whether the node has a parent edge.
func (n *Node) HasParent() bool { return n.parent != nil }

// Children returns the child edges ordered by edge ID.
func (n *Node) Children() []Edge { return n.children.Values() }

// Child returns the child edge with the given ID.
func (n *Node) Child(id EdgeID) (Edge, bool) { return n.children.Get(id) }

// NumChildren returns the number of child edges.
func (n *Node) NumChildren() int { return n.children.Len() }

// Siblings returns the intra-layer edges touching this node ordered by ID.
func (n *Node) Siblings() []Edge { return n.siblings.Values() }

func (n *Node) setParent(e Edge) {
	n.parent = &e
}

func (n *Node) addChild(e Edge) {
	n.children.Set(e.ID, e)
}

func (n *Node) addSibling(e Edge) {
	n.siblings.Set(e.ID, e)
}
