package scenegraph

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Document is a self-contained, codec friendly representation of a graph.
// Edge IDs and counters are preserved so a restored graph continues issuing
// the same IDs the original would have.
type Document struct {
	NextInterLayerEdgeID EdgeID          `json:"next_inter_layer_edge_id"`
	Layers               []LayerDocument `json:"layers"`
	InterLayerEdges      []Edge          `json:"inter_layer_edges"`
}

// LayerDocument is the persisted form of a Layer.
type LayerDocument struct {
	ID         LayerID        `json:"id"`
	NextEdgeID EdgeID         `json:"next_edge_id"`
	Nodes      []NodeDocument `json:"nodes"`
	Edges      []Edge         `json:"edges"`
}

// NodeDocument is the persisted form of a Node. The parent edge is not
// stored; it is rebuilt from the inter-layer edges in ID order.
type NodeDocument struct {
	ID            NodeID       `json:"id"`
	Position      [3]float64   `json:"position"`
	Orientation   [4]float64   `json:"orientation"`
	Color         [3]uint8     `json:"color"`
	SemanticLabel uint32       `json:"semantic_label,omitempty"`
	Name          string       `json:"name,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
	BoundingBox   *BoxDocument `json:"bounding_box,omitempty"`
	PointCloud    []byte       `json:"point_cloud,omitempty"`
	IsActive      bool         `json:"is_active,omitempty"`
}

// BoxDocument is the persisted form of a BoundingBox.
type BoxDocument struct {
	Type     BoundingBoxType `json:"type"`
	Min      [3]float64      `json:"min"`
	Max      [3]float64      `json:"max"`
	World    [3]float64      `json:"world"`
	Rotation [4]float64      `json:"rotation"`
}

// Export returns a Document describing g.
func (g *Graph) Export() Document {
	doc := Document{
		NextInterLayerEdgeID: g.nextEdgeID,
		InterLayerEdges:      g.InterLayerEdges(),
	}
	for _, l := range g.Layers() {
		ld := LayerDocument{
			ID:         l.id,
			NextEdgeID: l.nextEdgeID,
			Edges:      l.Edges(),
		}
		for _, n := range l.Nodes() {
			ld.Nodes = append(ld.Nodes, exportNode(n))
		}
		doc.Layers = append(doc.Layers, ld)
	}
	return doc
}

// Import rebuilds a graph from a Document. Malformed documents are data
// errors and are reported, not panicked on.
func Import(doc Document, optFns ...Option) (*Graph, error) {
	layers := make([]LayerID, 0, len(doc.Layers))
	for _, ld := range doc.Layers {
		layers = append(layers, ld.ID)
	}
	g := New(append(optFns, WithLayers(layers...))...)

	for _, ld := range doc.Layers {
		l := g.FindLayer(ld.ID)
		if l == nil {
			return nil, fmt.Errorf("%w: %d", ErrUnknownLayer, ld.ID)
		}
		for _, nd := range ld.Nodes {
			if err := l.AddNode(nd.ID, importNode(nd)); err != nil {
				return nil, err
			}
		}
		for _, e := range ld.Edges {
			if e.StartLayer != ld.ID || e.EndLayer != ld.ID || !e.Valid() {
				return nil, fmt.Errorf("%w: %s in layer %s", ErrInvalidEdge, e, ld.ID)
			}
			if !l.HasNode(e.StartNode) || !l.HasNode(e.EndNode) {
				return nil, fmt.Errorf("%w: endpoint of %s", ErrNodeNotFound, e)
			}
			if _, dup := l.Edge(e.ID); dup {
				return nil, fmt.Errorf("%w: intra-layer %d", ErrDuplicateEdgeID, e.ID)
			}
			l.restoreEdge(e)
		}
		if ld.NextEdgeID > l.nextEdgeID {
			l.nextEdgeID = ld.NextEdgeID
		}
	}

	for _, e := range doc.InterLayerEdges {
		if err := g.restoreInterLayerEdge(e); err != nil {
			return nil, err
		}
	}
	if doc.NextInterLayerEdgeID > g.nextEdgeID {
		g.nextEdgeID = doc.NextInterLayerEdgeID
	}
	return g, nil
}

func (g *Graph) restoreInterLayerEdge(e Edge) error {
	if RelationOf(e.StartLayer, e.EndLayer) != RelationParent {
		return fmt.Errorf("%w: %s is not parent first", ErrInvalidEdge, e)
	}
	if g.HasInterLayerEdge(e.ID) {
		return fmt.Errorf("%w: %d", ErrDuplicateEdgeID, e.ID)
	}
	parent, ok := g.Node(e.StartLayer, e.StartNode)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, Symbol(e.StartLayer, e.StartNode))
	}
	child, ok := g.Node(e.EndLayer, e.EndNode)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, Symbol(e.EndLayer, e.EndNode))
	}
	parent.addChild(e)
	child.setParent(e)
	g.interEdges.Set(e.ID, e)
	if e.ID >= g.nextEdgeID {
		g.nextEdgeID = e.ID + 1
	}
	return nil
}

func exportNode(n *Node) NodeDocument {
	a := n.attrs
	nd := NodeDocument{
		ID:            n.id,
		Position:      vecArray(a.Position),
		Orientation:   rotArray(a.Orientation),
		Color:         a.Color,
		SemanticLabel: a.SemanticLabel,
		Name:          a.Name,
		Timestamp:     a.Timestamp,
		PointCloud:    a.PointCloud,
		IsActive:      a.IsActive,
	}
	if a.BoundingBox.Type != BoundingBoxNone {
		b := a.BoundingBox
		nd.BoundingBox = &BoxDocument{
			Type:     b.Type,
			Min:      vecArray(b.Extents.Min),
			Max:      vecArray(b.Extents.Max),
			World:    vecArray(b.World),
			Rotation: rotArray(b.Rotation),
		}
	}
	return nd
}

func importNode(nd NodeDocument) NodeAttributes {
	a := NodeAttributes{
		Position:      arrayVec(nd.Position),
		Orientation:   arrayRot(nd.Orientation),
		Color:         nd.Color,
		SemanticLabel: nd.SemanticLabel,
		Name:          nd.Name,
		Timestamp:     nd.Timestamp,
		PointCloud:    nd.PointCloud,
		IsActive:      nd.IsActive,
	}
	if b := nd.BoundingBox; b != nil {
		a.BoundingBox = BoundingBox{
			Type:     b.Type,
			Extents:  r3.Box{Min: arrayVec(b.Min), Max: arrayVec(b.Max)},
			World:    arrayVec(b.World),
			Rotation: arrayRot(b.Rotation),
		}
	}
	return a
}

func vecArray(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func arrayVec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

func rotArray(r r3.Rotation) [4]float64 { return [4]float64{r.Real, r.Imag, r.Jmag, r.Kmag} }

func arrayRot(a [4]float64) r3.Rotation {
	return r3.Rotation{Real: a[0], Imag: a[1], Jmag: a[2], Kmag: a[3]}
}

// ErrEmptyDocument is returned when decoding a document without layers.
var ErrEmptyDocument = errors.New("document has no layers")

// Validate performs cheap structural checks before Import.
func (d Document) Validate() error {
	if len(d.Layers) == 0 {
		return ErrEmptyDocument
	}
	for _, ld := range d.Layers {
		if !ld.ID.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownLayer, ld.ID)
		}
	}
	return nil
}
