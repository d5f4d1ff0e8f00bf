package scenegraph

import (
	"context"
	"fmt"
	"slices"

	"github.com/tidwall/btree"
	"golang.org/x/time/rate"
)

// Graph is the layered scene graph. It owns every Layer and the table of
// inter-layer edges, and is the only place where edges spanning layers are
// validated and oriented.
//
// A Graph is not safe for concurrent mutation. Callers serialise writers; see
// SharedGraph for a locked wrapper.
type Graph struct {
	layers     map[LayerID]*Layer
	layerIDs   []LayerID
	interEdges btree.Map[EdgeID, Edge]
	nextEdgeID EdgeID
	newNodes   []NodeKey

	logger        *Logger
	metrics       MetricsCollector
	correctionLog *rate.Sometimes
}

// New creates a graph with a fixed layer registry.
func New(optFns ...Option) *Graph {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	g := &Graph{
		layers:  make(map[LayerID]*Layer, len(o.layers)),
		logger:  o.logger,
		metrics: o.metricsCollector,
	}
	if o.correctionEvery > 0 {
		g.correctionLog = &rate.Sometimes{Interval: o.correctionEvery}
	} else {
		g.correctionLog = &rate.Sometimes{Every: 1}
	}

	for _, id := range o.layers {
		if !id.Valid() {
			continue
		}
		if _, ok := g.layers[id]; ok {
			continue
		}
		g.layers[id] = NewLayer(id)
		g.layerIDs = append(g.layerIDs, id)
	}
	slices.Sort(g.layerIDs)
	return g
}

// LayerIDs returns the registered layer IDs in ascending order.
func (g *Graph) LayerIDs() []LayerID { return slices.Clone(g.layerIDs) }

// Layers returns the registered layers in ascending ID order.
func (g *Graph) Layers() []*Layer {
	out := make([]*Layer, 0, len(g.layerIDs))
	for _, id := range g.layerIDs {
		out = append(out, g.layers[id])
	}
	return out
}

// HasLayer reports whether id is registered.
func (g *Graph) HasLayer(id LayerID) bool {
	_, ok := g.layers[id]
	return ok
}

// Layer returns the layer with the given ID. Layer IDs are a closed set, so an
// unknown ID is a contract violation and panics.
func (g *Graph) Layer(id LayerID) *Layer {
	l, ok := g.layers[id]
	if !ok {
		violation("Graph.Layer", ErrUnknownLayer, "%s", id)
	}
	return l
}

// FindLayer returns the layer with the given ID or nil if it is unknown.
func (g *Graph) FindLayer(id LayerID) *Layer {
	return g.layers[id]
}

// HasNode reports whether the layer exists and contains the node.
func (g *Graph) HasNode(layer LayerID, id NodeID) bool {
	l, ok := g.layers[layer]
	return ok && l.HasNode(id)
}

// Node looks up a node. Missing layers and missing nodes both report false.
func (g *Graph) Node(layer LayerID, id NodeID) (*Node, bool) {
	l, ok := g.layers[layer]
	if !ok {
		return nil, false
	}
	n, err := l.Node(id)
	if err != nil {
		return nil, false
	}
	return n, true
}

// NumNodes returns the number of nodes across all layers.
func (g *Graph) NumNodes() int {
	total := 0
	for _, l := range g.layers {
		total += l.NumNodes()
	}
	return total
}

// AddNode inserts a node into a registered layer. Inserting into an unknown
// layer panics; a duplicate ID returns ErrNodeExists.
func (g *Graph) AddNode(layer LayerID, id NodeID, attrs NodeAttributes) error {
	err := g.Layer(layer).AddNode(id, attrs)
	if err == nil {
		g.newNodes = append(g.newNodes, NodeKey{Layer: layer, ID: id})
	}
	g.metrics.RecordNodeInsert(layer, err)
	g.logger.LogNodeInsert(context.Background(), layer, id, err)
	return err
}

// NewNodes returns the nodes added through AddNode since the last call with
// clear set, in insertion order.
func (g *Graph) NewNodes(clear bool) []NodeKey {
	out := slices.Clone(g.newNodes)
	if clear {
		g.newNodes = g.newNodes[:0]
	}
	return out
}

// SetNodeAttributes replaces the attributes of an existing node.
func (g *Graph) SetNodeAttributes(layer LayerID, id NodeID, attrs NodeAttributes) error {
	l, ok := g.layers[layer]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, layer)
	}
	n, err := l.Node(id)
	if err != nil {
		return err
	}
	n.attrs = attrs.clone()
	return nil
}

// AddEdge validates and stores an edge, returning the stored copy with its
// assigned ID. Edges within one layer go to that layer; edges across layers
// go through AddInterLayerEdge and may come back reversed.
//
// Missing endpoint layers or nodes panic with a *ContractViolation.
func (g *Graph) AddEdge(e Edge) Edge {
	const op = "Graph.AddEdge"

	for _, end := range [2]struct {
		layer LayerID
		node  NodeID
	}{{e.StartLayer, e.StartNode}, {e.EndLayer, e.EndNode}} {
		l, ok := g.layers[end.layer]
		if !ok {
			violation(op, ErrUnknownLayer, "%s in edge %s", end.layer, e)
		}
		if !l.HasNode(end.node) {
			violation(op, ErrNodeNotFound, "%s in edge %s", Symbol(end.layer, end.node), e)
		}
	}

	var stored Edge
	if RelationOf(e.StartLayer, e.EndLayer) == RelationSibling {
		stored = g.layers[e.StartLayer].AddIntraLayerEdge(e)
		g.metrics.RecordEdgeInsert(false)
		g.logger.LogEdgeInsert(context.Background(), stored)
	} else {
		stored = g.AddInterLayerEdge(e)
	}

	if !stored.Valid() {
		violation(op, ErrInvalidEdge, "%s", stored)
	}
	return stored
}

// AddInterLayerEdge stores an edge between two different layers under the
// next inter-layer ID. The stored edge always starts at the parent: an edge
// submitted child first is reversed before it is registered. The child's
// previous parent edge, if any, is replaced.
func (g *Graph) AddInterLayerEdge(e Edge) Edge {
	const op = "Graph.AddInterLayerEdge"

	if !e.IsInterLayer() {
		violation(op, ErrNotInterLayer, "%s", e)
	}
	rel := RelationOf(e.StartLayer, e.EndLayer)
	if rel == RelationNone {
		violation(op, ErrNoHierarchy, "%s and %s", e.StartLayer, e.EndLayer)
	}

	e.ID = g.nextEdgeID
	g.nextEdgeID++
	if _, ok := g.interEdges.Get(e.ID); ok {
		violation(op, ErrDuplicateEdgeID, "%d", e.ID)
	}

	start := g.Layer(e.StartLayer).mutableNode(e.StartNode)
	end := g.Layer(e.EndLayer).mutableNode(e.EndNode)

	if rel == RelationChild {
		submitted := e
		e = e.Swapped()
		start.setParent(e)
		end.addChild(e)
		g.metrics.RecordEdgeCorrection(e.StartLayer, e.EndLayer)
		g.correctionLog.Do(func() {
			g.logger.LogEdgeCorrection(context.Background(), submitted)
		})
	} else {
		end.setParent(e)
		start.addChild(e)
	}

	g.interEdges.Set(e.ID, e)
	g.metrics.RecordEdgeInsert(true)
	g.logger.LogEdgeInsert(context.Background(), e)
	return e
}

// HasInterLayerEdge reports whether an inter-layer edge with id is stored.
func (g *Graph) HasInterLayerEdge(id EdgeID) bool {
	_, ok := g.interEdges.Get(id)
	return ok
}

// InterLayerEdge returns the inter-layer edge with the given ID.
func (g *Graph) InterLayerEdge(id EdgeID) (Edge, bool) { return g.interEdges.Get(id) }

// InterLayerEdges returns all inter-layer edges ordered by ID.
func (g *Graph) InterLayerEdges() []Edge { return g.interEdges.Values() }

// NumInterLayerEdges returns the number of inter-layer edges.
func (g *Graph) NumInterLayerEdges() int { return g.interEdges.Len() }

// NextInterLayerEdgeID returns the ID the next inter-layer edge will receive.
func (g *Graph) NextInterLayerEdgeID() EdgeID { return g.nextEdgeID }

// Logger returns the graph's logger.
func (g *Graph) Logger() *Logger { return g.logger }

// Metrics returns the graph's metrics collector.
func (g *Graph) Metrics() MetricsCollector { return g.metrics }
