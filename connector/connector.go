package connector

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/scenegraph"
	"github.com/hupe1980/scenegraph/nearest"
	"github.com/tidwall/btree"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidConfig is returned for connector configurations that break the
// layer hierarchy.
var ErrInvalidConfig = errors.New("connector: invalid config")

// Config describes which layers a LayerConnector joins.
type Config struct {
	ParentLayer scenegraph.LayerID   `yaml:"parent_layer"`
	ChildLayers []scenegraph.LayerID `yaml:"child_layers"`
}

// Validate checks that the parent outranks every child layer.
func (c Config) Validate() error {
	if !c.ParentLayer.Valid() {
		return fmt.Errorf("%w: parent layer %s", ErrInvalidConfig, c.ParentLayer)
	}
	if len(c.ChildLayers) == 0 {
		return fmt.Errorf("%w: no child layers for %s", ErrInvalidConfig, c.ParentLayer)
	}
	for _, child := range c.ChildLayers {
		if scenegraph.RelationOf(c.ParentLayer, child) != scenegraph.RelationParent {
			return fmt.Errorf("%w: %s cannot parent %s", ErrInvalidConfig, c.ParentLayer, child)
		}
	}
	return nil
}

// nodeSet is a set of nodes keyed by layer.
type nodeSet map[scenegraph.LayerID]*roaring64.Bitmap

func (s nodeSet) add(k scenegraph.NodeKey) {
	b, ok := s[k.Layer]
	if !ok {
		b = roaring64.New()
		s[k.Layer] = b
	}
	b.Add(uint64(k.ID))
}

func (s nodeSet) remove(k scenegraph.NodeKey) {
	if b, ok := s[k.Layer]; ok {
		b.Remove(uint64(k.ID))
	}
}

func (s nodeSet) contains(k scenegraph.NodeKey) bool {
	b, ok := s[k.Layer]
	return ok && b.Contains(uint64(k.ID))
}

func (s nodeSet) len() int {
	n := 0
	for _, b := range s {
		n += int(b.GetCardinality())
	}
	return n
}

// keys lists the set in layer then ID order.
func (s nodeSet) keys() []scenegraph.NodeKey {
	layers := make([]scenegraph.LayerID, 0, len(s))
	for l := range s {
		layers = append(layers, l)
	}
	slices.Sort(layers)

	var out []scenegraph.NodeKey
	for _, l := range layers {
		it := s[l].Iterator()
		for it.HasNext() {
			out = append(out, scenegraph.NodeKey{Layer: l, ID: scenegraph.NodeID(it.Next())})
		}
	}
	return out
}

// LayerConnector keeps the active nodes of some child layers attached to the
// nearest active node of a parent layer.
//
// Parents enter the active set when they are first seen and leave it once
// they are no longer active; their tracked children leave with them and are
// not reconnected afterwards.
type LayerConnector struct {
	cfg      Config
	opts     options
	isChild  map[scenegraph.LayerID]bool
	parents  btree.Map[scenegraph.NodeID, nodeSet]
	children nodeSet
}

// NewLayerConnector creates a connector for cfg.
func NewLayerConnector(cfg Config, optFns ...Option) (*LayerConnector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &LayerConnector{
		cfg:      cfg,
		opts:     applyOptions(optFns),
		isChild:  make(map[scenegraph.LayerID]bool, len(cfg.ChildLayers)),
		children: make(nodeSet),
	}
	for _, l := range cfg.ChildLayers {
		c.isChild[l] = true
	}
	return c, nil
}

// ParentLayer returns the layer parents are drawn from.
func (c *LayerConnector) ParentLayer() scenegraph.LayerID { return c.cfg.ParentLayer }

// NumActiveParents returns the number of tracked parents.
func (c *LayerConnector) NumActiveParents() int { return c.parents.Len() }

// NumActiveChildren returns the number of tracked children.
func (c *LayerConnector) NumActiveChildren() int { return c.children.len() }

// UpdateParents adds new parent-layer nodes to the active set and retires
// parents that were removed or are no longer active.
func (c *LayerConnector) UpdateParents(g *scenegraph.Graph, newNodes []scenegraph.NodeKey) {
	for _, k := range newNodes {
		if k.Layer != c.cfg.ParentLayer {
			continue
		}
		if _, ok := c.parents.Get(k.ID); !ok {
			c.parents.Set(k.ID, make(nodeSet))
		}
	}

	var retired []scenegraph.NodeID
	c.parents.Scan(func(id scenegraph.NodeID, tracked nodeSet) bool {
		n, ok := g.Node(c.cfg.ParentLayer, id)
		if ok && n.Attributes().IsActive {
			return true
		}
		if ok {
			for _, child := range tracked.keys() {
				c.children.remove(child)
			}
		}
		retired = append(retired, id)
		return true
	})
	for _, id := range retired {
		c.parents.Delete(id)
	}
}

// ConnectChildren adds new child-layer nodes to the active set and attaches
// every active child to its nearest active parent. It returns the number of
// parent edges added.
func (c *LayerConnector) ConnectChildren(ctx context.Context, g *scenegraph.Graph, newNodes []scenegraph.NodeKey) (int, error) {
	for _, k := range newNodes {
		if c.isChild[k.Layer] {
			c.children.add(k)
		}
	}
	if c.parents.Len() == 0 {
		return 0, nil
	}

	finder, err := nearest.NewNodeFinder(g.Layer(c.cfg.ParentLayer), c.parents.Keys(), c.opts.finderOpts...)
	if err != nil {
		return 0, fmt.Errorf("connector: %w", err)
	}

	var (
		keys      []scenegraph.NodeKey
		positions []r3.Vec
	)
	for _, k := range c.children.keys() {
		n, ok := g.Node(k.Layer, k.ID)
		if !ok {
			c.children.remove(k)
			continue
		}
		keys = append(keys, k)
		positions = append(positions, n.Position())
	}

	found, err := finder.FindBatch(ctx, positions, 1, false)
	if err != nil {
		return 0, fmt.Errorf("connector: %w", err)
	}

	connected := 0
	for i, k := range keys {
		if len(found[i]) == 0 {
			continue
		}
		parent := found[i][0].ID
		n, _ := g.Node(k.Layer, k.ID)
		if prev, ok := n.Parent(); ok {
			if prev.StartLayer == c.cfg.ParentLayer && prev.StartNode == parent {
				continue
			}
			if tracked, ok := c.parents.Get(prev.StartNode); ok && prev.StartLayer == c.cfg.ParentLayer {
				tracked.remove(k)
			}
		}

		g.AddEdge(scenegraph.NewEdge(c.cfg.ParentLayer, parent, k.Layer, k.ID))
		tracked, _ := c.parents.Get(parent)
		tracked.add(k)
		connected++
	}

	g.Logger().LogConnect(ctx, c.cfg.ParentLayer, len(keys), connected)
	return connected, nil
}

// Connect runs UpdateParents followed by ConnectChildren.
func (c *LayerConnector) Connect(ctx context.Context, g *scenegraph.Graph, newNodes []scenegraph.NodeKey) (int, error) {
	c.UpdateParents(g, newNodes)
	return c.ConnectChildren(ctx, g, newNodes)
}

// GraphConnector runs a set of LayerConnectors over the nodes a graph has
// gained since the previous run.
type GraphConnector struct {
	layers []*LayerConnector
}

// NewGraphConnector creates one LayerConnector per config.
func NewGraphConnector(cfgs []Config, optFns ...Option) (*GraphConnector, error) {
	gc := &GraphConnector{}
	for _, cfg := range cfgs {
		lc, err := NewLayerConnector(cfg, optFns...)
		if err != nil {
			return nil, err
		}
		gc.layers = append(gc.layers, lc)
	}
	return gc, nil
}

// Connect consumes the graph's new nodes and runs every layer connector in
// configuration order. It returns the total number of parent edges added.
func (gc *GraphConnector) Connect(ctx context.Context, g *scenegraph.Graph) (int, error) {
	newNodes := g.NewNodes(true)
	total := 0
	for _, lc := range gc.layers {
		n, err := lc.Connect(ctx, g, newNodes)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
