package nearest

import (
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/scenegraph"
	"gonum.org/v1/gonum/spatial/r3"
)

// minCompaction is the smallest number of stale entries that triggers a
// rebuild of the dynamic index.
const minCompaction = 32

// DynamicNodeFinder is a nearest neighbour index over a changing subset of
// a layer's nodes. Positions are read from the graph when nodes are added.
//
// Removed nodes are tombstoned and skipped by queries. The index is rebuilt
// from the live entries only once stale entries outnumber them, so the cost of
// churn is bounded by the live set rather than by history.
type DynamicNodeFinder struct {
	graph *scenegraph.Graph
	layer scenegraph.LayerID
	opts  options

	index index
	// slots maps index slots to nodes; slotOf holds each present node's
	// current slot. live is the set of slots that are not tombstoned.
	slots  []scenegraph.NodeID
	slotOf map[scenegraph.NodeID]int
	coords map[scenegraph.NodeID][3]float64
	live   *roaring64.Bitmap
	built  int // entries in the index at the last rebuild
}

// NewDynamicNodeFinder creates an empty finder over layer of graph.
func NewDynamicNodeFinder(graph *scenegraph.Graph, layer scenegraph.LayerID, optFns ...Option) (*DynamicNodeFinder, error) {
	if !graph.HasLayer(layer) {
		return nil, fmt.Errorf("nearest: %w: %s", scenegraph.ErrUnknownLayer, layer)
	}
	o := applyOptions(optFns)
	return &DynamicNodeFinder{
		graph:  graph,
		layer:  layer,
		opts:   o,
		index:  newIndex(o.backend, euclidean, nil),
		slotOf: make(map[scenegraph.NodeID]int),
		coords: make(map[scenegraph.NodeID][3]float64),
		live:   roaring64.New(),
	}, nil
}

// Layer returns the layer the finder indexes.
func (f *DynamicNodeFinder) Layer() scenegraph.LayerID { return f.layer }

// Len returns the number of nodes currently present.
func (f *DynamicNodeFinder) Len() int { return int(f.live.GetCardinality()) }

// Contains reports whether id is currently present.
func (f *DynamicNodeFinder) Contains(id scenegraph.NodeID) bool {
	_, ok := f.slotOf[id]
	return ok
}

// AddNodes adds nodes using their current graph positions. Nodes already
// present are re-added at their new position. Either every ID is added or,
// if any is missing from the layer, none is.
func (f *DynamicNodeFinder) AddNodes(ids []scenegraph.NodeID) error {
	pos := make([][3]float64, len(ids))
	for i, id := range ids {
		n, ok := f.graph.Node(f.layer, id)
		if !ok {
			return fmt.Errorf("nearest: %w: %s", scenegraph.ErrNodeNotFound, scenegraph.Symbol(f.layer, id))
		}
		pos[i] = coords(n.Position())
	}

	for i, id := range ids {
		f.evict(id)
		slot := len(f.slots)
		f.slots = append(f.slots, id)
		f.slotOf[id] = slot
		f.coords[id] = pos[i]
		f.live.Add(uint64(slot))
		f.index.insert(point{slot: slot, coords: pos[i]})
	}
	f.maybeRebuild()
	return nil
}

// RemoveNode evicts id. It reports false if id was not present.
func (f *DynamicNodeFinder) RemoveNode(id scenegraph.NodeID) bool {
	if !f.evict(id) {
		return false
	}
	delete(f.coords, id)
	f.maybeRebuild()
	return true
}

// Find returns the k nearest present nodes to pos. skipFirst behaves as in
// NodeFinder.Find.
func (f *DynamicNodeFinder) Find(pos r3.Vec, k int, skipFirst bool) []Result {
	start := time.Now()
	out := []Result{}
	if k > 0 {
		want := k
		if skipFirst {
			want++
		}
		hits := f.index.search(coords(pos), want, func(slot int) bool {
			return f.live.Contains(uint64(slot))
		})
		out = toResults(hits, f.slots, skipFirst)
	}
	f.opts.metrics.RecordQuery(k, len(out), time.Since(start))
	return out
}

func (f *DynamicNodeFinder) evict(id scenegraph.NodeID) bool {
	slot, ok := f.slotOf[id]
	if !ok {
		return false
	}
	delete(f.slotOf, id)
	f.live.Remove(uint64(slot))
	return true
}

// maybeRebuild compacts the index when tombstones outnumber live entries or
// when unbalanced inserts have doubled it since the last rebuild.
func (f *DynamicNodeFinder) maybeRebuild() {
	live := f.Len()
	stale := len(f.slots) - live
	grown := len(f.slots) - f.built
	if !(stale >= minCompaction && stale > live) && !(grown >= minCompaction && grown > f.built) {
		return
	}

	slots := make([]scenegraph.NodeID, 0, live)
	pts := make([]point, 0, live)
	it := f.live.Iterator()
	for it.HasNext() {
		id := f.slots[it.Next()]
		slot := len(slots)
		slots = append(slots, id)
		pts = append(pts, point{slot: slot, coords: f.coords[id]})
		f.slotOf[id] = slot
	}

	f.slots = slots
	f.live.Clear()
	f.live.AddRange(0, uint64(len(slots)))
	f.index = newIndex(f.opts.backend, euclidean, pts)
	f.built = len(slots)
}
