package nearest

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/hupe1980/scenegraph"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// Result is one neighbour of a node query. Rank is the zero-based position
// in ascending distance order; Distance is Euclidean.
type Result struct {
	ID       scenegraph.NodeID
	Rank     int
	Distance float64
}

// NodeFinder answers k-nearest queries over a fixed set of layer nodes. Node
// positions are captured at construction; later changes to the graph are not
// seen.
type NodeFinder struct {
	ids   []scenegraph.NodeID
	index index
	opts  options
}

// NewNodeFinder indexes the given nodes of layer in the order given. That
// order breaks distance ties. Unknown IDs return an error wrapping
// scenegraph.ErrNodeNotFound.
func NewNodeFinder(layer *scenegraph.Layer, ids []scenegraph.NodeID, optFns ...Option) (*NodeFinder, error) {
	pts := make([]point, len(ids))
	for i, id := range ids {
		n, err := layer.Node(id)
		if err != nil {
			return nil, fmt.Errorf("nearest: %w", err)
		}
		pts[i] = point{slot: i, coords: coords(n.Position())}
	}

	o := applyOptions(optFns)
	return &NodeFinder{
		ids:   slices.Clone(ids),
		index: newIndex(o.backend, euclidean, pts),
		opts:  o,
	}, nil
}

// NewNodeFinderFromSet indexes a set of node IDs. IDs are indexed in
// ascending order so ties resolve deterministically.
func NewNodeFinderFromSet(layer *scenegraph.Layer, set map[scenegraph.NodeID]struct{}, optFns ...Option) (*NodeFinder, error) {
	return NewNodeFinder(layer, slices.Sorted(maps.Keys(set)), optFns...)
}

// Len returns the number of indexed nodes.
func (f *NodeFinder) Len() int { return len(f.ids) }

// Find returns the k nearest nodes to pos in ascending distance order. With
// skipFirst the nearest match is dropped, which excludes the query node when
// pos is an indexed node's own position; the remaining results keep their
// ranks 1..k.
func (f *NodeFinder) Find(pos r3.Vec, k int, skipFirst bool) []Result {
	start := time.Now()
	out := f.find(pos, k, skipFirst)
	f.opts.metrics.RecordQuery(k, len(out), time.Since(start))
	return out
}

func (f *NodeFinder) find(pos r3.Vec, k int, skipFirst bool) []Result {
	if k <= 0 {
		return []Result{}
	}
	want := k
	if skipFirst {
		want++
	}
	return toResults(f.index.search(coords(pos), want, nil), f.ids, skipFirst)
}

// FindBatch runs Find for every position, spreading the work over up to
// WithParallelism goroutines. Results are returned in input order.
func (f *NodeFinder) FindBatch(ctx context.Context, positions []r3.Vec, k int, skipFirst bool) ([][]Result, error) {
	out := make([][]Result, len(positions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.parallelism)
	for i, pos := range positions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = f.Find(pos, k, skipFirst)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func toResults(hits []neighbor, ids []scenegraph.NodeID, skipFirst bool) []Result {
	out := make([]Result, 0, len(hits))
	for rank, h := range hits {
		if skipFirst && rank == 0 {
			continue
		}
		out = append(out, Result{ID: ids[h.slot], Rank: rank, Distance: math.Sqrt(h.raw)})
	}
	return out
}

func coords(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
