package nearest

import (
	"container/heap"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
)

type kdPoint struct {
	point
	metric metric
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coords[d] - c.(kdPoint).coords[d]
}

func (p kdPoint) Dims() int { return 3 }

func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	return p.metric.raw(p.coords, c.(kdPoint).coords)
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p kdPoints) Len() int                      { return len(p) }
func (p kdPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p kdPoints) Pivot(d kdtree.Dim) int {
	plane := kdPlane{Dim: d, kdPoints: p}
	return kdtree.Partition(plane, kdtree.MedianOfRandoms(plane, 100))
}

type kdPlane struct {
	kdtree.Dim
	kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.kdPoints[i].coords[p.Dim] < p.kdPoints[j].coords[p.Dim]
}
func (p kdPlane) Swap(i, j int) { p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i] }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}

type kdIndex struct {
	metric metric
	tree   *kdtree.Tree
}

func newKDIndex(m metric, pts []point) *kdIndex {
	kp := make(kdPoints, len(pts))
	for i, p := range pts {
		kp[i] = kdPoint{point: p, metric: m}
	}
	return &kdIndex{metric: m, tree: kdtree.New(kp, false)}
}

func (x *kdIndex) insert(p point) {
	x.tree.Insert(kdPoint{point: p, metric: x.metric}, false)
}

func (x *kdIndex) len() int { return x.tree.Len() }

func (x *kdIndex) search(q [3]float64, k int, accept func(int) bool) []neighbor {
	if k <= 0 || x.tree.Len() == 0 {
		return nil
	}
	keep := newStableKeeper(min(k, x.tree.Len()), accept)
	x.tree.NearestSet(keep, kdPoint{point: point{slot: -1, coords: q}, metric: x.metric})

	out := make([]neighbor, 0, keep.Len())
	for _, cd := range keep.items {
		if cd.Comparable == nil {
			continue
		}
		out = append(out, neighbor{slot: cd.Comparable.(kdPoint).slot, raw: cd.Dist})
	}
	slices.SortFunc(out, compareNeighbors)
	return out
}

// stableKeeper is a kdtree.Keeper retaining the k best points, where equal
// distances are resolved by slot. A nil-Comparable sentinel at infinite
// distance sits on top until the keeper fills up, as in kdtree.NKeeper.
type stableKeeper struct {
	items  []kdtree.ComparableDist
	limit  int
	accept func(int) bool
}

func newStableKeeper(k int, accept func(int) bool) *stableKeeper {
	items := make([]kdtree.ComparableDist, 1, k+1)
	items[0].Dist = math.Inf(1)
	return &stableKeeper{items: items, limit: k, accept: accept}
}

func slotOf(cd kdtree.ComparableDist) int { return cd.Comparable.(kdPoint).slot }

// worse reports whether a ranks behind b. The sentinel ranks behind everything.
func worse(a, b kdtree.ComparableDist) bool {
	switch {
	case a.Comparable == nil:
		return true
	case b.Comparable == nil:
		return false
	case a.Dist != b.Dist:
		return a.Dist > b.Dist
	default:
		return slotOf(a) > slotOf(b)
	}
}

func (k *stableKeeper) Keep(c kdtree.ComparableDist) {
	if k.accept != nil && !k.accept(slotOf(c)) {
		return
	}
	top := k.items[0]
	if top.Comparable == nil && len(k.items) < k.limit {
		heap.Push(k, c)
		return
	}
	if worse(top, c) {
		k.items[0] = c
		heap.Fix(k, 0)
	}
}

func (k *stableKeeper) Max() kdtree.ComparableDist { return k.items[0] }
func (k *stableKeeper) Len() int                   { return len(k.items) }
func (k *stableKeeper) Less(i, j int) bool         { return worse(k.items[i], k.items[j]) }
func (k *stableKeeper) Swap(i, j int)              { k.items[i], k.items[j] = k.items[j], k.items[i] }
func (k *stableKeeper) Push(x any)                 { k.items = append(k.items, x.(kdtree.ComparableDist)) }
func (k *stableKeeper) Pop() any {
	last := k.items[len(k.items)-1]
	k.items = k.items[:len(k.items)-1]
	return last
}

func compareNeighbors(a, b neighbor) int {
	switch {
	case a.raw < b.raw:
		return -1
	case a.raw > b.raw:
		return 1
	default:
		return a.slot - b.slot
	}
}
