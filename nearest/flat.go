package nearest

import "github.com/hupe1980/scenegraph/internal/queue"

// flatIndex answers queries by scanning every point.
type flatIndex struct {
	metric metric
	points []point
}

func newFlatIndex(m metric, pts []point) *flatIndex {
	return &flatIndex{metric: m, points: append([]point(nil), pts...)}
}

func (x *flatIndex) insert(p point) { x.points = append(x.points, p) }

func (x *flatIndex) len() int { return len(x.points) }

func (x *flatIndex) search(q [3]float64, k int, accept func(int) bool) []neighbor {
	if k <= 0 || len(x.points) == 0 {
		return nil
	}
	pq := queue.NewPriorityQueue(true)
	for _, p := range x.points {
		if accept != nil && !accept(p.slot) {
			continue
		}
		pq.PushItemBounded(queue.Item{Slot: p.slot, Distance: x.metric.raw(q, p.coords)}, k)
	}

	sorted := pq.Sorted()
	out := make([]neighbor, len(sorted))
	for i, it := range sorted {
		out[i] = neighbor{slot: it.Slot, raw: it.Distance}
	}
	return out
}
