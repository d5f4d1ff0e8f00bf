package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/scenegraph"
	"gonum.org/v1/gonum/spatial/r3"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformPositions generates positions uniformly inside the cube
// [-extent, extent)^3.
func (r *RNG) UniformPositions(num int, extent float64) []r3.Vec {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]r3.Vec, num)
	for i := range out {
		out[i] = r3.Vec{
			X: (r.rand.Float64()*2 - 1) * extent,
			Y: (r.rand.Float64()*2 - 1) * extent,
			Z: (r.rand.Float64()*2 - 1) * extent,
		}
	}
	return out
}

// ClusteredPositions generates positions scattered with Gaussian noise around
// random cluster centres, roughly how objects gather inside rooms.
func (r *RNG) ClusteredPositions(num, clusters int, extent, spread float64) []r3.Vec {
	centres := r.UniformPositions(clusters, extent)

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]r3.Vec, num)
	for i := range out {
		c := centres[i%clusters]
		out[i] = r3.Vec{
			X: c.X + r.rand.NormFloat64()*spread,
			Y: c.Y + r.rand.NormFloat64()*spread,
			Z: c.Z + r.rand.NormFloat64()*spread,
		}
	}
	return out
}

// GridIndices generates integer grid coordinates in [-extent, extent]^3.
// Duplicates are possible.
func (r *RNG) GridIndices(num int, extent int64) [][3]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := 2*extent + 1
	out := make([][3]int64, num)
	for i := range out {
		for j := range out[i] {
			out[i][j] = r.rand.Int63n(span) - extent
		}
	}
	return out
}

// Neighbor is a ground-truth neighbour: the position of a point in the
// input slice and its Euclidean distance to the query.
type Neighbor struct {
	Index    int
	Distance float64
}

// ExactKNN returns the k nearest points to q by linear scan. Equal distances
// keep input order.
func ExactKNN(q r3.Vec, points []r3.Vec, k int) []Neighbor {
	all := make([]Neighbor, len(points))
	for i, p := range points {
		all[i] = Neighbor{Index: i, Distance: r3.Norm(r3.Sub(q, p))}
	}
	slices.SortStableFunc(all, func(a, b Neighbor) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})
	return all[:min(k, len(all))]
}

// AlmostEqual reports whether a and b differ by at most eps.
func AlmostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// PopulateLayer adds one node per position to layer of g, using IDs
// firstID, firstID+1, ... and returns the IDs in order.
func PopulateLayer(g *scenegraph.Graph, layer scenegraph.LayerID, firstID scenegraph.NodeID, positions []r3.Vec) ([]scenegraph.NodeID, error) {
	ids := make([]scenegraph.NodeID, len(positions))
	for i, p := range positions {
		id := firstID + scenegraph.NodeID(i)
		if err := g.AddNode(layer, id, scenegraph.NodeAttributes{Position: p, IsActive: true}); err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
