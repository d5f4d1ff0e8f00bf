package nearest

import (
	"slices"
	"time"
)

// GlobalIndex addresses a voxel in an integer grid.
type GlobalIndex [3]int64

// VoxelResult is one neighbour of a voxel query. Distance is the Chebyshev
// (grid) distance between the indices.
type VoxelResult struct {
	Index    GlobalIndex
	Rank     int
	Distance int64
}

// VoxelFinder answers k-nearest queries over a fixed set of grid indices.
type VoxelFinder struct {
	indices []GlobalIndex
	index   index
	opts    options
}

// NewVoxelFinder indexes the given grid indices in order; that order breaks
// distance ties.
func NewVoxelFinder(indices []GlobalIndex, optFns ...Option) *VoxelFinder {
	pts := make([]point, len(indices))
	for i, idx := range indices {
		pts[i] = point{slot: i, coords: idx.coords()}
	}
	o := applyOptions(optFns)
	return &VoxelFinder{
		indices: slices.Clone(indices),
		index:   newIndex(o.backend, chebyshev, pts),
		opts:    o,
	}
}

// Len returns the number of indexed voxels.
func (f *VoxelFinder) Len() int { return len(f.indices) }

// Find returns the k nearest indexed voxels to query. skipFirst behaves as
// in NodeFinder.Find.
func (f *VoxelFinder) Find(query GlobalIndex, k int, skipFirst bool) []VoxelResult {
	start := time.Now()
	out := []VoxelResult{}
	if k > 0 {
		want := k
		if skipFirst {
			want++
		}
		for rank, h := range f.index.search(query.coords(), want, nil) {
			if skipFirst && rank == 0 {
				continue
			}
			out = append(out, VoxelResult{
				Index:    f.indices[h.slot],
				Rank:     rank,
				Distance: ChebyshevDistance(query, f.indices[h.slot]),
			})
		}
	}
	f.opts.metrics.RecordQuery(k, len(out), time.Since(start))
	return out
}

func (g GlobalIndex) coords() [3]float64 {
	return [3]float64{float64(g[0]), float64(g[1]), float64(g[2])}
}

// ChebyshevDistance returns the grid distance between two indices.
func ChebyshevDistance(a, b GlobalIndex) int64 {
	return max(abs64(a[0]-b[0]), abs64(a[1]-b[1]), abs64(a[2]-b[2]))
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
