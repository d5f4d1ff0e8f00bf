package nearest

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// FurthestIndexResult describes the index furthest from a line segment.
// Valid is false when there were no candidates.
type FurthestIndexResult struct {
	Valid bool
	// Distance to the segment rounded to whole voxels.
	Distance int64
	// FromSource reports whether the winner lies in the source part of the
	// input.
	FromSource bool
	// Index is the winning index itself.
	Index GlobalIndex
	// Offset is the winner's position in the input slice.
	Offset int
}

// FurthestIndexFromLine returns the index furthest from the segment
// start-end, treating every index as a source candidate.
func FurthestIndexFromLine(indices []GlobalIndex, start, end GlobalIndex) FurthestIndexResult {
	return FurthestIndexFromLineSplit(indices, start, end, len(indices))
}

// FurthestIndexFromLineSplit returns the index furthest from the segment
// start-end. The first numSource indices are candidates from the source and
// the rest from the target. Ties keep the earliest index.
func FurthestIndexFromLineSplit(indices []GlobalIndex, start, end GlobalIndex, numSource int) FurthestIndexResult {
	numSource = max(0, min(numSource, len(indices)))

	a := toVec(start)
	b := toVec(end)
	result := FurthestIndexResult{FromSource: true}
	best := -1.0
	for i, idx := range indices {
		d := segmentDistance(toVec(idx), a, b)
		if d > best {
			best = d
			result.Valid = true
			result.Index = idx
			result.Offset = i
			result.FromSource = i < numSource
		}
	}
	if result.Valid {
		result.Distance = int64(math.Round(best))
	}
	return result
}

// segmentDistance is the Euclidean distance from p to the closest point of
// the segment a-b. A degenerate segment collapses to a point.
func segmentDistance(p, a, b r3.Vec) float64 {
	ab := r3.Sub(b, a)
	ap := r3.Sub(p, a)
	den := r3.Norm2(ab)
	if den == 0 {
		return r3.Norm(ap)
	}
	t := math.Max(0, math.Min(1, r3.Dot(ap, ab)/den))
	return r3.Norm(r3.Sub(ap, r3.Scale(t, ab)))
}

func toVec(g GlobalIndex) r3.Vec {
	return r3.Vec{X: float64(g[0]), Y: float64(g[1]), Z: float64(g[2])}
}
