package nearest

import (
	"fmt"
	"math"
	"strings"
)

// Backend selects the spatial structure behind a finder.
type Backend uint8

const (
	// BackendKDTree uses a k-d tree. It is the default.
	BackendKDTree Backend = iota
	// BackendFlat scans every entry. Exact and allocation light for small sets.
	BackendFlat
)

func (b Backend) String() string {
	switch b {
	case BackendKDTree:
		return "kdtree"
	case BackendFlat:
		return "flat"
	default:
		return fmt.Sprintf("backend(%d)", uint8(b))
	}
}

// ParseBackend converts a backend name into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "", "kdtree", "kd-tree":
		return BackendKDTree, nil
	case "flat":
		return BackendFlat, nil
	default:
		return 0, fmt.Errorf("nearest: unknown backend %q", s)
	}
}

// metric turns a coordinate difference into a comparable "raw" distance. The
// raw value is monotone in the true distance and bounded below by the square
// of every single-axis difference, which keeps k-d tree pruning exact.
type metric uint8

const (
	// euclidean yields squared Euclidean distance.
	euclidean metric = iota
	// chebyshev yields the squared maximum axis difference.
	chebyshev
)

func (m metric) raw(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	if m == chebyshev {
		d := math.Max(math.Abs(dx), math.Max(math.Abs(dy), math.Abs(dz)))
		return d * d
	}
	return dx*dx + dy*dy + dz*dz
}

// point is an indexed position. slot is its position in insertion order and
// is used to break distance ties.
type point struct {
	slot   int
	coords [3]float64
}

// neighbor is a search hit in raw metric units.
type neighbor struct {
	slot int
	raw  float64
}

// index hides the concrete spatial structure from the finders.
type index interface {
	// search returns up to k accepted points closest to q, ordered by raw
	// distance and then by slot. A nil accept admits every point.
	search(q [3]float64, k int, accept func(slot int) bool) []neighbor
	insert(p point)
	len() int
}

func newIndex(b Backend, m metric, pts []point) index {
	switch b {
	case BackendFlat:
		return newFlatIndex(m, pts)
	default:
		return newKDIndex(m, pts)
	}
}
