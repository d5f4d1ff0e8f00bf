// Package testutil provides testing utilities for scenegraph.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random positions and grid indices,
// computing exact nearest neighbours and filling graph layers.
//
// # Random Positions
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformPositions(1000, 50)        // cube [-50, 50)^3
//	pts = rng.ClusteredPositions(1000, 8, 50, 2) // 8 clusters
//
// # Exact Search (Ground Truth)
//
//	want := testutil.ExactKNN(query, pts, k)
package testutil
