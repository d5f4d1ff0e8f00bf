// Package nearest provides spatial nearest neighbour queries over scene graph
// layers and voxel grids.
//
// Three finders share one contract: results are returned in ascending
// distance order, ties resolve by the order entries were indexed, and an
// empty index or a non-positive k yields an empty result.
//
//   - NodeFinder indexes a fixed set of layer nodes (positions are copied at
//     construction).
//   - VoxelFinder indexes integer grid indices under the Chebyshev metric.
//   - DynamicNodeFinder supports adding and removing nodes between queries.
//
// Finders hold node IDs and cached positions only. They are not notified of
// graph changes; rebuild a NodeFinder or re-add nodes to a DynamicNodeFinder
// after moving nodes.
//
// The spatial structure is chosen with WithBackend. BackendKDTree (default)
// uses gonum's k-d tree; BackendFlat scans linearly.
package nearest
