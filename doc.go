// Package scenegraph provides a hierarchical, multi-layer scene graph for Go.
//
// A scene graph is a spatial and semantic map organised into layers
// (objects, places, rooms, buildings and dynamic agents). Nodes live in
// exactly one layer. Edges either connect two nodes of the same layer
// (intra-layer) or cross layers (inter-layer), in which case they always point
// from the parent layer to the child layer.
//
// # Quick Start
//
//	g := scenegraph.New()
//	_ = g.AddNode(scenegraph.LayerRooms, 1, scenegraph.NodeAttributes{})
//	_ = g.AddNode(scenegraph.LayerPlaces, 7, scenegraph.NodeAttributes{
//	    Position: r3.Vec{X: 1, Y: 2},
//	})
//
//	// Submitted child first; stored as rooms -> places.
//	e := g.AddEdge(scenegraph.NewEdge(scenegraph.LayerPlaces, 7, scenegraph.LayerRooms, 1))
//	fmt.Println(e) // 0:r1->p7
//
// # Hierarchy
//
// Layer ranks are fixed: objects < places < rooms < buildings, with agents
// ranked alongside places. Every inter-layer edge receives an ID from a
// per-graph counter that only increases. A node has at most one parent edge;
// adding another replaces it.
//
// # Errors
//
// Two failure classes are kept apart:
//
//   - Contract violations (unknown layers, edges to missing nodes, malformed
//     edges, a corrupted edge counter) panic with a *ContractViolation.
//   - Expected absence is reported with (value, bool) pairs, ErrNodeNotFound
//     or empty slices and never panics.
//
// # Concurrency
//
// Graph has no internal locking and assumes a single writer. Wrap it in a
// SharedGraph when readers run on other goroutines.
//
// Nearest neighbour queries over layer nodes live in the nearest package.
package scenegraph
