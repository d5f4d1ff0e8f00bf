// Package connector attaches nodes to their nearest parent in the layer
// above.
//
// A LayerConnector tracks the active nodes of one parent layer and of one or
// more child layers. Each Connect call indexes the active parents and adds a
// parent edge from the nearest one to every active child whose parent
// changed. A GraphConnector drives several LayerConnectors from the nodes a
// graph reports through Graph.NewNodes.
//
//	gc, err := connector.NewGraphConnector([]connector.Config{
//		{ParentLayer: scenegraph.LayerPlaces, ChildLayers: []scenegraph.LayerID{scenegraph.LayerObjects}},
//		{ParentLayer: scenegraph.LayerRooms, ChildLayers: []scenegraph.LayerID{scenegraph.LayerPlaces}},
//	})
//	...
//	added, err := gc.Connect(ctx, g)
package connector
