// Command scenegraph builds a random scene graph, connects its layers, runs a
// few nearest neighbour queries and writes a snapshot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hupe1980/scenegraph"
	"github.com/hupe1980/scenegraph/blobstore"
	"github.com/hupe1980/scenegraph/config"
	"github.com/hupe1980/scenegraph/connector"
	"github.com/hupe1980/scenegraph/nearest"
	"github.com/hupe1980/scenegraph/observability"
	"github.com/hupe1980/scenegraph/snapshot"
	"github.com/hupe1980/scenegraph/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	configPath  = flag.String("config", "", "Path to a YAML config file")
	seed        = flag.Int64("seed", 42, "Random seed")
	numPlaces   = flag.Int("places", 200, "Number of places")
	numObjects  = flag.Int("objects", 500, "Number of objects")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address and wait for a signal")
	outDir      = flag.String("out", "", "Write the snapshot to this directory instead of the configured store")
)

const extent = 50.0

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := cfg.Logger()

	reg := prometheus.NewRegistry()
	mc, err := observability.NewPrometheusCollector(reg)
	if err != nil {
		return err
	}
	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			fmt.Printf("Prometheus metrics available at http://%s/metrics\n", *metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server error: %v", err)
			}
		}()
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	layers, err := cfg.LayerIDs()
	if err != nil {
		return err
	}
	prefixes, err := cfg.Prefixes()
	if err != nil {
		return err
	}

	g := scenegraph.New(
		scenegraph.WithLayers(layers...),
		scenegraph.WithLogger(logger),
		scenegraph.WithMetricsCollector(mc),
	)
	shared := scenegraph.NewSharedGraph(g, prefixes)
	symbol := func(l scenegraph.LayerID, id scenegraph.NodeID) string {
		p, _ := shared.Prefix(l)
		return fmt.Sprintf("%c%d", p, id)
	}

	rng := testutil.NewRNG(*seed)
	if err := shared.Update(time.Now(), func(g *scenegraph.Graph) error {
		return populate(g, cfg, rng)
	}); err != nil {
		return err
	}

	connectorCfgs, err := cfg.ConnectorConfigs()
	if err != nil {
		return err
	}
	gc, err := connector.NewGraphConnector(connectorCfgs, connector.WithFinderOptions(cfg.FinderOptions()...))
	if err != nil {
		return err
	}
	var connected int
	if err := shared.Update(time.Now(), func(g *scenegraph.Graph) error {
		connected, err = gc.Connect(ctx, g)
		return err
	}); err != nil {
		return err
	}
	fmt.Printf("Graph: %d nodes, %d inter-layer edges (%d from connectors)\n", g.NumNodes(), g.NumInterLayerEdges(), connected)

	if err := shared.Read(func(g *scenegraph.Graph) error {
		return query(ctx, g, cfg, rng, symbol)
	}); err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	name, err := snapshot.Save(ctx, store, g, cfg.SnapshotOptions()...)
	if err != nil {
		return err
	}
	restored, err := snapshot.Load(ctx, store, name, snapshot.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot %s: restored %d nodes, %d inter-layer edges\n", name, restored.NumNodes(), restored.NumInterLayerEdges())

	if *metricsAddr != "" {
		fmt.Println("Waiting for SIGINT/SIGTERM")
		<-ctx.Done()
	}
	return nil
}

// populate adds places, clustered objects, rooms, a building and a few agents
// to every enabled layer.
func populate(g *scenegraph.Graph, cfg config.Config, rng *testutil.RNG) error {
	now := time.Now()
	add := func(layer scenegraph.LayerID, firstID scenegraph.NodeID, positions []r3.Vec, decorate func(i int, a *scenegraph.NodeAttributes)) error {
		if !g.HasLayer(layer) {
			return nil
		}
		for i, p := range positions {
			attrs := scenegraph.NodeAttributes{Position: p, Timestamp: now, IsActive: true}
			if decorate != nil {
				decorate(i, &attrs)
			}
			if err := g.AddNode(layer, firstID+scenegraph.NodeID(i), attrs); err != nil {
				return err
			}
		}
		return nil
	}

	if err := add(scenegraph.LayerPlaces, 1, rng.UniformPositions(*numPlaces, extent), nil); err != nil {
		return err
	}
	if g.HasLayer(scenegraph.LayerPlaces) {
		places := g.Layer(scenegraph.LayerPlaces)
		finder, err := nearest.NewNodeFinder(places, places.NodeIDs(), cfg.FinderOptions()...)
		if err != nil {
			return err
		}
		for _, id := range places.NodeIDs() {
			n, _ := places.Node(id)
			for _, r := range finder.Find(n.Position(), 2, true) {
				if id < r.ID {
					g.AddEdge(scenegraph.Edge{StartLayer: scenegraph.LayerPlaces, StartNode: id, EndLayer: scenegraph.LayerPlaces, EndNode: r.ID, Weight: r.Distance})
				}
			}
		}
	}

	clusters := max(1, *numObjects/25)
	if err := add(scenegraph.LayerObjects, 1, rng.ClusteredPositions(*numObjects, clusters, extent, 2), func(i int, a *scenegraph.NodeAttributes) {
		a.SemanticLabel = uint32(rng.Intn(20))
		a.Name = cfg.LabelName(a.SemanticLabel)
	}); err != nil {
		return err
	}

	numRooms := max(1, *numPlaces/20)
	if err := add(scenegraph.LayerRooms, 1, rng.UniformPositions(numRooms, extent), func(i int, a *scenegraph.NodeAttributes) {
		a.Color = cfg.RoomColor(i)
		a.SemanticLabel = cfg.Labels.Room
		a.Name = cfg.LabelName(a.SemanticLabel)
	}); err != nil {
		return err
	}

	if err := add(scenegraph.LayerBuildings, 1, []r3.Vec{{}}, func(_ int, a *scenegraph.NodeAttributes) {
		a.SemanticLabel = cfg.Labels.Building
		a.Name = cfg.LabelName(a.SemanticLabel)
	}); err != nil {
		return err
	}
	if g.HasLayer(scenegraph.LayerBuildings) && g.HasLayer(scenegraph.LayerRooms) {
		for _, id := range g.Layer(scenegraph.LayerRooms).NodeIDs() {
			g.AddEdge(scenegraph.NewEdge(scenegraph.LayerBuildings, 1, scenegraph.LayerRooms, id))
		}
	}

	return add(scenegraph.LayerAgents, 1, rng.UniformPositions(5, extent), nil)
}

func query(ctx context.Context, g *scenegraph.Graph, cfg config.Config, rng *testutil.RNG, symbol func(scenegraph.LayerID, scenegraph.NodeID) string) error {
	if !g.HasLayer(scenegraph.LayerPlaces) {
		return nil
	}
	places := g.Layer(scenegraph.LayerPlaces)
	finder, err := nearest.NewNodeFinder(places, places.NodeIDs(), cfg.FinderOptions()...)
	if err != nil {
		return err
	}

	queries := rng.UniformPositions(3, extent)
	found, err := finder.FindBatch(ctx, queries, 3, false)
	if err != nil {
		return err
	}
	for i, results := range found {
		fmt.Printf("Nearest places to (%.1f, %.1f, %.1f):", queries[i].X, queries[i].Y, queries[i].Z)
		for _, r := range results {
			fmt.Printf(" %s@%.2f", symbol(scenegraph.LayerPlaces, r.ID), r.Distance)
		}
		fmt.Println()
	}

	// Voxelise places at 1m and find the voxel furthest from the line between
	// the first and last place.
	ids := places.NodeIDs()
	if len(ids) >= 2 {
		voxels := make([]nearest.GlobalIndex, len(ids))
		for i, id := range ids {
			n, _ := places.Node(id)
			p := n.Position()
			voxels[i] = nearest.GlobalIndex{int64(math.Floor(p.X)), int64(math.Floor(p.Y)), int64(math.Floor(p.Z))}
		}
		vf := nearest.NewVoxelFinder(voxels, cfg.FinderOptions()...)
		nearestVoxels := vf.Find(voxels[0], 2, true)
		fmt.Printf("Voxels next to %v: %v\n", voxels[0], nearestVoxels)

		half := len(voxels) / 2
		res := nearest.FurthestIndexFromLineSplit(voxels, voxels[0], voxels[len(voxels)-1], half)
		if res.Valid {
			fmt.Printf("Furthest from line: %s at voxel %v (distance %d, first half %t)\n", symbol(scenegraph.LayerPlaces, ids[res.Offset]), res.Index, res.Distance, res.FromSource)
		}
	}

	if g.HasLayer(scenegraph.LayerAgents) {
		agents, err := nearest.NewDynamicNodeFinder(g, scenegraph.LayerAgents, cfg.FinderOptions()...)
		if err != nil {
			return err
		}
		agentIDs := g.Layer(scenegraph.LayerAgents).NodeIDs()
		if err := agents.AddNodes(agentIDs); err != nil {
			return err
		}
		if len(agentIDs) > 0 {
			agents.RemoveNode(agentIDs[0])
		}
		for _, r := range agents.Find(r3.Vec{}, 2, false) {
			fmt.Printf("Agent near origin: %s@%.2f\n", symbol(scenegraph.LayerAgents, r.ID), r.Distance)
		}
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (blobstore.BlobStore, error) {
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			return nil, err
		}
		return blobstore.NewLocalStore(*outDir), nil
	}
	return cfg.Snapshot.NewStore(ctx)
}
