package scenegraph

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// SharedGraph guards a Graph for one writer and many readers. The graph
// itself has no locking; everything that touches it through a SharedGraph
// goes through Read or Update.
type SharedGraph struct {
	mu         sync.RWMutex
	graph      *Graph
	updated    bool
	lastUpdate time.Time
	prefixes   map[LayerID]byte
	byPrefix   map[byte]LayerID
}

// NewSharedGraph wraps g. Layer prefixes default to LayerID.Prefix and can be
// overridden per layer. If two layers end up with the same prefix,
// LayerForPrefix resolves it to the lower layer.
func NewSharedGraph(g *Graph, prefixes map[LayerID]byte) *SharedGraph {
	p := make(map[LayerID]byte, len(g.layerIDs))
	for _, id := range g.layerIDs {
		p[id] = id.Prefix()
	}
	for id, c := range prefixes {
		p[id] = c
	}

	byPrefix := make(map[byte]LayerID, len(p))
	for _, id := range slices.Sorted(maps.Keys(p)) {
		if _, taken := byPrefix[p[id]]; !taken {
			byPrefix[p[id]] = id
		}
	}
	return &SharedGraph{graph: g, prefixes: p, byPrefix: byPrefix}
}

// Read runs fn with a read lock held. fn must not retain g.
func (s *SharedGraph) Read(fn func(g *Graph) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.graph)
}

// Update runs fn with the write lock held and marks the graph as updated.
func (s *SharedGraph) Update(now time.Time, fn func(g *Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.graph); err != nil {
		return err
	}
	s.updated = true
	s.lastUpdate = now
	return nil
}

// ConsumeUpdate reports whether the graph changed since the previous call and
// clears the flag.
func (s *SharedGraph) ConsumeUpdate() (bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := s.updated
	s.updated = false
	return updated, s.lastUpdate
}

// Prefix returns the symbol prefix configured for a layer.
func (s *SharedGraph) Prefix(id LayerID) (byte, bool) {
	c, ok := s.prefixes[id]
	return c, ok
}

// LayerForPrefix returns the layer a symbol prefix belongs to.
func (s *SharedGraph) LayerForPrefix(c byte) (LayerID, bool) {
	id, ok := s.byPrefix[c]
	if !ok {
		return LayerInvalid, false
	}
	return id, true
}
