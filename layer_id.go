package scenegraph

import (
	"fmt"
	"strconv"
	"strings"
)

// LayerID identifies one level of the scene graph hierarchy.
//
// The set of layer IDs is closed: a graph registers its layers once at
// construction and never adds or removes one afterwards.
type LayerID uint8

const (
	// LayerInvalid is the zero value and is never registered.
	LayerInvalid LayerID = iota
	// LayerObjects holds segmented objects.
	LayerObjects
	// LayerPlaces holds free-space places.
	LayerPlaces
	// LayerRooms holds rooms clustered from places.
	LayerRooms
	// LayerBuildings holds buildings.
	LayerBuildings
	// LayerAgents holds dynamic agent poses. Ranked parallel to places.
	LayerAgents
)

// KnownLayers returns every valid layer ID in ascending ID order.
func KnownLayers() []LayerID {
	return []LayerID{LayerObjects, LayerPlaces, LayerRooms, LayerBuildings, LayerAgents}
}

// Rank returns the position of the layer in the hierarchy. Higher ranks are
// parents of lower ranks. Unknown layers have rank 0.
func (l LayerID) Rank() int {
	switch l {
	case LayerObjects:
		return 1
	case LayerPlaces, LayerAgents:
		return 2
	case LayerRooms:
		return 3
	case LayerBuildings:
		return 4
	default:
		return 0
	}
}

// Valid reports whether l is one of the known layers.
func (l LayerID) Valid() bool { return l.Rank() > 0 }

// Prefix returns the single character used in node symbols for this layer.
func (l LayerID) Prefix() byte {
	switch l {
	case LayerObjects:
		return 'o'
	case LayerPlaces:
		return 'p'
	case LayerRooms:
		return 'r'
	case LayerBuildings:
		return 'b'
	case LayerAgents:
		return 'a'
	default:
		return '?'
	}
}

func (l LayerID) String() string {
	switch l {
	case LayerObjects:
		return "objects"
	case LayerPlaces:
		return "places"
	case LayerRooms:
		return "rooms"
	case LayerBuildings:
		return "buildings"
	case LayerAgents:
		return "agents"
	default:
		return "layer(" + strconv.Itoa(int(l)) + ")"
	}
}

// ParseLayer converts a layer name (as returned by String) into a LayerID.
func ParseLayer(s string) (LayerID, error) {
	for _, l := range KnownLayers() {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	return LayerInvalid, fmt.Errorf("%w: %q", ErrUnknownLayer, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l LayerID) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLayer, l)
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LayerID) UnmarshalText(b []byte) error {
	id, err := ParseLayer(string(b))
	if err != nil {
		return err
	}
	*l = id
	return nil
}

// Relation describes how two layers relate in the hierarchy.
type Relation uint8

const (
	// RelationNone means the layers are distinct but share a rank.
	RelationNone Relation = iota
	// RelationSibling means both ends are in the same layer.
	RelationSibling
	// RelationParent means the first layer is above the second.
	RelationParent
	// RelationChild means the first layer is below the second.
	RelationChild
)

func (r Relation) String() string {
	switch r {
	case RelationSibling:
		return "sibling"
	case RelationParent:
		return "parent"
	case RelationChild:
		return "child"
	default:
		return "none"
	}
}

// RelationOf returns how layer a relates to layer b.
func RelationOf(a, b LayerID) Relation {
	if a == b {
		return RelationSibling
	}
	ra, rb := a.Rank(), b.Rank()
	switch {
	case ra > rb:
		return RelationParent
	case ra < rb:
		return RelationChild
	default:
		return RelationNone
	}
}

// NodeSymbol is a human readable node label made of a layer prefix and an
// index, e.g. "p12".
type NodeSymbol struct {
	Prefix byte
	Index  uint64
}

// Symbol returns the symbol of node id in layer l.
func Symbol(l LayerID, id NodeID) NodeSymbol {
	return NodeSymbol{Prefix: l.Prefix(), Index: uint64(id)}
}

func (s NodeSymbol) String() string {
	return string(s.Prefix) + strconv.FormatUint(s.Index, 10)
}

// ParseSymbol parses a symbol such as "o42".
func ParseSymbol(s string) (NodeSymbol, error) {
	if len(s) < 2 {
		return NodeSymbol{}, fmt.Errorf("invalid node symbol %q", s)
	}
	idx, err := strconv.ParseUint(s[1:], 10, 64)
	if err != nil {
		return NodeSymbol{}, fmt.Errorf("invalid node symbol %q: %w", s, err)
	}
	return NodeSymbol{Prefix: s[0], Index: idx}, nil
}
