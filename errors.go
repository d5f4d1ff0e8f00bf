package scenegraph

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned when a node ID is not present in a layer.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNodeExists is returned when inserting a node whose ID is taken.
	ErrNodeExists = errors.New("node already exists")

	// ErrUnknownLayer indicates a layer ID that is not registered in the graph.
	ErrUnknownLayer = errors.New("unknown layer")

	// ErrInvalidEdge indicates an edge that fails the validity predicate.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrNotInterLayer indicates an edge with both ends in the same layer
	// passed where an inter-layer edge is required.
	ErrNotInterLayer = errors.New("edge is not inter-layer")

	// ErrDuplicateEdgeID indicates the inter-layer counter produced an ID
	// that is already stored.
	ErrDuplicateEdgeID = errors.New("duplicate inter-layer edge id")

	// ErrNoHierarchy indicates two distinct layers that share a rank, so no
	// parent/child orientation exists between them.
	ErrNoHierarchy = errors.New("layers have no hierarchy relation")
)

// ContractViolation is the panic value used when a caller breaks the graph's
// structural contract: unknown layers, missing endpoints, malformed edges or a
// corrupted edge counter. It is never returned as an ordinary error.
type ContractViolation struct {
	Op     string
	Err    error
	Detail string
}

func (e *ContractViolation) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("scenegraph: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("scenegraph: %s: %v: %s", e.Op, e.Err, e.Detail)
}

func (e *ContractViolation) Unwrap() error { return e.Err }

// AsContractViolation inspects a value obtained from recover. It returns the
// violation and true if r is a *ContractViolation.
func AsContractViolation(r any) (*ContractViolation, bool) {
	err, ok := r.(error)
	if !ok {
		return nil, false
	}
	var cv *ContractViolation
	if errors.As(err, &cv) {
		return cv, true
	}
	return nil, false
}

func violation(op string, err error, format string, args ...any) {
	panic(&ContractViolation{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)})
}
