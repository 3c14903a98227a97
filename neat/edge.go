package neat

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEdge is returned when an edge would break the direction,
	// weight or layer rules of a network.
	ErrInvalidEdge = errors.New("invalid edge")
	// ErrDuplicateEdge is returned when the (begin, end) pair is already
	// connected.
	ErrDuplicateEdge = errors.New("duplicate edge")
)

// Edge is a directed connection between two nodes of the same Network.
type Edge struct {
	Begin  int
	End    int
	Weight int
}

// EdgeKey identifies an edge by its ordered endpoints.
type EdgeKey struct {
	Begin int
	End   int
}

// Key returns the ordered endpoint pair of the edge.
func (e Edge) Key() EdgeKey {
	return EdgeKey{Begin: e.Begin, End: e.End}
}

// String returns a string representation of the Edge.
func (e Edge) String() string {
	return fmt.Sprintf("Edge(%d -> %d, Weight: %+d)", e.Begin, e.End, e.Weight)
}

// checkEdge validates an edge against the current layers of its endpoints.
// It is the only place where edge invariants are checked.
func checkEdge(nodes []*Node, begin, end, weight int) error {
	if begin < 0 || begin >= len(nodes) || end < 0 || end >= len(nodes) {
		return fmt.Errorf("%w: endpoint out of range (%d -> %d, %d nodes)", ErrInvalidEdge, begin, end, len(nodes))
	}
	if weight != 1 && weight != -1 {
		return fmt.Errorf("%w: weight %d is not +1 or -1", ErrInvalidEdge, weight)
	}
	b, e := nodes[begin], nodes[end]
	if b.Kind == OutputNode {
		return fmt.Errorf("%w: begin %d is an output node", ErrInvalidEdge, begin)
	}
	if e.Kind == InputNode {
		return fmt.Errorf("%w: end %d is an input node", ErrInvalidEdge, end)
	}
	if e.Kind != OutputNode && b.Layer >= e.Layer {
		return fmt.Errorf("%w: layer %d of begin %d is not below layer %d of end %d",
			ErrInvalidEdge, b.Layer, begin, e.Layer, end)
	}
	return nil
}
