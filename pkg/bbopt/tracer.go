package bbopt

import "fmt"

// Fate is what the driver did with the node it processed in an iteration.
type Fate int

const (
	PrunedByBound Fate = iota
	PreprocessInfeasible
	LowerInfeasible
	UpperInfeasible
	PostprocessInfeasible
	Repeated
	Branched
	Leaf
	// Stopped means an unbounded outcome ended the search with the node in hand.
	Stopped
)

func (f Fate) String() string {
	switch f {
	case PrunedByBound:
		return "pruned"
	case PreprocessInfeasible:
		return "preprocess infeasible"
	case LowerInfeasible:
		return "lower bound infeasible"
	case UpperInfeasible:
		return "upper bound infeasible"
	case PostprocessInfeasible:
		return "postprocess infeasible"
	case Repeated:
		return "repeated"
	case Branched:
		return "branched"
	case Leaf:
		return "leaf"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("Fate(%d)", int(f))
}

// Discarded reports whether the node left the search for good.
func (f Fate) Discarded() bool {
	switch f {
	case PrunedByBound, PreprocessInfeasible, LowerInfeasible, UpperInfeasible, PostprocessInfeasible, Leaf:
		return true
	}
	return false
}

// SearchPosition is a snapshot of one finished iteration. The node and
// state must not be retained or modified by tracers.
type SearchPosition interface {
	Node() *Node
	Fate() Fate
	State() *State
}

type Tracer interface {
	Trace(p SearchPosition)
}

// Tracers fans a position out to several tracers in order.
type Tracers []Tracer

func (ts Tracers) Trace(p SearchPosition) {
	for _, t := range ts {
		t.Trace(p)
	}
}
