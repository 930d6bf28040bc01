package bbopt

import (
	"context"
	"fmt"
)

// EndState is the terminal status of a search.
type EndState int

const (
	Running EndState = iota
	Optimal
	Infeasible
	Unbounded
	IterationLimit
	TimeLimit
	NodeLimit
)

func (s EndState) String() string {
	switch s {
	case Running:
		return "running"
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case IterationLimit:
		return "iteration limit"
	case TimeLimit:
		return "time limit"
	case NodeLimit:
		return "node limit"
	}
	return fmt.Sprintf("EndState(%d)", int(s))
}

// Limited reports whether the search stopped on a resource limit, in
// which case the incumbent is not certified to be globally optimal.
func (s EndState) Limited() bool {
	return s == IterationLimit || s == TimeLimit || s == NodeLimit
}

// Sense is the direction of optimization. The search always minimizes
// internally; a maximization problem is negated once on the way in and
// once on the way out.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Sign returns the factor that maps objective values into minimization form.
func (s Sense) Sign() float64 {
	if s == Maximize {
		return -1
	}
	return 1
}

func (s Sense) String() string {
	if s == Maximize {
		return "max"
	}
	return "min"
}

// Outcome is the status reported by a single phase of the per-node pipeline.
type Outcome int

const (
	Feasible Outcome = iota
	// InfeasibleBox means no point of the node's box satisfies the constraints.
	InfeasibleBox
	// SolverFailure means the phase produced no usable information; the
	// node is kept alive at its best known bound.
	SolverFailure
	// UnboundedBelow means the phase proved the objective is unbounded.
	UnboundedBelow
)

func (o Outcome) String() string {
	switch o {
	case Feasible:
		return "feasible"
	case InfeasibleBox:
		return "infeasible"
	case SolverFailure:
		return "solver failure"
	case UnboundedBelow:
		return "unbounded"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// BoundResult is produced by the lower and upper bounding phases.
type BoundResult struct {
	Outcome   Outcome
	Objective float64
	// Solution is a point in the node's box. For lower bounds it need not
	// be feasible for the original problem.
	Solution []float64
}

// InfeasibleResult returns a BoundResult declaring the box infeasible.
func InfeasibleResult() BoundResult {
	return BoundResult{Outcome: InfeasibleBox}
}

// FailedResult returns a BoundResult carrying no usable bound.
func FailedResult() BoundResult {
	return BoundResult{Outcome: SolverFailure}
}

// Extensions is the set of hooks the driver dispatches to while
// processing a node. Implementations usually embed extension.Default and
// override only what they need.
//
// Hooks receive the node currently held by the driver and the search
// bookkeeping. They may modify the node; they must not retain it or touch
// any other node.
type Extensions interface {
	// Preprocess is a cheap feasibility filter run before bounding.
	Preprocess(ctx context.Context, n *Node, st *State) Outcome
	// LowerBound must never report a value above the true minimum over
	// the node's box.
	LowerBound(ctx context.Context, n *Node, st *State) BoundResult
	// UpperBound must report an evaluated point that is feasible for the
	// original problem.
	UpperBound(ctx context.Context, n *Node, st *State) BoundResult
	// Postprocess may tighten the node's box without removing feasible points.
	Postprocess(ctx context.Context, n *Node, st *State) Outcome
	// RepeatCheck returns true when the node should be re-enqueued
	// instead of split. It may mutate the node's box.
	RepeatCheck(n *Node, st *State) bool
	// BranchSelect picks the coordinate to split and the split fraction.
	// ok is false when the node is a leaf.
	BranchSelect(n *Node, st *State) (coord int, fraction float64, ok bool)
	// ConvergenceCheck reports whether the global gap is closed.
	ConvergenceCheck(st *State) bool
	// TerminationCheck is the authoritative stop condition.
	TerminationCheck(st *State) (EndState, bool)
}
