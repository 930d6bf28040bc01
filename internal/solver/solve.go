package solver

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/operator-framework/bbopt/pkg/bbopt"
	"github.com/operator-framework/bbopt/pkg/bbopt/store"
)

// Optimizer runs one branch-and-bound search per Solve call.
type Optimizer interface {
	Solve(ctx context.Context, root bbopt.Box) (*bbopt.State, error)
}

type optimizer struct {
	settings bbopt.Settings
	layout   *bbopt.Layout
	ext      bbopt.Extensions
	tracer   bbopt.Tracer
	logger   *slog.Logger
	validate bool
}

// run is the bookkeeping of a single search that is not shared with
// extensions.
type run struct {
	st     *bbopt.State
	nodes  store.NodeStore
	nextID uint64
	// settled is the smallest lower bound of the nodes that left the search
	// without being proven infeasible.
	settled float64
}

// Solve explores root until the search is exhausted, converges, or hits a
// limit. The returned state is never nil when err is nil. Infeasibility and
// solver failures are reported through the state, not as errors.
func (o *optimizer) Solve(ctx context.Context, root bbopt.Box) (*bbopt.State, error) {
	root, err := bbopt.NewBox(root.Lower, root.Upper)
	if err != nil {
		return nil, fmt.Errorf("root box: %w", err)
	}
	layout := bbopt.Layout{UserDim: root.Dim()}
	if o.layout != nil {
		layout = *o.layout
	}
	if layout.Dim() != root.Dim() {
		return nil, fmt.Errorf("layout has %d coordinates, root box has %d: %w", layout.Dim(), root.Dim(), bbopt.ErrDimensionMismatch)
	}
	if err := o.settings.Validate(root.Dim()); err != nil {
		return nil, err
	}
	nodes, err := store.New(o.settings.NodeSelection)
	if err != nil {
		return nil, err
	}

	mask := o.settings.BranchVariable
	if mask == nil {
		mask = layout.DefaultMask()
	}
	r := &run{
		st:      bbopt.NewState(o.settings, layout, root),
		nodes:   nodes,
		settled: math.Inf(1),
	}
	n := bbopt.NewNode(root, mask)
	n.ID = r.id()
	nodes.Push(n)
	r.st.NodeCount = 1

	o.logger.Debug("search started", "dim", root.Dim(), "epigraph", layout.Epigraph, "selection", o.settings.NodeSelection)
	for r.st.EndState == bbopt.Running {
		if err := o.step(ctx, r); err != nil {
			return r.st, err
		}
	}
	if r.st.EndState.Limited() {
		open := 0
		r.nodes.Drain(func(*bbopt.Node) { open++ })
		o.logger.Debug("open nodes dropped at limit", "open", open, "lower", r.st.GlobalLower)
	}
	o.logger.Debug("search finished", "state", r.st.EndState, "iterations", r.st.Iteration, "nodes", r.st.NodeCount)
	return r.st, nil
}

func (r *run) id() uint64 {
	r.nextID++
	return r.nextID
}

// lowerBound is the smallest lower bound over everything not yet ruled out.
func (r *run) lowerBound(inHand *bbopt.Node) float64 {
	lb := math.Min(r.nodes.MinLower(), r.settled)
	if inHand != nil {
		lb = math.Min(lb, inHand.LowerObjective)
	}
	return math.Min(lb, r.st.Incumbent)
}

// prunable reports whether n cannot improve the incumbent by more than the
// tolerances allow.
func prunable(n *bbopt.Node, st *bbopt.State) bool {
	if !st.HasIncumbent() {
		return false
	}
	margin := math.Max(st.Settings.AbsoluteTolerance, st.Settings.RelativeTolerance*math.Abs(st.Incumbent))
	return n.LowerObjective >= st.Incumbent-margin
}

// exhausted is the end state of a search whose store ran empty.
func exhausted(st *bbopt.State) bbopt.EndState {
	switch {
	case st.HasIncumbent():
		return bbopt.Optimal
	case st.Unbounded:
		return bbopt.Unbounded
	}
	return bbopt.Infeasible
}

func (o *optimizer) step(ctx context.Context, r *run) error {
	st := r.st
	if r.nodes.Len() == 0 {
		st.RaiseLower(r.lowerBound(nil))
		st.EndState = exhausted(st)
		return nil
	}
	if ctx.Err() != nil {
		st.EndState = bbopt.TimeLimit
		return nil
	}

	n := r.nodes.Pop()
	st.Iteration++
	if n.Depth > st.MaxDepth {
		st.MaxDepth = n.Depth
	}
	fate := o.process(ctx, r, n)
	switch fate {
	case bbopt.PrunedByBound, bbopt.Leaf:
		r.settled = math.Min(r.settled, n.LowerObjective)
	}

	st.StoreSize = r.nodes.Len()
	if fate != bbopt.Stopped {
		st.RaiseLower(r.lowerBound(nil))
		st.Converged = o.ext.ConvergenceCheck(st)
		if end, stop := o.ext.TerminationCheck(st); stop {
			st.EndState = end
		} else if ctx.Err() != nil {
			st.EndState = bbopt.TimeLimit
		}
	}
	o.tracer.Trace(position{node: n, fate: fate, state: st})

	if o.validate {
		if err := n.Validate(st.Settings.FeasibilityTolerance); err != nil {
			return fmt.Errorf("iteration %d, %s: %w", st.Iteration, n, err)
		}
	}
	return nil
}

// process runs the per-node pipeline and returns what became of n.
func (o *optimizer) process(ctx context.Context, r *run, n *bbopt.Node) bbopt.Fate {
	st := r.st
	st.RaiseLower(r.lowerBound(n))
	if prunable(n, st) {
		st.Pruned++
		return bbopt.PrunedByBound
	}

	if o.ext.Preprocess(ctx, n, st) == bbopt.InfeasibleBox {
		st.Infeasible++
		return bbopt.PreprocessInfeasible
	}

	lb := o.ext.LowerBound(ctx, n, st)
	switch lb.Outcome {
	case bbopt.InfeasibleBox:
		st.Infeasible++
		return bbopt.LowerInfeasible
	case bbopt.SolverFailure:
		st.SolverFailures++
		n.LowerFailures++
		o.logger.Debug("lower bound failed, keeping inherited bound", "node", n.ID, "lower", n.LowerObjective)
	case bbopt.Feasible:
		n.LowerFailures = 0
		if lb.Objective > n.LowerObjective {
			n.LowerObjective = lb.Objective
		}
		if len(lb.Solution) == n.Box.Dim() {
			n.LowerSolution = n.Box.Clamp(lb.Solution)
		}
	}
	if prunable(n, st) {
		st.Pruned++
		return bbopt.PrunedByBound
	}

	ub := o.ext.UpperBound(ctx, n, st)
	switch ub.Outcome {
	case bbopt.Feasible:
		if ub.Objective < n.UpperObjective {
			n.UpperObjective = ub.Objective
			n.UpperSolution = ub.Solution
		}
		if st.Improve(ub.Objective, ub.Solution) {
			o.logger.Debug("incumbent improved", "node", n.ID, "value", ub.Objective)
		}
	case bbopt.UnboundedBelow:
		st.Unbounded = true
		st.EndState = bbopt.Unbounded
		return bbopt.Stopped
	case bbopt.InfeasibleBox:
		st.Infeasible++
		return bbopt.UpperInfeasible
	case bbopt.SolverFailure:
		st.SolverFailures++
	}
	if prunable(n, st) {
		st.Pruned++
		return bbopt.PrunedByBound
	}

	if o.ext.Postprocess(ctx, n, st) == bbopt.InfeasibleBox {
		st.Infeasible++
		return bbopt.PostprocessInfeasible
	}
	if prunable(n, st) {
		st.Pruned++
		return bbopt.PrunedByBound
	}

	if o.ext.RepeatCheck(n, st) {
		// The hook may have narrowed the box; forget points it cut off.
		if n.LowerSolution != nil && !n.Box.Contains(n.LowerSolution, 0) {
			n.LowerSolution = nil
		}
		if n.UpperSolution != nil && !n.Box.Contains(n.UpperSolution, 0) {
			n.UpperSolution, n.UpperObjective = nil, math.Inf(1)
		}
		n.Repeats++
		st.Repeats++
		r.nodes.Push(n)
		o.logger.Debug("node repeated", "node", n.ID, "repeats", n.Repeats, "box", n.Box)
		return bbopt.Repeated
	}
	coord, fraction, ok := o.ext.BranchSelect(n, st)
	if !ok {
		st.Leaves++
		return bbopt.Leaf
	}
	if coord < 0 || coord >= n.Box.Dim() || !(fraction > 0 && fraction < 1) {
		o.logger.Warn("invalid branching decision, treating node as a leaf", "node", n.ID, "coord", coord, "fraction", fraction)
		st.Leaves++
		return bbopt.Leaf
	}
	left, right := n.Branch(coord, fraction)
	left.ID, right.ID = r.id(), r.id()
	r.nodes.Push(left)
	r.nodes.Push(right)
	st.NodeCount += 2
	return bbopt.Branched
}
