// Package extension provides the stock implementations of the per-node
// hooks. Default implements every hook and is meant to be embedded: a
// custom extension set overrides the methods it cares about and inherits
// the rest.
package extension

import (
	"context"
	"math"

	"github.com/operator-framework/bbopt/pkg/bbopt"
)

// Brancher picks the coordinate to split. ok is false for a leaf.
type Brancher interface {
	Select(n *bbopt.Node, st *bbopt.State) (coord int, fraction float64, ok bool)
}

// Default bounds a Problem with its interval extension from below and its
// value at the box midpoint from above. A nil Problem gives a lower bound
// of -Inf and no upper bound, which only makes sense when another hook
// overrides them.
type Default struct {
	Problem *Problem
	// Brancher defaults to Widest.
	Brancher Brancher
}

var _ bbopt.Extensions = Default{}

// Validate checks the problem, when there is one. The optimizer calls it
// before the search starts.
func (d Default) Validate(bbopt.Layout) error {
	if d.Problem == nil {
		return nil
	}
	return d.Problem.Validate()
}

// Sense is the problem's objective sense, Minimize without a Problem.
func (d Default) Sense() bbopt.Sense {
	if d.Problem == nil {
		return bbopt.Minimize
	}
	return d.Problem.Sense
}

func (d Default) Preprocess(_ context.Context, n *bbopt.Node, _ *bbopt.State) bbopt.Outcome {
	if d.Problem == nil || d.Problem.Logic == nil {
		return bbopt.Feasible
	}
	return d.Problem.Logic.Check(n.Box)
}

func (d Default) LowerBound(_ context.Context, n *bbopt.Node, st *bbopt.State) bbopt.BoundResult {
	return IntervalLowerBound(d.Problem, n, st)
}

func (d Default) UpperBound(_ context.Context, n *bbopt.Node, st *bbopt.State) bbopt.BoundResult {
	return MidpointUpperBound(d.Problem, n, st)
}

func (d Default) Postprocess(context.Context, *bbopt.Node, *bbopt.State) bbopt.Outcome {
	return bbopt.Feasible
}

func (d Default) RepeatCheck(*bbopt.Node, *bbopt.State) bool {
	return false
}

func (d Default) BranchSelect(n *bbopt.Node, st *bbopt.State) (int, float64, bool) {
	if d.Brancher != nil {
		return d.Brancher.Select(n, st)
	}
	return Widest{}.Select(n, st)
}

// ConvergenceCheck is true once an incumbent exists and either gap is
// within its tolerance.
func (d Default) ConvergenceCheck(st *bbopt.State) bool {
	if !st.HasIncumbent() {
		return false
	}
	return st.Gap() <= st.Settings.AbsoluteTolerance || st.RelativeGap() <= st.Settings.RelativeTolerance
}

func (d Default) TerminationCheck(st *bbopt.State) (bbopt.EndState, bool) {
	s := st.Settings
	switch {
	case st.Converged:
		return bbopt.Optimal, true
	case s.IterationLimit > 0 && st.Iteration >= s.IterationLimit:
		return bbopt.IterationLimit, true
	case s.NodeLimit > 0 && st.NodeCount >= s.NodeLimit:
		return bbopt.NodeLimit, true
	case s.TimeLimit > 0 && st.Elapsed() >= s.TimeLimit:
		return bbopt.TimeLimit, true
	}
	return bbopt.Running, false
}

// IntervalLowerBound uses the lower endpoint of the objective's natural
// interval extension. A constraint whose enclosure is positive on the box
// makes the node infeasible. With an epigraph layout the auxiliary's lower
// bound is also a valid bound and the larger of the two is used.
func IntervalLowerBound(p *Problem, n *bbopt.Node, st *bbopt.State) bbopt.BoundResult {
	lb := math.Inf(-1)
	if aux := st.Layout.AuxIndex(); aux >= 0 {
		lb = n.Box.Lower[aux]
	}
	res := bbopt.BoundResult{Outcome: bbopt.Feasible, Objective: lb, Solution: n.Box.Midpoint()}
	if p == nil {
		return res
	}
	x := userBox(n.Box, st.Layout)
	if p.Unsatisfiable(x) {
		return bbopt.InfeasibleResult()
	}
	enc, ok := p.Enclosure(x)
	if !ok {
		return res
	}
	if enc.IsEmpty() || math.IsNaN(enc.Lo) {
		// The box leaves the objective's domain somewhere; nothing certified.
		return bbopt.FailedResult()
	}
	res.Objective = math.Max(lb, enc.Lo)
	return res
}

// MidpointUpperBound evaluates the problem at the box midpoint and reports
// it when the midpoint is feasible.
func MidpointUpperBound(p *Problem, n *bbopt.Node, st *bbopt.State) bbopt.BoundResult {
	if p == nil {
		return bbopt.FailedResult()
	}
	u := st.Layout.UserPoint(n.Box.Midpoint())
	return evaluate(p, u, n, st)
}

// evaluate turns a user point into an upper bound result after an exact
// feasibility check.
func evaluate(p *Problem, u []float64, n *bbopt.Node, st *bbopt.State) bbopt.BoundResult {
	if !p.Feasible(u, st.Settings.FeasibilityTolerance) {
		return bbopt.FailedResult()
	}
	v := p.Value(u)
	switch {
	case math.IsNaN(v) || math.IsInf(v, 1):
		return bbopt.FailedResult()
	case math.IsInf(v, -1):
		return bbopt.BoundResult{Outcome: bbopt.UnboundedBelow, Objective: v, Solution: fullPoint(u, 0, n.Box, st.Layout)}
	}
	return bbopt.BoundResult{Outcome: bbopt.Feasible, Objective: v, Solution: fullPoint(u, v, n.Box, st.Layout)}
}

// Widest splits the branch-eligible coordinate with the largest width
// relative to the root box, at Settings.BranchFraction. Coordinates
// narrower than Settings.MinimumBoxWidth are not eligible.
type Widest struct{}

func (Widest) Select(n *bbopt.Node, st *bbopt.State) (int, float64, bool) {
	best, bestWidth := -1, 0.0
	for i := 0; i < n.Box.Dim(); i++ {
		if !n.Branchable(i) {
			continue
		}
		w := n.Box.Width(i)
		if w < st.Settings.MinimumBoxWidth || w == 0 {
			continue
		}
		if i < len(st.RootWidth) && st.RootWidth[i] > 0 {
			w /= st.RootWidth[i]
		}
		if w > bestWidth {
			best, bestWidth = i, w
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return best, fraction(st), true
}

// FixedCoordinate always splits the same coordinate until it is narrower
// than Settings.MinimumBoxWidth.
type FixedCoordinate int

func (f FixedCoordinate) Select(n *bbopt.Node, st *bbopt.State) (int, float64, bool) {
	i := int(f)
	if i < 0 || i >= n.Box.Dim() {
		return 0, 0, false
	}
	if w := n.Box.Width(i); w < st.Settings.MinimumBoxWidth || w == 0 {
		return 0, 0, false
	}
	return i, fraction(st), true
}

func fraction(st *bbopt.State) float64 {
	if f := st.Settings.BranchFraction; f > 0 && f < 1 {
		return f
	}
	return 0.5
}
