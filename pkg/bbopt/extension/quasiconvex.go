package extension

import (
	"context"
	"fmt"
	"math"

	"github.com/operator-framework/bbopt/pkg/bbopt"
	"github.com/operator-framework/bbopt/pkg/bbopt/local"
)

// SublevelTest looks for a user point in [lower, upper] whose objective,
// in minimization form, is at most t. It returns Feasible with the point,
// InfeasibleBox when no such point exists, or SolverFailure.
type SublevelTest func(ctx context.Context, lower, upper []float64, t float64) ([]float64, bbopt.Outcome)

// QuasiConvex solves min f(x) for quasiconvex f by bisection on the
// epigraph variable t instead of branching. Every visit tests whether the
// sublevel set {f <= t_mid} meets the box: on success the point becomes an
// upper bound candidate and the aux range shrinks to [t_lo, t_mid], on
// failure the node's lower bound becomes t_mid and the range shrinks to
// [t_mid, t_hi]. The same node is re-queued until the aux range is
// narrower than Settings.MinimumBoxWidth.
type QuasiConvex struct {
	Default
	Test SublevelTest
	// Retries bounds how many consecutive failed tests are repeated on
	// the same range before the node is left as a leaf. Zero means 3.
	Retries int
}

const defaultRetries = 3

var _ bbopt.Extensions = QuasiConvex{}

func (q QuasiConvex) Validate(layout bbopt.Layout) error {
	if !layout.Epigraph {
		return fmt.Errorf("bisection needs an epigraph variable: %w", bbopt.ErrInvalidOption)
	}
	if q.Test == nil {
		return fmt.Errorf("bisection needs a sublevel test: %w", bbopt.ErrInvalidOption)
	}
	return q.Default.Validate(layout)
}

func threshold(box bbopt.Box, aux int) (lo, mid, hi float64) {
	lo, hi = box.Lower[aux], box.Upper[aux]
	return lo, lo + 0.5*(hi-lo), hi
}

func (q QuasiConvex) LowerBound(ctx context.Context, n *bbopt.Node, st *bbopt.State) bbopt.BoundResult {
	aux := st.Layout.AuxIndex()
	if aux < 0 || q.Test == nil {
		return bbopt.FailedResult()
	}
	lo, mid, _ := threshold(n.Box, aux)
	lower := st.Layout.UserPoint(n.Box.Lower)
	upper := st.Layout.UserPoint(n.Box.Upper)

	x, outcome := q.Test(ctx, lower, upper, mid)
	switch outcome {
	case bbopt.Feasible:
		return bbopt.BoundResult{Outcome: bbopt.Feasible, Objective: lo, Solution: fullPoint(x, mid, n.Box, st.Layout)}
	case bbopt.InfeasibleBox:
		u := st.Layout.UserPoint(n.Box.Midpoint())
		return bbopt.BoundResult{Outcome: bbopt.Feasible, Objective: mid, Solution: fullPoint(u, mid, n.Box, st.Layout)}
	}
	return bbopt.FailedResult()
}

// UpperBound evaluates the point found by the last sublevel test and the
// box midpoint, keeping the better feasible one.
func (q QuasiConvex) UpperBound(_ context.Context, n *bbopt.Node, st *bbopt.State) bbopt.BoundResult {
	if q.Problem == nil {
		return bbopt.FailedResult()
	}
	best := MidpointUpperBound(q.Problem, n, st)
	if n.LowerSolution != nil {
		u := append([]float64(nil), st.Layout.UserPoint(n.LowerSolution)...)
		r := evaluate(q.Problem, u, n, st)
		if r.Outcome == bbopt.Feasible && (best.Outcome != bbopt.Feasible || r.Objective < best.Objective) {
			best = r
		}
	}
	return best
}

// RepeatCheck halves the aux range toward the side the last test proved.
// A failed test proves neither side, so the range is kept as is.
func (q QuasiConvex) RepeatCheck(n *bbopt.Node, st *bbopt.State) bool {
	aux := st.Layout.AuxIndex()
	if aux < 0 || n.Box.Width(aux) <= st.Settings.MinimumBoxWidth {
		return false
	}
	if n.LowerFailures > 0 {
		retries := q.Retries
		if retries <= 0 {
			retries = defaultRetries
		}
		return n.LowerFailures <= retries
	}
	lo, mid, hi := threshold(n.Box, aux)
	if n.LowerObjective >= mid {
		lo = mid
	} else {
		hi = mid
	}
	return n.Box.SetBounds(aux, lo, hi) == nil
}

// BranchSelect never splits: the search is a pure bisection.
func (q QuasiConvex) BranchSelect(*bbopt.Node, *bbopt.State) (int, float64, bool) {
	return 0, 0, false
}

// LinearFractional is f(x) = (A.x + B) / (C.x + D) with C.x + D > 0 on the
// box, in minimization form.
type LinearFractional struct {
	A []float64
	B float64
	C []float64
	D float64
}

func (lf LinearFractional) Eval(x []float64) float64 {
	num, den := lf.B, lf.D
	for i := range x {
		num += lf.A[i] * x[i]
		den += lf.C[i] * x[i]
	}
	return num / den
}

// Sublevel is an exact test: f(x) <= t is the half-space
// (A - tC).x + (B - tD) <= 0, whose minimum over a box is attained at a
// vertex chosen coordinate-wise.
func (lf LinearFractional) Sublevel(_ context.Context, lower, upper []float64, t float64) ([]float64, bbopt.Outcome) {
	x := make([]float64, len(lower))
	v := lf.B - t*lf.D
	for i := range x {
		k := lf.A[i] - t*lf.C[i]
		if k > 0 {
			x[i] = lower[i]
		} else {
			x[i] = upper[i]
		}
		v += k * x[i]
	}
	if math.IsNaN(v) {
		return nil, bbopt.SolverFailure
	}
	if v > 0 {
		return nil, bbopt.InfeasibleBox
	}
	return x, bbopt.Feasible
}

// Problem wraps the ratio for upper bounding.
func (lf LinearFractional) Problem() *Problem {
	return &Problem{Sense: bbopt.Minimize, Objective: lf.Eval}
}

// LocalSublevel builds a sublevel test from a local solve of p over the
// box. It relies on every local minimum being global, which holds for
// strictly quasiconvex objectives over convex feasible sets.
func LocalSublevel(s local.Solver, p *Problem, tol float64) SublevelTest {
	if s == nil {
		s = local.NelderMead{}
	}
	return func(ctx context.Context, lower, upper []float64, t float64) ([]float64, bbopt.Outcome) {
		resp := s.Minimize(ctx, local.Request{
			Objective:            p.Value,
			Constraints:          p.ConstraintFuncs(),
			Lower:                lower,
			Upper:                upper,
			FeasibilityTolerance: tol,
		})
		switch local.MapStatus(resp) {
		case bbopt.Feasible:
			if resp.Objective <= t {
				return resp.X, bbopt.Feasible
			}
			return nil, bbopt.InfeasibleBox
		case bbopt.InfeasibleBox:
			return nil, bbopt.InfeasibleBox
		}
		return nil, bbopt.SolverFailure
	}
}
