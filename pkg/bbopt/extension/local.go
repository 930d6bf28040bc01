package extension

import (
	"context"
	"math"

	"github.com/operator-framework/bbopt/pkg/bbopt"
	"github.com/operator-framework/bbopt/pkg/bbopt/local"
)

// Local upper-bounds a node with a local NLP solve over the user
// variables, started from the box midpoint and from the node's lower
// bounding point. Candidates are re-checked exactly before being reported.
// When no start yields a feasible point the midpoint is tried as a last
// resort.
type Local struct {
	Default
	// Solver defaults to local.NelderMead.
	Solver local.Solver
}

var _ bbopt.Extensions = Local{}

func (l Local) UpperBound(ctx context.Context, n *bbopt.Node, st *bbopt.State) bbopt.BoundResult {
	return LocalUpperBound(ctx, l.Solver, l.Problem, n, st)
}

// LocalUpperBound runs s on p restricted to the node's box.
func LocalUpperBound(ctx context.Context, s local.Solver, p *Problem, n *bbopt.Node, st *bbopt.State) bbopt.BoundResult {
	if p == nil {
		return bbopt.FailedResult()
	}
	if s == nil {
		s = local.NelderMead{}
	}
	layout := st.Layout
	req := local.Request{
		Objective:            p.Value,
		Constraints:          p.ConstraintFuncs(),
		Lower:                layout.UserPoint(n.Box.Lower),
		Upper:                layout.UserPoint(n.Box.Upper),
		FeasibilityTolerance: st.Settings.FeasibilityTolerance,
	}

	starts := [][]float64{layout.UserPoint(n.Box.Midpoint())}
	if n.LowerSolution != nil {
		starts = append(starts, layout.UserPoint(n.LowerSolution))
	}

	best := bbopt.FailedResult()
	best.Objective = math.Inf(1)
	for _, x0 := range starts {
		req.Start = x0
		resp := s.Minimize(ctx, req)
		if local.MapStatus(resp) != bbopt.Feasible {
			continue
		}
		if r := evaluate(p, resp.X, n, st); r.Outcome == bbopt.UnboundedBelow {
			return r
		} else if r.Outcome == bbopt.Feasible && r.Objective < best.Objective {
			best = r
		}
	}
	if best.Outcome == bbopt.Feasible {
		return best
	}
	return MidpointUpperBound(p, n, st)
}
