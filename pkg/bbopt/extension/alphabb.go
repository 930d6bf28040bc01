package extension

import (
	"context"
	"fmt"

	"github.com/operator-framework/bbopt/pkg/bbopt"
	"github.com/operator-framework/bbopt/pkg/bbopt/interval"
	"github.com/operator-framework/bbopt/pkg/bbopt/relax"
)

// QCQP is min q0(x) s.t. q_j(x) <= 0 with quadratic q_j, in minimization
// form.
type QCQP struct {
	Objective   relax.Quadratic
	Constraints []relax.Quadratic
}

// Validate checks every quadratic has dim variables.
func (m QCQP) Validate(dim int) error {
	for j, q := range append([]relax.Quadratic{m.Objective}, m.Constraints...) {
		n, err := q.Dim()
		if err != nil {
			return fmt.Errorf("quadratic %d: %w", j, err)
		}
		if n != dim {
			return fmt.Errorf("quadratic %d has %d variables, want %d: %w", j, n, dim, bbopt.ErrDimensionMismatch)
		}
	}
	return nil
}

// Problem exposes the model to the generic bounding routines. Interval
// forms are attached so the interval checks also apply.
func (m QCQP) Problem() *Problem {
	p := &Problem{
		Sense:             bbopt.Minimize,
		Objective:         m.Objective.Eval,
		ObjectiveInterval: quadraticEnclosure(m.Objective),
	}
	for j, q := range m.Constraints {
		p.Constraints = append(p.Constraints, Constraint{
			Name:     fmt.Sprintf("q%d", j+1),
			Func:     q.Eval,
			Interval: quadraticEnclosure(q),
		})
	}
	return p
}

func quadraticEnclosure(q relax.Quadratic) IntervalFunction {
	return func(x []interval.Interval) interval.Interval {
		terms := []interval.Interval{interval.Point(q.K)}
		for i := range q.C {
			terms = append(terms, x[i].Scale(q.C[i]))
			if q.Q == nil {
				continue
			}
			for j := range q.C {
				if q.Q[i][j] == 0 {
					continue
				}
				if i == j {
					terms = append(terms, x[i].Sqr().Scale(q.Q[i][i]))
				} else {
					terms = append(terms, x[i].Mul(x[j]).Scale(q.Q[i][j]))
				}
			}
		}
		return interval.Sum(terms...)
	}
}

// AlphaBB lower-bounds a QCQP by convexifying the objective and every
// constraint with the alpha-shift and bounding the relaxation's Lagrangian
// dual. Upper bounds come from the embedded Local extension.
type AlphaBB struct {
	Local
	Model   QCQP
	Options relax.Options
}

// NewAlphaBB wires the model into the embedded extensions.
func NewAlphaBB(m QCQP) AlphaBB {
	return AlphaBB{Local: Local{Default: Default{Problem: m.Problem()}}, Model: m}
}

var _ bbopt.Extensions = AlphaBB{}

func (a AlphaBB) Validate(layout bbopt.Layout) error {
	if err := a.Model.Validate(layout.UserDim); err != nil {
		return err
	}
	return a.Local.Validate(layout)
}

func (a AlphaBB) LowerBound(_ context.Context, n *bbopt.Node, st *bbopt.State) bbopt.BoundResult {
	lower := st.Layout.UserPoint(n.Box.Lower)
	upper := st.Layout.UserPoint(n.Box.Upper)

	obj, _, err := relax.Underestimate(a.Model.Objective, lower, upper)
	if err != nil {
		return bbopt.FailedResult()
	}
	cons := make([]relax.Quadratic, len(a.Model.Constraints))
	for j, q := range a.Model.Constraints {
		if cons[j], _, err = relax.Underestimate(q, lower, upper); err != nil {
			return bbopt.FailedResult()
		}
	}

	b := relax.LagrangianBound(obj, cons, lower, upper, a.Options)
	if b.Infeasible {
		return bbopt.InfeasibleResult()
	}
	value := b.Value
	// Both bounds are valid; keep the tighter one.
	if ib := IntervalLowerBound(a.Problem, n, st); ib.Outcome == bbopt.InfeasibleBox {
		return ib
	} else if ib.Outcome == bbopt.Feasible && ib.Objective > value {
		value = ib.Objective
	}
	return bbopt.BoundResult{
		Outcome:   bbopt.Feasible,
		Objective: value,
		Solution:  fullPoint(b.X, value, n.Box, st.Layout),
	}
}
