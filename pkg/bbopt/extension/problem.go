package extension

import (
	"errors"
	"fmt"
	"math"

	"github.com/operator-framework/bbopt/pkg/bbopt"
	"github.com/operator-framework/bbopt/pkg/bbopt/interval"
	"github.com/operator-framework/bbopt/pkg/bbopt/logic"
)

var ErrNoObjective = errors.New("problem has no objective")

// Function is evaluated on the user variables only.
type Function func(x []float64) float64

// IntervalFunction encloses a Function over a box of user variables.
type IntervalFunction func(x []interval.Interval) interval.Interval

// Constraint is Func(x) <= 0. Interval is optional; when present it lets
// interval bounding discard boxes on which the constraint cannot hold.
type Constraint struct {
	Name     string
	Func     Function
	Interval IntervalFunction
}

// Problem is the model the built-in extensions bound and evaluate. The
// objective is stated in the caller's sense; every accessor below returns
// values in minimization form.
type Problem struct {
	Sense             bbopt.Sense
	Objective         Function
	ObjectiveInterval IntervalFunction
	Constraints       []Constraint
	// Logic, when set, is a disjunctive condition every solution must satisfy.
	Logic *logic.Formula
}

func (p *Problem) Validate() error {
	if p == nil || p.Objective == nil {
		return ErrNoObjective
	}
	for i, c := range p.Constraints {
		if c.Func == nil {
			return fmt.Errorf("constraint %d (%s) has no function: %w", i, c.Name, bbopt.ErrInvalidOption)
		}
	}
	return nil
}

// Value returns the objective at user point x in minimization form.
func (p *Problem) Value(x []float64) float64 {
	return p.Sense.Sign() * p.Objective(x)
}

// Enclosure returns the objective enclosure in minimization form and
// whether one is available.
func (p *Problem) Enclosure(x []interval.Interval) (interval.Interval, bool) {
	if p.ObjectiveInterval == nil {
		return interval.Interval{}, false
	}
	return p.ObjectiveInterval(x).Scale(p.Sense.Sign()), true
}

// Violation is the largest constraint value at x, zero when every
// constraint holds. NaN constraint values count as infinitely violated.
func (p *Problem) Violation(x []float64) float64 {
	var v float64
	for _, c := range p.Constraints {
		g := c.Func(x)
		if math.IsNaN(g) {
			return math.Inf(1)
		}
		v = math.Max(v, g)
	}
	return v
}

// Feasible is the exact test applied to every incumbent candidate.
func (p *Problem) Feasible(x []float64, tol float64) bool {
	if p.Violation(x) > tol {
		return false
	}
	return p.Logic == nil || p.Logic.Satisfied(x)
}

// ConstraintFuncs returns the continuous constraints as plain functions.
func (p *Problem) ConstraintFuncs() []func([]float64) float64 {
	fs := make([]func([]float64) float64, len(p.Constraints))
	for i, c := range p.Constraints {
		fs[i] = c.Func
	}
	return fs
}

// Unsatisfiable reports whether some constraint enclosure lies strictly
// above zero on the box.
func (p *Problem) Unsatisfiable(x []interval.Interval) bool {
	for _, c := range p.Constraints {
		if c.Interval == nil {
			continue
		}
		if g := c.Interval(x); !g.IsEmpty() && g.Lo > 0 {
			return true
		}
	}
	return false
}

// userBox returns the intervals of the user coordinates of box.
func userBox(box bbopt.Box, layout bbopt.Layout) []interval.Interval {
	return interval.FromBox(layout.UserPoint(box.Lower), layout.UserPoint(box.Upper))
}

// fullPoint lifts a user point into a node vector. The auxiliary, when
// present, is set to value clamped into the box.
func fullPoint(user []float64, value float64, box bbopt.Box, layout bbopt.Layout) []float64 {
	x := make([]float64, layout.Dim())
	copy(x, user)
	if aux := layout.AuxIndex(); aux >= 0 {
		x[aux] = math.Min(math.Max(value, box.Lower[aux]), box.Upper[aux])
	}
	return x
}
