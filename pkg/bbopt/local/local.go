// Package local defines the contract for local continuous solvers used by
// bounding procedures and provides a derivative-free implementation.
package local

import (
	"context"
	"math"

	"github.com/operator-framework/bbopt/pkg/bbopt"
)

type Termination int

const (
	Converged Termination = iota
	IterationLimit
	LocallyInfeasible
	NumericalFailure
	InvalidInput
)

func (t Termination) String() string {
	switch t {
	case Converged:
		return "converged"
	case IterationLimit:
		return "iteration limit"
	case LocallyInfeasible:
		return "locally infeasible"
	case NumericalFailure:
		return "numerical failure"
	case InvalidInput:
		return "invalid input"
	}
	return "unknown"
}

type PrimalStatus int

const (
	NoSolution PrimalStatus = iota
	FeasiblePoint
	InfeasiblePoint
)

// Request describes min Objective(x) s.t. Constraints[j](x) <= 0 and
// Lower <= x <= Upper.
type Request struct {
	Objective   func(x []float64) float64
	Constraints []func(x []float64) float64
	Lower       []float64
	Upper       []float64
	// Start is clamped into the box; nil starts at the midpoint.
	Start                []float64
	FeasibilityTolerance float64
}

type Response struct {
	Termination Termination
	Primal      PrimalStatus
	Objective   float64
	X           []float64
	// Violation is the largest constraint value at X, zero when feasible.
	Violation float64
}

type Solver interface {
	Minimize(ctx context.Context, req Request) Response
}

// MapStatus folds the solver's status pair into a bounding outcome.
func MapStatus(r Response) bbopt.Outcome {
	switch {
	case r.Primal == FeasiblePoint && (r.Termination == Converged || r.Termination == IterationLimit):
		return bbopt.Feasible
	case r.Termination == LocallyInfeasible:
		return bbopt.InfeasibleBox
	}
	return bbopt.SolverFailure
}

// Violation returns max(0, max_j g_j(x)).
func Violation(constraints []func([]float64) float64, x []float64) float64 {
	var v float64
	for _, g := range constraints {
		c := g(x)
		if math.IsNaN(c) {
			return math.Inf(1)
		}
		v = math.Max(v, c)
	}
	return v
}

// Classify evaluates x against req and fills a response with the given
// termination.
func Classify(req Request, x []float64, term Termination) Response {
	f := req.Objective(x)
	viol := Violation(req.Constraints, x)
	r := Response{Termination: term, Objective: f, X: x, Violation: viol}
	switch {
	case math.IsNaN(f) || math.IsInf(f, 1):
		r.Termination = NumericalFailure
		r.Primal = NoSolution
	case viol <= req.FeasibilityTolerance:
		r.Primal = FeasiblePoint
		r.Violation = 0
	default:
		r.Primal = InfeasiblePoint
		if term == Converged {
			r.Termination = LocallyInfeasible
		}
	}
	return r
}
