package local

import (
	"context"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// penaltyCeiling replaces non-finite penalized values so the simplex keeps
// moving away from them.
const penaltyCeiling = 1e300

// NelderMead solves a sequence of penalized problems with gonum's
// Nelder-Mead method. Box bounds are enforced by clamping every trial
// point and penalizing the clamping distance; constraints are penalized
// with an escalating weight. The final point is always re-checked against
// the constraints, so a reported feasible point is feasible within
// FeasibilityTolerance.
type NelderMead struct {
	// Penalties are the constraint weights, applied in order.
	Penalties []float64
	// Evaluations caps function evaluations per penalized solve.
	Evaluations int
}

var _ Solver = NelderMead{}

func (s NelderMead) Minimize(ctx context.Context, req Request) Response {
	n := len(req.Lower)
	if n == 0 || len(req.Upper) != n || req.Objective == nil {
		return Response{Termination: InvalidInput}
	}
	penalties := s.Penalties
	if len(penalties) == 0 {
		penalties = []float64{1e1, 1e3, 1e5}
	}
	evals := s.Evaluations
	if evals <= 0 {
		evals = 200 * (n + 1)
	}

	clamp := func(dst, y []float64) []float64 {
		for i := range y {
			dst[i] = math.Min(math.Max(y[i], req.Lower[i]), req.Upper[i])
		}
		return dst
	}
	x := make([]float64, n)
	if req.Start != nil {
		clamp(x, req.Start)
	} else {
		for i := range x {
			x[i] = req.Lower[i] + 0.5*(req.Upper[i]-req.Lower[i])
		}
	}
	if len(req.Constraints) == 0 {
		penalties = penalties[:1]
	}

	var size float64
	for i := 0; i < n; i++ {
		size = math.Max(size, req.Upper[i]-req.Lower[i])
	}
	size = 0.25 * size
	if size == 0 {
		return Classify(req, x, Converged)
	}

	term := Converged
	z := make([]float64, n)
	for _, mu := range penalties {
		if ctx.Err() != nil {
			term = IterationLimit
			break
		}
		problem := optimize.Problem{
			Func: func(y []float64) float64 {
				clamp(z, y)
				v := req.Objective(z)
				var dist, viol float64
				for i := range y {
					dist += (y[i] - z[i]) * (y[i] - z[i])
				}
				for _, g := range req.Constraints {
					viol += math.Max(0, g(z))
				}
				v += mu*(viol+viol*viol) + mu*dist
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return penaltyCeiling
				}
				return v
			},
		}
		settings := &optimize.Settings{
			FuncEvaluations: evals,
			Converger:       &optimize.FunctionConverge{Absolute: 1e-12, Iterations: 50},
		}
		result, err := optimize.Minimize(problem, x, settings, &optimize.NelderMead{SimplexSize: size})
		if result == nil {
			if err != nil {
				return Response{Termination: NumericalFailure}
			}
			continue
		}
		switch result.Status {
		case optimize.FunctionEvaluationLimit, optimize.IterationLimit, optimize.RuntimeLimit:
			term = IterationLimit
		default:
			term = Converged
		}
		x = clamp(make([]float64, n), result.X)
		size = math.Max(0.1*size, 1e-8)
	}
	return Classify(req, x, term)
}
