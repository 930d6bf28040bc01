package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/operator-framework/bbopt/pkg/bbopt"
)

func TestMapStatus(t *testing.T) {
	type tc struct {
		Name     string
		Response Response
		Outcome  bbopt.Outcome
	}

	for _, tt := range []tc{
		{
			Name:     "converged feasible",
			Response: Response{Termination: Converged, Primal: FeasiblePoint},
			Outcome:  bbopt.Feasible,
		},
		{
			Name:     "iteration limit with feasible point is usable",
			Response: Response{Termination: IterationLimit, Primal: FeasiblePoint},
			Outcome:  bbopt.Feasible,
		},
		{
			Name:     "locally infeasible",
			Response: Response{Termination: LocallyInfeasible, Primal: InfeasiblePoint},
			Outcome:  bbopt.InfeasibleBox,
		},
		{
			Name:     "iteration limit without feasible point",
			Response: Response{Termination: IterationLimit, Primal: InfeasiblePoint},
			Outcome:  bbopt.SolverFailure,
		},
		{
			Name:     "numerical failure",
			Response: Response{Termination: NumericalFailure},
			Outcome:  bbopt.SolverFailure,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			assert.Equal(t, tt.Outcome, MapStatus(tt.Response))
		})
	}
}

func TestNelderMeadUnconstrained(t *testing.T) {
	req := Request{
		Objective: func(x []float64) float64 { return (x[0]-1)*(x[0]-1) + (x[1]+0.5)*(x[1]+0.5) },
		Lower:     []float64{-3, -3},
		Upper:     []float64{3, 3},
	}
	r := NelderMead{}.Minimize(context.Background(), req)
	assert.Equal(t, FeasiblePoint, r.Primal)
	assert.InDelta(t, 1, r.X[0], 1e-4)
	assert.InDelta(t, -0.5, r.X[1], 1e-4)
}

func TestNelderMeadBoxActive(t *testing.T) {
	req := Request{
		Objective: func(x []float64) float64 { return (x[0] - 5) * (x[0] - 5) },
		Lower:     []float64{-1},
		Upper:     []float64{2},
	}
	r := NelderMead{}.Minimize(context.Background(), req)
	assert.Equal(t, bbopt.Feasible, MapStatus(r))
	assert.InDelta(t, 2, r.X[0], 1e-6)
	assert.LessOrEqual(t, r.X[0], 2.0)
}

func TestNelderMeadConstrained(t *testing.T) {
	req := Request{
		Objective:            func(x []float64) float64 { return (x[0]-1)*(x[0]-1) + (x[1]-2)*(x[1]-2) },
		Constraints:          []func([]float64) float64{func(x []float64) float64 { return x[0] + x[1] - 2 }},
		Lower:                []float64{-5, -5},
		Upper:                []float64{5, 5},
		FeasibilityTolerance: 1e-6,
	}
	r := NelderMead{}.Minimize(context.Background(), req)
	assert.Equal(t, FeasiblePoint, r.Primal)
	assert.InDelta(t, 0.5, r.Objective, 1e-3)
	assert.LessOrEqual(t, r.X[0]+r.X[1]-2, 1e-6)
}

func TestNelderMeadInvalidInput(t *testing.T) {
	r := NelderMead{}.Minimize(context.Background(), Request{})
	assert.Equal(t, InvalidInput, r.Termination)
	assert.Equal(t, bbopt.SolverFailure, MapStatus(r))
}

func TestClassify(t *testing.T) {
	req := Request{
		Objective:            func(x []float64) float64 { return x[0] },
		Constraints:          []func([]float64) float64{func(x []float64) float64 { return 1 - x[0] }},
		FeasibilityTolerance: 1e-6,
	}
	assert.Equal(t, FeasiblePoint, Classify(req, []float64{2}, Converged).Primal)
	infeasible := Classify(req, []float64{0}, Converged)
	assert.Equal(t, LocallyInfeasible, infeasible.Termination)
	assert.InDelta(t, 1, infeasible.Violation, 1e-12)
}
