package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/bbopt/pkg/bbopt"
)

func TestCheck(t *testing.T) {
	type tc struct {
		Name    string
		Atoms   []Atom
		Clauses []Clause
		Box     bbopt.Box
		Outcome bbopt.Outcome
	}

	disjunction := []Atom{
		{Var: 0, Op: LE, Value: -1},
		{Var: 0, Op: GE, Value: 1},
		{Var: 1, Op: GE, Value: 0.5},
	}
	disjunctionClauses := []Clause{{Pos(0), Pos(1)}, {Pos(2)}}

	for _, tt := range []tc{
		{
			Name:    "gap between branches is infeasible",
			Atoms:   disjunction,
			Clauses: disjunctionClauses,
			Box:     bbopt.MustBox([]float64{-0.5, 0}, []float64{0.5, 2}),
			Outcome: bbopt.InfeasibleBox,
		},
		{
			Name:    "wide box is kept",
			Atoms:   disjunction,
			Clauses: disjunctionClauses,
			Box:     bbopt.MustBox([]float64{-2, -2}, []float64{2, 2}),
			Outcome: bbopt.Feasible,
		},
		{
			Name:    "unit clause decided false",
			Atoms:   disjunction,
			Clauses: disjunctionClauses,
			Box:     bbopt.MustBox([]float64{-2, 0}, []float64{2, 0.4}),
			Outcome: bbopt.InfeasibleBox,
		},
		{
			Name:    "one branch decided true",
			Atoms:   disjunction,
			Clauses: disjunctionClauses,
			Box:     bbopt.MustBox([]float64{1, 0.5}, []float64{2, 1}),
			Outcome: bbopt.Feasible,
		},
		{
			Name: "exclusive atoms on the same coordinate",
			Atoms: []Atom{
				{Var: 0, Op: LE, Value: 0},
				{Var: 0, Op: GE, Value: 1},
			},
			Clauses: []Clause{{Pos(0)}, {Pos(1)}},
			Box:     bbopt.MustBox([]float64{-1}, []float64{2}),
			Outcome: bbopt.InfeasibleBox,
		},
		{
			Name: "covering atoms cannot both fail",
			Atoms: []Atom{
				{Var: 0, Op: LE, Value: 1},
				{Var: 0, Op: GE, Value: 0},
			},
			Clauses: []Clause{{Neg(0)}, {Neg(1)}},
			Box:     bbopt.MustBox([]float64{-1}, []float64{2}),
			Outcome: bbopt.InfeasibleBox,
		},
		{
			Name: "implied threshold",
			Atoms: []Atom{
				{Var: 0, Op: LE, Value: 0},
				{Var: 0, Op: LE, Value: 1},
			},
			Clauses: []Clause{{Pos(0)}, {Neg(1)}},
			Box:     bbopt.MustBox([]float64{-1}, []float64{2}),
			Outcome: bbopt.InfeasibleBox,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			f, err := NewFormula(tt.Atoms, tt.Clauses)
			require.NoError(t, err)
			assert.Equal(t, tt.Outcome, f.Check(tt.Box))
		})
	}
}

func TestCheckIsRepeatable(t *testing.T) {
	f, err := NewFormula([]Atom{{Var: 0, Op: GE, Value: 1}}, []Clause{{Pos(0)}})
	require.NoError(t, err)

	infeasible := bbopt.MustBox([]float64{0}, []float64{0.5})
	feasible := bbopt.MustBox([]float64{0}, []float64{2})
	assert.Equal(t, bbopt.InfeasibleBox, f.Check(infeasible))
	assert.Equal(t, bbopt.Feasible, f.Check(feasible))
	assert.Equal(t, bbopt.InfeasibleBox, f.Check(infeasible))
}

func TestSatisfied(t *testing.T) {
	f, err := NewFormula([]Atom{
		{Var: 0, Op: LE, Value: -1},
		{Var: 0, Op: GE, Value: 1},
		{Var: 1, Op: GE, Value: 0.5},
	}, []Clause{{Pos(0), Pos(1)}, {Pos(2)}})
	require.NoError(t, err)

	assert.True(t, f.Satisfied([]float64{1, 0.5}))
	assert.True(t, f.Satisfied([]float64{-3, 1}))
	assert.False(t, f.Satisfied([]float64{0, 1}))
	assert.False(t, f.Satisfied([]float64{1, 0}))
	assert.Equal(t, "(x0 <= -1 or x0 >= 1) and (x1 >= 0.5)", f.String())
}

func TestUnknownAtom(t *testing.T) {
	_, err := NewFormula([]Atom{{Var: 0, Op: LE, Value: 0}}, []Clause{{Pos(0), Neg(3)}})
	assert.ErrorIs(t, err, ErrUnknownAtom)
}
