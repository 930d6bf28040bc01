// Package catalog holds the built-in problems used by the CLI, the
// benchmarks and the scenario tests.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/operator-framework/bbopt/pkg/bbopt"
	"github.com/operator-framework/bbopt/pkg/bbopt/extension"
	"github.com/operator-framework/bbopt/pkg/bbopt/interval"
	"github.com/operator-framework/bbopt/pkg/bbopt/logic"
	"github.com/operator-framework/bbopt/pkg/bbopt/relax"
)

var ErrUnknownProblem = errors.New("unknown problem")

// Entry is a ready-to-solve problem.
type Entry struct {
	Name        string
	Description string
	Root        bbopt.Box
	Layout      bbopt.Layout
	Extensions  bbopt.Extensions
	// Tune adjusts the default settings for this problem. May be nil.
	Tune func(s *bbopt.Settings)
	// Optimum is the known optimal objective in the problem's own sense.
	Optimum float64
}

// Sense is the objective sense the entry's extensions declare.
func (e Entry) Sense() bbopt.Sense {
	if d, ok := e.Extensions.(interface{ Sense() bbopt.Sense }); ok {
		return d.Sense()
	}
	return bbopt.Minimize
}

// Settings returns the default settings adjusted for the entry.
func (e Entry) Settings() bbopt.Settings {
	s := bbopt.DefaultSettings()
	if e.Tune != nil {
		e.Tune(&s)
	}
	return s
}

var entries = map[string]func() Entry{
	"sincos":      SinCos,
	"qcqp":        QCQP,
	"fractional":  Fractional,
	"disjunctive": Disjunctive,
	"rosenbrock":  Rosenbrock,
	"peak":        Peak,
}

func Names() []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Lookup(name string) (Entry, error) {
	build, ok := entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%q: %w", name, ErrUnknownProblem)
	}
	return build(), nil
}

// All returns every entry sorted by name.
func All() []Entry {
	names := Names()
	all := make([]Entry, len(names))
	for i, name := range names {
		all[i] = entries[name]()
	}
	return all
}

// SinCos is min sin(x1) x2^2 - cos(x3)/x4 bounded by interval arithmetic
// and midpoint evaluation.
func SinCos() Entry {
	p := &extension.Problem{
		Objective: func(x []float64) float64 {
			return math.Sin(x[0])*x[1]*x[1] - math.Cos(x[2])/x[3]
		},
		ObjectiveInterval: func(x []interval.Interval) interval.Interval {
			return x[0].Sin().Mul(x[1].Sqr()).Sub(x[2].Cos().Div(x[3]))
		},
	}
	return Entry{
		Name:        "sincos",
		Description: "sin(x1)*x2^2 - cos(x3)/x4, interval lower bound, midpoint upper bound",
		Root:        bbopt.MustBox([]float64{-10, -1, -10, 2}, []float64{10, 1, 10, 20}),
		Layout:      bbopt.Layout{UserDim: 4},
		Extensions:  extension.Default{Problem: p},
		Tune: func(s *bbopt.Settings) {
			s.AbsoluteTolerance = 1e-3
			s.RelativeTolerance = 0
		},
		Optimum: -1.5,
	}
}

// QCQP is min x1^2 - x2^2 + 2 x1 s.t. x1^2 + x2^2 <= 9, minimized at
// (-0.5, +-sqrt(8.75)).
func QCQP() Entry {
	m := extension.QCQP{
		Objective: relax.Quadratic{Q: [][]float64{{1, 0}, {0, -1}}, C: []float64{2, 0}},
		Constraints: []relax.Quadratic{
			{Q: [][]float64{{1, 0}, {0, 1}}, C: []float64{0, 0}, K: -9},
		},
	}
	return Entry{
		Name:        "qcqp",
		Description: "nonconvex QCQP, alpha-BB Lagrangian lower bound, local NLP upper bound",
		Root:        bbopt.MustBox([]float64{-4, -4}, []float64{4, 4}),
		Layout:      bbopt.Layout{UserDim: 2},
		Extensions:  extension.NewAlphaBB(m),
		Tune: func(s *bbopt.Settings) {
			s.AbsoluteTolerance = 1e-4
			s.RelativeTolerance = 1e-6
		},
		Optimum: -9.5,
	}
}

// Fractional is min (2 x1 - x2 + 1)/(x1 + x2 + 1) on [0, 3]^2, solved by
// bisection on the epigraph variable.
func Fractional() Entry {
	lf := extension.LinearFractional{A: []float64{2, -1}, B: 1, C: []float64{1, 1}, D: 1}
	layout := bbopt.Layout{UserDim: 2, Epigraph: true}
	root, err := layout.Extend(bbopt.MustBox([]float64{0, 0}, []float64{3, 3}), -10, 10)
	if err != nil {
		panic(err)
	}
	return Entry{
		Name:        "fractional",
		Description: "linear-fractional objective, quasiconvex bisection on the epigraph variable",
		Root:        root,
		Layout:      layout,
		Extensions:  extension.QuasiConvex{Default: extension.Default{Problem: lf.Problem()}, Test: lf.Sublevel},
		Tune: func(s *bbopt.Settings) {
			s.AbsoluteTolerance = 1e-6
			s.RelativeTolerance = 0
		},
		Optimum: -0.5,
	}
}

// Disjunctive is min x1^2 + x2^2 s.t. (x1 <= -1 or x1 >= 1) and x2 >= 0.5.
func Disjunctive() Entry {
	f, err := logic.NewFormula([]logic.Atom{
		{Var: 0, Op: logic.LE, Value: -1},
		{Var: 0, Op: logic.GE, Value: 1},
		{Var: 1, Op: logic.GE, Value: 0.5},
	}, []logic.Clause{{logic.Pos(0), logic.Pos(1)}, {logic.Pos(2)}})
	if err != nil {
		panic(err)
	}
	p := &extension.Problem{
		Objective: func(x []float64) float64 { return x[0]*x[0] + x[1]*x[1] },
		ObjectiveInterval: func(x []interval.Interval) interval.Interval {
			return x[0].Sqr().Add(x[1].Sqr())
		},
		Logic: f,
	}
	return Entry{
		Name:        "disjunctive",
		Description: "distance to the origin under a disjunction, SAT prefilter",
		Root:        bbopt.MustBox([]float64{-2, -2}, []float64{2, 2}),
		Layout:      bbopt.Layout{UserDim: 2},
		Extensions:  extension.Local{Default: extension.Default{Problem: p}},
		Tune: func(s *bbopt.Settings) {
			s.AbsoluteTolerance = 1e-4
		},
		Optimum: 1.25,
	}
}

// Rosenbrock is the banana function on [-2, 2]^2.
func Rosenbrock() Entry {
	p := &extension.Problem{
		Objective: func(x []float64) float64 {
			a, b := 1-x[0], x[1]-x[0]*x[0]
			return a*a + 100*b*b
		},
		ObjectiveInterval: func(x []interval.Interval) interval.Interval {
			a := x[0].Neg().AddConst(1)
			b := x[1].Sub(x[0].Sqr())
			return a.Sqr().Add(b.Sqr().Scale(100))
		},
	}
	return Entry{
		Name:        "rosenbrock",
		Description: "Rosenbrock function, interval lower bound, local NLP upper bound",
		Root:        bbopt.MustBox([]float64{-2, -2}, []float64{2, 2}),
		Layout:      bbopt.Layout{UserDim: 2},
		Extensions:  extension.Local{Default: extension.Default{Problem: p}},
		Tune: func(s *bbopt.Settings) {
			s.AbsoluteTolerance = 1e-3
			s.NodeLimit = 100000
		},
		Optimum: 0,
	}
}

// Peak is max 3 - (x1 - 1)^2 - (x2 + 0.5)^2.
func Peak() Entry {
	p := &extension.Problem{
		Sense: bbopt.Maximize,
		Objective: func(x []float64) float64 {
			return 3 - (x[0]-1)*(x[0]-1) - (x[1]+0.5)*(x[1]+0.5)
		},
		ObjectiveInterval: func(x []interval.Interval) interval.Interval {
			return x[0].AddConst(-1).Sqr().Add(x[1].AddConst(0.5).Sqr()).Neg().AddConst(3)
		},
	}
	return Entry{
		Name:        "peak",
		Description: "concave maximization, reported in the caller's sense",
		Root:        bbopt.MustBox([]float64{-2, -2}, []float64{2, 2}),
		Layout:      bbopt.Layout{UserDim: 2},
		Extensions:  extension.Default{Problem: p},
		Optimum:     3,
	}
}
