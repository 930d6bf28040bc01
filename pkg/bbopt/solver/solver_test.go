package solver_test

import (
	"context"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/bbopt/pkg/bbopt"
	"github.com/operator-framework/bbopt/pkg/bbopt/catalog"
	"github.com/operator-framework/bbopt/pkg/bbopt/extension"
	"github.com/operator-framework/bbopt/pkg/bbopt/interval"
	"github.com/operator-framework/bbopt/pkg/bbopt/solver"
)

func TestSolver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Solver Suite")
}

func solve(e catalog.Entry, options ...solver.Option) *solver.Solution {
	options = append([]solver.Option{
		solver.WithSettings(e.Settings()),
		solver.WithLayout(e.Layout),
		solver.WithNodeValidation(),
	}, options...)
	o, err := solver.NewOptimizer(e.Root, e.Extensions, options...)
	Expect(err).NotTo(HaveOccurred())
	s, err := o.Solve(context.Background())
	Expect(err).NotTo(HaveOccurred())
	return s
}

type auxWidths struct {
	aux    int
	widths []float64
}

func (a *auxWidths) Trace(p bbopt.SearchPosition) {
	if p.Fate() == bbopt.Repeated {
		a.widths = append(a.widths, p.Node().Box.Width(a.aux))
	}
}

var _ = Describe("Optimizer", func() {
	It("solves the trigonometric problem with interval bounds", func() {
		s := solve(catalog.SinCos())
		Expect(s.Optimal()).To(BeTrue())
		Expect(s.Objective).To(BeNumerically(">=", -1.5-1e-9))
		Expect(s.Objective).To(BeNumerically("<=", -1.499))
		Expect(s.Bound).To(BeNumerically("<=", -1.5+1e-9))
		Expect(s.Point).To(HaveLen(4))
		Expect(math.Sin(s.Point[0])).To(BeNumerically("<", -0.99))
		Expect(math.Abs(s.Point[1])).To(BeNumerically(">", 0.99))
		Expect(math.Cos(s.Point[2])).To(BeNumerically(">", 0.99))
		Expect(s.Point[3]).To(BeNumerically("<", 2.01))
	})

	It("solves the nonconvex QCQP with alpha-BB", func() {
		s := solve(catalog.QCQP())
		Expect(s.Optimal()).To(BeTrue())
		Expect(s.Objective).To(BeNumerically("~", -9.5, 1e-3))
		Expect(s.Bound).To(BeNumerically("<=", s.Objective))
		Expect(s.Point[0]).To(BeNumerically("~", -0.5, 0.05))
		Expect(s.Point[0]*s.Point[0]+s.Point[1]*s.Point[1]).To(BeNumerically("<=", 9+1e-6))
		Expect(s.Nodes).To(BeNumerically("<", 20000))
	})

	It("solves the linear-fractional problem by bisection", func() {
		e := catalog.Fractional()
		widths := &auxWidths{aux: e.Layout.AuxIndex()}
		s := solve(e, solver.WithTracer(widths))
		Expect(s.Optimal()).To(BeTrue())
		Expect(s.Objective).To(BeNumerically("~", -0.5, 1e-9))
		Expect(s.Point).To(Equal([]float64{0, 3}))
		Expect(s.Nodes).To(Equal(1))

		Expect(widths.widths).NotTo(BeEmpty())
		Expect(widths.widths[0]).To(BeNumerically("~", 10, 1e-12))
		for i := 1; i < len(widths.widths); i++ {
			Expect(widths.widths[i]).To(BeNumerically("~", widths.widths[i-1]/2, 1e-12))
		}
	})

	It("keeps bisecting soundly when a sublevel test fails", func() {
		// (x1 + 1) / (x2 + 1) on [0, 3]^2, minimum 0.25 at (0, 3).
		lf := extension.LinearFractional{A: []float64{1, 0}, B: 1, C: []float64{0, 1}, D: 1}
		layout := bbopt.Layout{UserDim: 2, Epigraph: true}
		root, err := layout.Extend(bbopt.MustBox([]float64{0, 0}, []float64{3, 3}), -10, 10)
		Expect(err).NotTo(HaveOccurred())
		calls := 0
		flaky := func(ctx context.Context, lower, upper []float64, t float64) ([]float64, bbopt.Outcome) {
			calls++
			if calls == 1 {
				return nil, bbopt.SolverFailure
			}
			return lf.Sublevel(ctx, lower, upper, t)
		}
		settings := bbopt.DefaultSettings()
		settings.AbsoluteTolerance = 1e-6
		settings.RelativeTolerance = 0

		o, err := solver.NewOptimizer(root,
			extension.QuasiConvex{Default: extension.Default{Problem: lf.Problem()}, Test: flaky},
			solver.WithSettings(settings),
			solver.WithLayout(layout),
			solver.WithNodeValidation(),
		)
		Expect(err).NotTo(HaveOccurred())
		s, err := o.Solve(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Optimal()).To(BeTrue())
		Expect(s.SolverFailures).To(BeNumerically(">=", 1))
		Expect(s.Objective).To(BeNumerically("~", 0.25, 1e-6))
		Expect(s.Bound).To(BeNumerically("<=", 0.25+1e-9))
		Expect(s.Bound).To(BeNumerically(">=", 0.25-1e-6))
	})

	It("respects the disjunction", func() {
		s := solve(catalog.Disjunctive())
		Expect(s.Optimal()).To(BeTrue())
		Expect(s.Objective).To(BeNumerically("~", 1.25, 1e-3))
		Expect(math.Abs(s.Point[0])).To(BeNumerically(">=", 1))
		Expect(s.Point[1]).To(BeNumerically(">=", 0.5))
	})

	It("reports maximization in the caller's sense", func() {
		s := solve(catalog.Peak())
		Expect(s.Optimal()).To(BeTrue())
		Expect(s.Objective).To(BeNumerically("~", 3, 1e-3))
		Expect(s.Bound).To(BeNumerically(">=", s.Objective))
		Expect(s.Bound - s.Objective).To(BeNumerically("<=", 1e-3))
		Expect(s.Point[0]).To(BeNumerically("~", 1, 0.05))
		Expect(s.Point[1]).To(BeNumerically("~", -0.5, 0.05))
	})

	It("finds the Rosenbrock valley", func() {
		s := solve(catalog.Rosenbrock())
		Expect(s.Optimal()).To(BeTrue())
		Expect(s.Objective).To(BeNumerically("<=", 1e-3))
	})

	It("returns the best point when a limit is hit", func() {
		e := catalog.SinCos()
		settings := e.Settings()
		settings.IterationLimit = 10
		s := solve(e, solver.WithSettings(settings))
		Expect(s.EndState).To(Equal(bbopt.IterationLimit))
		Expect(s.Optimal()).To(BeFalse())
		Expect(s.Feasible()).To(BeTrue())
		Expect(s.Iterations).To(Equal(10))
		Expect(s.Gap()).To(BeNumerically(">", 0))
	})

	It("reports infeasible problems", func() {
		p := &extension.Problem{
			Objective: func(x []float64) float64 { return x[0] },
			Constraints: []extension.Constraint{{
				Func:     func(x []float64) float64 { return 5 - x[0] },
				Interval: func(x []interval.Interval) interval.Interval { return x[0].Neg().AddConst(5) },
			}},
		}
		o, err := solver.NewOptimizer(bbopt.MustBox([]float64{0}, []float64{1}), extension.Default{Problem: p})
		Expect(err).NotTo(HaveOccurred())
		s, err := o.Solve(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.EndState).To(Equal(bbopt.Infeasible))
		Expect(s.Feasible()).To(BeFalse())
		Expect(s.Infeasible).To(Equal(1))
	})

	Context("configuration", func() {
		It("requires extensions", func() {
			_, err := solver.NewOptimizer(bbopt.MustBox([]float64{0}, []float64{1}), nil)
			Expect(err).To(MatchError(bbopt.ErrNoExtensions))
		})

		It("requires an epigraph for bisection", func() {
			e := catalog.Fractional()
			_, err := solver.NewOptimizer(e.Root, e.Extensions, solver.WithLayout(bbopt.Layout{UserDim: 3}))
			Expect(err).To(MatchError(bbopt.ErrInvalidOption))
		})

		It("takes the sense from the problem", func() {
			e := catalog.Peak()
			o, err := solver.NewOptimizer(e.Root, e.Extensions, solver.WithSettings(e.Settings()))
			Expect(err).NotTo(HaveOccurred())
			s, err := o.Solve(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Objective).To(BeNumerically("~", 3, 1e-3))
			Expect(s.Bound).To(BeNumerically(">=", s.Objective))
		})

		It("rejects a sense that conflicts with the problem", func() {
			e := catalog.Peak()
			_, err := solver.NewOptimizer(e.Root, e.Extensions, solver.WithSense(bbopt.Minimize))
			Expect(err).To(MatchError(bbopt.ErrInvalidOption))
			_, err = solver.NewOptimizer(e.Root, e.Extensions, solver.WithSense(bbopt.Maximize))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects negative tolerances", func() {
			settings := bbopt.DefaultSettings()
			settings.RelativeTolerance = -1
			_, err := solver.NewOptimizer(bbopt.MustBox([]float64{0}, []float64{1}), extension.Default{}, solver.WithSettings(settings))
			Expect(err).To(MatchError(bbopt.ErrInvalidTolerance))
		})
	})
})
