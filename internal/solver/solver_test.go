package solver_test

import (
	"context"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/bbopt/internal/solver"
	"github.com/operator-framework/bbopt/pkg/bbopt"
	"github.com/operator-framework/bbopt/pkg/bbopt/extension"
	"github.com/operator-framework/bbopt/pkg/bbopt/interval"
)

func TestSolver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Solver Suite")
}

// wave is min sin(3 x0) x1 + 0.1 x0^2 over [-2, 2]^2.
func wave() *extension.Problem {
	return &extension.Problem{
		Objective: func(x []float64) float64 { return math.Sin(3*x[0])*x[1] + 0.1*x[0]*x[0] },
		ObjectiveInterval: func(x []interval.Interval) interval.Interval {
			return x[0].Scale(3).Sin().Mul(x[1]).Add(x[0].Sqr().Scale(0.1))
		},
	}
}

type prunedBox struct {
	box       bbopt.Box
	incumbent float64
}

type pruneRecorder struct {
	pruned []prunedBox
	lower  []float64
}

func (r *pruneRecorder) Trace(p bbopt.SearchPosition) {
	st := p.State()
	r.lower = append(r.lower, st.GlobalLower)
	if p.Fate() == bbopt.PrunedByBound {
		r.pruned = append(r.pruned, prunedBox{box: p.Node().Box.Clone(), incumbent: st.Incumbent})
	}
}

func gridMin(p *extension.Problem, b bbopt.Box, steps int) float64 {
	best := math.Inf(1)
	for i := 0; i <= steps; i++ {
		for j := 0; j <= steps; j++ {
			x := []float64{
				b.Lower[0] + float64(i)/float64(steps)*b.Width(0),
				b.Lower[1] + float64(j)/float64(steps)*b.Width(1),
			}
			best = math.Min(best, p.Value(x))
		}
	}
	return best
}

var _ = Describe("Solver", func() {
	var (
		settings bbopt.Settings
		rec      *pruneRecorder
		root     bbopt.Box
	)

	BeforeEach(func() {
		settings = bbopt.DefaultSettings()
		settings.AbsoluteTolerance = 1e-3
		settings.RelativeTolerance = 0
		rec = &pruneRecorder{}
		root = bbopt.MustBox([]float64{-2, -2}, []float64{2, 2})
	})

	solve := func() *bbopt.State {
		o, err := solver.NewOptimizer(
			solver.WithSettings(settings),
			solver.WithExtensions(extension.Default{Problem: wave()}),
			solver.WithTracer(rec),
			solver.WithNodeValidation(),
		)
		Expect(err).NotTo(HaveOccurred())
		st, err := o.Solve(context.Background(), root)
		Expect(err).NotTo(HaveOccurred())
		return st
	}

	It("converges to the global minimum", func() {
		st := solve()
		Expect(st.EndState).To(Equal(bbopt.Optimal))
		// The minimum is on x1 = +-2 with sin(3 x0) x1 = -2 and x0 small.
		Expect(st.Incumbent).To(BeNumerically("<", -1.9))
		Expect(st.Incumbent - st.GlobalLower).To(BeNumerically("<=", settings.AbsoluteTolerance))
		Expect(gridMin(wave(), root, 400)).To(BeNumerically(">=", st.Incumbent-settings.AbsoluteTolerance))
	})

	It("never prunes a box that holds a better point", func() {
		solve()
		Expect(rec.pruned).NotTo(BeEmpty())
		for _, p := range rec.pruned {
			Expect(gridMin(wave(), p.box, 10)).To(BeNumerically(">=", p.incumbent-settings.AbsoluteTolerance-1e-12), "box %s", p.box)
		}
	})

	It("keeps the global lower bound monotone", func() {
		settings.NodeSelection = bbopt.DepthFirst
		solve()
		Expect(rec.lower).NotTo(BeEmpty())
		for i := 1; i < len(rec.lower); i++ {
			Expect(rec.lower[i]).To(BeNumerically(">=", rec.lower[i-1]))
		}
	})

	It("stops at the node limit with the best point so far", func() {
		settings.NodeLimit = 21
		st := solve()
		Expect(st.EndState).To(Equal(bbopt.NodeLimit))
		Expect(st.EndState.Limited()).To(BeTrue())
		Expect(st.NodeCount).To(BeNumerically(">=", 21))
		Expect(st.HasIncumbent()).To(BeTrue())
	})
})
