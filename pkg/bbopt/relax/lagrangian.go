package relax

import (
	"math"
)

// Options tune LagrangianBound. Zero values select the defaults.
type Options struct {
	// Iterations of projected gradient per inner solve.
	Iterations int
	// MaxMultiplier caps each dual variable.
	MaxMultiplier float64
	// Sweeps of coordinate ascent over the multipliers.
	Sweeps int
	// Steps of golden section search per multiplier.
	Steps int
}

func (o Options) withDefaults() Options {
	if o.Iterations <= 0 {
		o.Iterations = 300
	}
	if o.MaxMultiplier <= 0 {
		o.MaxMultiplier = 1e3
	}
	if o.Sweeps <= 0 {
		o.Sweeps = 2
	}
	if o.Steps <= 0 {
		o.Steps = 32
	}
	return o
}

// Bound is the outcome of LagrangianBound.
type Bound struct {
	Value float64
	// X is the minimizer of the best relaxed Lagrangian found.
	X []float64
	// Infeasible is set when some constraint underestimator is positive on
	// the whole box, which proves the original constraints infeasible there.
	Infeasible  bool
	Multipliers []float64
}

// LagrangianBound lower-bounds min obj(x) s.t. cons_j(x) <= 0 over the box,
// where obj and every cons_j are convex (typically alpha-shift
// underestimators). Every evaluated dual function value is a valid bound by
// weak duality; the best one is returned.
func LagrangianBound(obj Quadratic, cons []Quadratic, lower, upper []float64, opts Options) Bound {
	opts = opts.withDefaults()
	mid := make([]float64, len(lower))
	for i := range mid {
		mid[i] = lower[i] + 0.5*(upper[i]-lower[i])
	}

	for _, c := range cons {
		if _, lb := Minimize(c, mid, lower, upper, opts.Iterations); lb > 0 {
			return Bound{Value: math.Inf(1), Infeasible: true}
		}
	}

	lambda := make([]float64, len(cons))
	x, best := Minimize(obj, mid, lower, upper, opts.Iterations)
	bestX := x
	bestLambda := append([]float64(nil), lambda...)

	dual := func() float64 {
		f := obj
		for j, c := range cons {
			if lambda[j] != 0 {
				f = f.Plus(lambda[j], c)
			}
		}
		xj, v := Minimize(f, x, lower, upper, opts.Iterations)
		if v > best {
			best, bestX = v, xj
			bestLambda = append(bestLambda[:0], lambda...)
		}
		return v
	}

	const invPhi = 0.6180339887498949
	for sweep := 0; sweep < opts.Sweeps && len(cons) > 0; sweep++ {
		for j := range cons {
			a, b := 0.0, opts.MaxMultiplier
			c := b - invPhi*(b-a)
			d := a + invPhi*(b-a)
			lambda[j] = c
			fc := dual()
			lambda[j] = d
			fd := dual()
			for s := 0; s < opts.Steps; s++ {
				if fc >= fd {
					b, d, fd = d, c, fc
					c = b - invPhi*(b-a)
					lambda[j] = c
					fc = dual()
				} else {
					a, c, fc = c, d, fd
					d = a + invPhi*(b-a)
					lambda[j] = d
					fd = dual()
				}
			}
			lambda[j] = bestLambda[j]
		}
	}

	return Bound{Value: best, X: bestX, Multipliers: bestLambda}
}
