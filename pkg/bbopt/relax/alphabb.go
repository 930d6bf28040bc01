package relax

import (
	"fmt"
	"math"
)

// eigenPad absorbs eigensolver rounding so the shifted Hessian stays
// positive semidefinite.
const eigenPad = 1e-9

// Alpha returns the smallest shift that convexifies q, padded for rounding.
func Alpha(q Quadratic) (float64, error) {
	lambda, err := MinEigenvalue(q)
	if err != nil {
		return 0, err
	}
	if lambda >= 0 {
		return 0, nil
	}
	return -lambda + eigenPad*(1+math.Abs(lambda)), nil
}

// Shift returns the alpha-shift underestimator of q over [lower, upper]
// as a quadratic: q + alpha * sum_i (x_i^2 - (l_i+u_i) x_i + l_i u_i).
func Shift(q Quadratic, alpha float64, lower, upper []float64) (Quadratic, error) {
	n, err := q.Dim()
	if err != nil {
		return Quadratic{}, err
	}
	if len(lower) != n || len(upper) != n {
		return Quadratic{}, fmt.Errorf("box has %d coordinates, quadratic %d: %w", len(lower), n, ErrShape)
	}
	for i := range lower {
		if math.IsInf(lower[i], 0) || math.IsInf(upper[i], 0) {
			return Quadratic{}, fmt.Errorf("coordinate %d: %w", i, ErrUnbounded)
		}
	}
	if alpha == 0 {
		return q.Plus(0, q), nil
	}
	shift := Quadratic{Q: make([][]float64, n), C: make([]float64, n)}
	for i := 0; i < n; i++ {
		shift.Q[i] = make([]float64, n)
		shift.Q[i][i] = 1
		shift.C[i] = -(lower[i] + upper[i])
		shift.K += lower[i] * upper[i]
	}
	return q.Plus(alpha, shift), nil
}

// Underestimate computes alpha for q and returns its convex underestimator
// over [lower, upper] together with alpha.
func Underestimate(q Quadratic, lower, upper []float64) (Quadratic, float64, error) {
	alpha, err := Alpha(q)
	if err != nil {
		return Quadratic{}, 0, err
	}
	u, err := Shift(q, alpha, lower, upper)
	return u, alpha, err
}

// CertifiedMin returns a value guaranteed to be at most the minimum of the
// convex quadratic f over [lower, upper], using the linearization at x.
// x must lie in the box.
func CertifiedMin(f Quadratic, x, lower, upper []float64) float64 {
	g := f.Grad(nil, x)
	v := f.Eval(x)
	for i := range x {
		v += math.Min(g[i]*(lower[i]-x[i]), g[i]*(upper[i]-x[i]))
	}
	return v - 1e-12*(1+math.Abs(v))
}

// Minimize runs projected gradient descent on the convex quadratic f over
// the box, starting from x0 (clamped), and returns the final iterate and
// its certified lower bound.
func Minimize(f Quadratic, x0, lower, upper []float64, iterations int) ([]float64, float64) {
	n := len(lower)
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Min(math.Max(x0[i], lower[i]), upper[i])
	}
	lip := f.lipschitz()
	g := make([]float64, n)
	if lip == 0 {
		// Linear: the minimum is attained at a vertex.
		f.Grad(g, x)
		for i := range x {
			if g[i] > 0 {
				x[i] = lower[i]
			} else {
				x[i] = upper[i]
			}
		}
		return x, CertifiedMin(f, x, lower, upper)
	}
	step := 1 / lip
	for it := 0; it < iterations; it++ {
		f.Grad(g, x)
		var moved float64
		for i := range x {
			next := math.Min(math.Max(x[i]-step*g[i], lower[i]), upper[i])
			moved = math.Max(moved, math.Abs(next-x[i]))
			x[i] = next
		}
		if moved < 1e-13 {
			break
		}
	}
	return x, CertifiedMin(f, x, lower, upper)
}
