// Package relax builds convex underestimators of quadratic functions over
// a box and computes certified lower bounds of their minima.
//
// Underestimators use the alpha-shift: for q(x) = x'Qx + c'x + k and a box
// [l, u], L(x) = q(x) + alpha * sum_i (x_i - l_i)(x_i - u_i) is below q on
// the box because every product is non-positive there, and is convex when
// alpha >= max(0, -lambda_min(Q)).
//
// Bounds never trust an inner solve: the minimum of a convex function over
// a box is bounded below by its linearization at any point of the box,
// minimized coordinate-wise over the box corners.
package relax

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrShape       = errors.New("quadratic has inconsistent dimensions")
	ErrEigenFailed = errors.New("eigen decomposition failed")
	ErrUnbounded   = errors.New("box must be finite")
)

// Quadratic is q(x) = x'Qx + c'x + k. Q is read as its symmetric part.
type Quadratic struct {
	Q [][]float64
	C []float64
	K float64
}

// Dim returns the number of variables, or an error when Q and C disagree.
func (q Quadratic) Dim() (int, error) {
	n := len(q.C)
	if q.Q == nil {
		return n, nil
	}
	if len(q.Q) != n {
		return 0, fmt.Errorf("Q has %d rows, c has %d entries: %w", len(q.Q), n, ErrShape)
	}
	for i, row := range q.Q {
		if len(row) != n {
			return 0, fmt.Errorf("row %d of Q has %d entries: %w", i, len(row), ErrShape)
		}
	}
	return n, nil
}

func (q Quadratic) at(i, j int) float64 {
	if q.Q == nil {
		return 0
	}
	return 0.5 * (q.Q[i][j] + q.Q[j][i])
}

func (q Quadratic) Eval(x []float64) float64 {
	v := q.K
	for i := range q.C {
		v += q.C[i] * x[i]
		for j := range q.C {
			v += x[i] * q.at(i, j) * x[j]
		}
	}
	return v
}

// Grad writes the gradient 2Qx + c into dst and returns it.
func (q Quadratic) Grad(dst, x []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(q.C))
	}
	for i := range q.C {
		g := q.C[i]
		for j := range q.C {
			g += 2 * q.at(i, j) * x[j]
		}
		dst[i] = g
	}
	return dst
}

// Plus returns q + w*p.
func (q Quadratic) Plus(w float64, p Quadratic) Quadratic {
	n := len(q.C)
	out := Quadratic{Q: make([][]float64, n), C: make([]float64, n), K: q.K + w*p.K}
	for i := 0; i < n; i++ {
		out.Q[i] = make([]float64, n)
		out.C[i] = q.C[i] + w*p.C[i]
		for j := 0; j < n; j++ {
			out.Q[i][j] = q.at(i, j) + w*p.at(i, j)
		}
	}
	return out
}

// lipschitz bounds the largest eigenvalue of the Hessian 2Q by a
// Gershgorin row sum.
func (q Quadratic) lipschitz() float64 {
	var lip float64
	for i := range q.C {
		var row float64
		for j := range q.C {
			row += math.Abs(q.at(i, j))
		}
		lip = math.Max(lip, 2*row)
	}
	return lip
}

// MinEigenvalue returns the smallest eigenvalue of the symmetric part of Q.
func MinEigenvalue(q Quadratic) (float64, error) {
	n, err := q.Dim()
	if err != nil {
		return 0, err
	}
	if n == 0 || q.Q == nil {
		return 0, nil
	}
	data := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data = append(data, q.at(i, j))
		}
	}
	var es mat.EigenSym
	if !es.Factorize(mat.NewSymDense(n, data), false) {
		return 0, ErrEigenFailed
	}
	lambda := math.Inf(1)
	for _, v := range es.Values(nil) {
		lambda = math.Min(lambda, v)
	}
	return lambda, nil
}
