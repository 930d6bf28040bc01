package bbopt

import (
	"fmt"
	"math"
)

// Box is an axis-aligned hyper-rectangle, Lower[i] <= Upper[i] for every i.
// Methods do not modify the receiver unless stated otherwise.
type Box struct {
	Lower []float64
	Upper []float64
}

// NewBox validates and copies the given bounds.
func NewBox(lower, upper []float64) (Box, error) {
	if len(lower) == 0 {
		return Box{}, ErrEmptyBox
	}
	if len(lower) != len(upper) {
		return Box{}, fmt.Errorf("lower has %d coordinates, upper has %d: %w", len(lower), len(upper), ErrDimensionMismatch)
	}
	for i := range lower {
		if math.IsNaN(lower[i]) || math.IsNaN(upper[i]) {
			return Box{}, fmt.Errorf("coordinate %d is NaN: %w", i, ErrInvalidBounds)
		}
		if lower[i] > upper[i] {
			return Box{}, fmt.Errorf("coordinate %d: lower %g > upper %g: %w", i, lower[i], upper[i], ErrInvalidBounds)
		}
	}
	return Box{Lower: append([]float64(nil), lower...), Upper: append([]float64(nil), upper...)}, nil
}

// MustBox is like NewBox but panics on invalid input. Intended for
// problem catalogs and tests.
func MustBox(lower, upper []float64) Box {
	b, err := NewBox(lower, upper)
	if err != nil {
		panic(err)
	}
	return b
}

func (b Box) Dim() int {
	return len(b.Lower)
}

func (b Box) Width(i int) float64 {
	return b.Upper[i] - b.Lower[i]
}

// MaxWidth returns the largest coordinate width.
func (b Box) MaxWidth() float64 {
	var w float64
	for i := range b.Lower {
		w = math.Max(w, b.Width(i))
	}
	return w
}

func (b Box) Midpoint() []float64 {
	mid := make([]float64, b.Dim())
	for i := range mid {
		mid[i] = b.Lower[i] + 0.5*(b.Upper[i]-b.Lower[i])
	}
	return mid
}

// Contains reports whether x lies in the box, allowing tol slack on every
// coordinate.
func (b Box) Contains(x []float64, tol float64) bool {
	if len(x) != b.Dim() {
		return false
	}
	for i, v := range x {
		if v < b.Lower[i]-tol || v > b.Upper[i]+tol {
			return false
		}
	}
	return true
}

// Clamp returns a copy of x projected onto the box.
func (b Box) Clamp(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Min(math.Max(v, b.Lower[i]), b.Upper[i])
	}
	return out
}

// IsDegenerate reports whether every width is at most tol.
func (b Box) IsDegenerate(tol float64) bool {
	for i := range b.Lower {
		if b.Width(i) > tol {
			return false
		}
	}
	return true
}

// Split cuts coordinate i at Lower[i] + fraction*Width(i). Both halves
// share the cut plane.
func (b Box) Split(i int, fraction float64) (Box, Box) {
	cut := b.Lower[i] + fraction*b.Width(i)
	left, right := b.Clone(), b.Clone()
	left.Upper[i] = cut
	right.Lower[i] = cut
	return left, right
}

func (b Box) Clone() Box {
	return Box{Lower: append([]float64(nil), b.Lower...), Upper: append([]float64(nil), b.Upper...)}
}

// SetBounds narrows coordinate i in place. It is meant for postprocess and
// repeat hooks that own the node holding the box.
func (b Box) SetBounds(i int, lower, upper float64) error {
	if lower > upper || math.IsNaN(lower) || math.IsNaN(upper) {
		return fmt.Errorf("coordinate %d: [%g, %g]: %w", i, lower, upper, ErrInvalidBounds)
	}
	b.Lower[i], b.Upper[i] = lower, upper
	return nil
}

func (b Box) Volume() float64 {
	v := 1.0
	for i := range b.Lower {
		v *= b.Width(i)
	}
	return v
}

func (b Box) String() string {
	return fmt.Sprintf("%v..%v", b.Lower, b.Upper)
}
