// Package interval implements outward-rounded interval arithmetic.
//
// Every operation returns an enclosure of the exact range: endpoints are
// pushed one ulp outward with math.Nextafter after each floating point
// step, so the lower endpoint of an evaluated expression is a certified
// lower bound of the expression over the input box. Operations never fail;
// out-of-domain inputs produce the empty interval and division by an
// interval containing zero produces the entire real line.
package interval

import (
	"fmt"
	"math"
)

type Interval struct {
	Lo, Hi float64
}

var (
	Empty  = Interval{Lo: math.Inf(1), Hi: math.Inf(-1)}
	Entire = Interval{Lo: math.Inf(-1), Hi: math.Inf(1)}
)

// New returns [lo, hi], swapping the endpoints if given in reverse.
func New(lo, hi float64) Interval {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Interval{Lo: lo, Hi: hi}
}

func Point(x float64) Interval {
	return Interval{Lo: x, Hi: x}
}

// FromBox converts per-coordinate bounds into intervals.
func FromBox(lower, upper []float64) []Interval {
	out := make([]Interval, len(lower))
	for i := range lower {
		out[i] = Interval{Lo: lower[i], Hi: upper[i]}
	}
	return out
}

func down(x float64) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	return math.Nextafter(x, math.Inf(-1))
}

func up(x float64) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	return math.Nextafter(x, math.Inf(1))
}

func (a Interval) IsEmpty() bool {
	return !(a.Lo <= a.Hi)
}

func (a Interval) Contains(x float64) bool {
	return a.Lo <= x && x <= a.Hi
}

func (a Interval) Width() float64 {
	if a.IsEmpty() {
		return 0
	}
	return a.Hi - a.Lo
}

func (a Interval) Mid() float64 {
	return a.Lo + 0.5*(a.Hi-a.Lo)
}

func (a Interval) Add(b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty
	}
	return Interval{Lo: down(a.Lo + b.Lo), Hi: up(a.Hi + b.Hi)}
}

func (a Interval) Sub(b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty
	}
	return Interval{Lo: down(a.Lo - b.Hi), Hi: up(a.Hi - b.Lo)}
}

func (a Interval) Neg() Interval {
	if a.IsEmpty() {
		return Empty
	}
	return Interval{Lo: -a.Hi, Hi: -a.Lo}
}

// mul treats 0*Inf as 0, the limit that keeps enclosures valid.
func mul(x, y float64) float64 {
	if x == 0 || y == 0 {
		return 0
	}
	return x * y
}

func (a Interval) Mul(b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty
	}
	p := [4]float64{mul(a.Lo, b.Lo), mul(a.Lo, b.Hi), mul(a.Hi, b.Lo), mul(a.Hi, b.Hi)}
	lo, hi := p[0], p[0]
	for _, v := range p[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return Interval{Lo: down(lo), Hi: up(hi)}
}

// Scale multiplies by a constant.
func (a Interval) Scale(k float64) Interval {
	return a.Mul(Point(k))
}

// AddConst adds a constant.
func (a Interval) AddConst(k float64) Interval {
	return a.Add(Point(k))
}

// Recip returns 1/a, or Entire when a contains zero.
func (a Interval) Recip() Interval {
	if a.IsEmpty() {
		return Empty
	}
	if a.Contains(0) {
		return Entire
	}
	return Interval{Lo: down(1 / a.Hi), Hi: up(1 / a.Lo)}
}

func (a Interval) Div(b Interval) Interval {
	return a.Mul(b.Recip())
}

func (a Interval) Sqr() Interval {
	switch {
	case a.IsEmpty():
		return Empty
	case a.Lo >= 0:
		return Interval{Lo: down(a.Lo * a.Lo), Hi: up(a.Hi * a.Hi)}
	case a.Hi <= 0:
		return Interval{Lo: down(a.Hi * a.Hi), Hi: up(a.Lo * a.Lo)}
	}
	return Interval{Lo: 0, Hi: up(math.Max(a.Lo*a.Lo, a.Hi*a.Hi))}
}

// Pow raises to a non-negative integer power.
func (a Interval) Pow(n int) Interval {
	switch {
	case a.IsEmpty():
		return Empty
	case n < 0:
		return a.Pow(-n).Recip()
	case n == 0:
		return Point(1)
	case n == 1:
		return a
	case n%2 == 0:
		m := a.Abs()
		return Interval{Lo: math.Max(0, down(down(math.Pow(m.Lo, float64(n))))), Hi: up(up(math.Pow(m.Hi, float64(n))))}
	}
	return Interval{Lo: down(down(math.Pow(a.Lo, float64(n)))), Hi: up(up(math.Pow(a.Hi, float64(n))))}
}

func (a Interval) Abs() Interval {
	switch {
	case a.IsEmpty():
		return Empty
	case a.Lo >= 0:
		return a
	case a.Hi <= 0:
		return a.Neg()
	}
	return Interval{Lo: 0, Hi: math.Max(-a.Lo, a.Hi)}
}

func (a Interval) Sqrt() Interval {
	if a.IsEmpty() || a.Hi < 0 {
		return Empty
	}
	lo := math.Max(a.Lo, 0)
	return Interval{Lo: math.Max(0, down(math.Sqrt(lo))), Hi: up(math.Sqrt(a.Hi))}
}

func (a Interval) Exp() Interval {
	if a.IsEmpty() {
		return Empty
	}
	return Interval{Lo: math.Max(0, down(down(math.Exp(a.Lo)))), Hi: up(up(math.Exp(a.Hi)))}
}

func (a Interval) Log() Interval {
	if a.IsEmpty() || a.Hi <= 0 {
		return Empty
	}
	lo := math.Inf(-1)
	if a.Lo > 0 {
		lo = down(down(math.Log(a.Lo)))
	}
	return Interval{Lo: lo, Hi: up(up(math.Log(a.Hi)))}
}

// Sin encloses the range of sin over a, checking whether a crosses a
// maximum (pi/2 + 2k pi) or minimum (-pi/2 + 2k pi).
func (a Interval) Sin() Interval {
	if a.IsEmpty() {
		return Empty
	}
	if math.IsInf(a.Lo, 0) || math.IsInf(a.Hi, 0) || a.Hi-a.Lo >= 2*math.Pi {
		return Interval{Lo: -1, Hi: 1}
	}
	sl, sh := math.Sin(a.Lo), math.Sin(a.Hi)
	lo := down(down(math.Min(sl, sh)))
	hi := up(up(math.Max(sl, sh)))
	if crosses(a, math.Pi/2) {
		hi = 1
	}
	if crosses(a, -math.Pi/2) {
		lo = -1
	}
	return Interval{Lo: math.Max(lo, -1), Hi: math.Min(hi, 1)}
}

// crosses reports whether a contains phase + 2k pi for some integer k. The
// test is widened slightly so rounding in the phase never hides an extremum.
func crosses(a Interval, phase float64) bool {
	const slack = 1e-12
	k := math.Ceil((a.Lo - phase - slack) / (2 * math.Pi))
	return phase+2*math.Pi*k <= a.Hi+slack
}

func (a Interval) Cos() Interval {
	if a.IsEmpty() {
		return Empty
	}
	return Interval{Lo: down(a.Lo + math.Pi/2), Hi: up(a.Hi + math.Pi/2)}.Sin()
}

// Hull is the smallest interval containing both.
func (a Interval) Hull(b Interval) Interval {
	switch {
	case a.IsEmpty():
		return b
	case b.IsEmpty():
		return a
	}
	return Interval{Lo: math.Min(a.Lo, b.Lo), Hi: math.Max(a.Hi, b.Hi)}
}

func (a Interval) Intersect(b Interval) Interval {
	out := Interval{Lo: math.Max(a.Lo, b.Lo), Hi: math.Min(a.Hi, b.Hi)}
	if out.IsEmpty() {
		return Empty
	}
	return out
}

func (a Interval) String() string {
	if a.IsEmpty() {
		return "[empty]"
	}
	return fmt.Sprintf("[%g, %g]", a.Lo, a.Hi)
}

// Sum adds a list of intervals.
func Sum(xs ...Interval) Interval {
	acc := Point(0)
	for _, x := range xs {
		acc = acc.Add(x)
	}
	return acc
}
