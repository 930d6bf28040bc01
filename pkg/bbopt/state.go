package bbopt

import (
	"math"
	"time"
)

// relativeGapFloor keeps the relative gap finite when the incumbent is zero.
const relativeGapFloor = 1e-10

// State is the search bookkeeping shared with extensions. All objective
// values are in minimization form.
type State struct {
	Settings Settings
	Layout   Layout
	// RootWidth holds the root box widths, used to scale branching decisions.
	RootWidth []float64

	Incumbent      float64
	IncumbentPoint []float64
	GlobalLower    float64

	Iteration int
	// NodeCount is the number of nodes created, the root included.
	NodeCount      int
	Pruned         int
	Infeasible     int
	SolverFailures int
	Leaves         int
	Repeats        int
	MaxDepth       int
	StoreSize      int

	Start     time.Time
	Converged bool
	Unbounded bool
	EndState  EndState
}

// NewState returns bookkeeping for a fresh search.
func NewState(settings Settings, layout Layout, root Box) *State {
	width := make([]float64, root.Dim())
	for i := range width {
		width[i] = root.Width(i)
	}
	return &State{
		Settings:    settings,
		Layout:      layout,
		RootWidth:   width,
		Incumbent:   math.Inf(1),
		GlobalLower: math.Inf(-1),
		Start:       time.Now(),
		EndState:    Running,
	}
}

func (s *State) HasIncumbent() bool {
	return !math.IsInf(s.Incumbent, 1)
}

// Gap is max(0, incumbent - global lower bound).
func (s *State) Gap() float64 {
	if !s.HasIncumbent() || math.IsInf(s.GlobalLower, -1) {
		return math.Inf(1)
	}
	return math.Max(0, s.Incumbent-s.GlobalLower)
}

// RelativeGap divides Gap by max(|incumbent|, a small floor).
func (s *State) RelativeGap() float64 {
	gap := s.Gap()
	if math.IsInf(gap, 1) {
		return gap
	}
	return gap / math.Max(math.Abs(s.Incumbent), relativeGapFloor)
}

func (s *State) Elapsed() time.Duration {
	return time.Since(s.Start)
}

// Improve records (value, point) as the incumbent when value is strictly
// better. Only the driver calls it, from the upper bounding step.
func (s *State) Improve(value float64, point []float64) bool {
	if math.IsNaN(value) || value >= s.Incumbent {
		return false
	}
	s.Incumbent = value
	s.IncumbentPoint = append([]float64(nil), point...)
	return true
}

// RaiseLower moves the global lower bound up to lb, never down.
func (s *State) RaiseLower(lb float64) {
	if lb > s.GlobalLower {
		s.GlobalLower = lb
	}
}
