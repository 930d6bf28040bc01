package bbopt

import (
	"fmt"
	"math"
	"time"
)

// NodeSelection chooses the order in which live nodes are explored.
type NodeSelection string

const (
	BestFirst  NodeSelection = "best-first"
	DepthFirst NodeSelection = "depth-first"
)

// Settings are the tolerances and limits of a search. Extensions see them
// read-only through State.
type Settings struct {
	AbsoluteTolerance float64
	RelativeTolerance float64
	// Zero means no limit.
	IterationLimit int
	NodeLimit      int
	TimeLimit      time.Duration
	// BranchVariable, when non-nil, overrides the mask inferred from the
	// layout.
	BranchVariable       []bool
	MinimumBoxWidth      float64
	BranchFraction       float64
	FeasibilityTolerance float64
	NodeSelection        NodeSelection
	// OutputIterations is the progress reporting cadence. It has no
	// effect on the search.
	OutputIterations int
}

func DefaultSettings() Settings {
	return Settings{
		AbsoluteTolerance:    1e-4,
		RelativeTolerance:    1e-4,
		MinimumBoxWidth:      1e-9,
		BranchFraction:       0.5,
		FeasibilityTolerance: 1e-6,
		NodeSelection:        BestFirst,
		OutputIterations:     100,
	}
}

// Validate reports configuration errors for a search over dim coordinates.
func (s Settings) Validate(dim int) error {
	for name, v := range map[string]float64{
		"absolute tolerance":    s.AbsoluteTolerance,
		"relative tolerance":    s.RelativeTolerance,
		"minimum box width":     s.MinimumBoxWidth,
		"feasibility tolerance": s.FeasibilityTolerance,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%s %g: %w", name, v, ErrInvalidTolerance)
		}
	}
	if s.IterationLimit < 0 || s.NodeLimit < 0 || s.TimeLimit < 0 {
		return fmt.Errorf("negative limit: %w", ErrInvalidOption)
	}
	if !(s.BranchFraction > 0 && s.BranchFraction < 1) {
		return fmt.Errorf("branch fraction %g not in (0, 1): %w", s.BranchFraction, ErrInvalidOption)
	}
	if s.BranchVariable != nil && len(s.BranchVariable) != dim {
		return fmt.Errorf("branch variable mask has %d entries for %d coordinates: %w", len(s.BranchVariable), dim, ErrDimensionMismatch)
	}
	switch s.NodeSelection {
	case BestFirst, DepthFirst:
	default:
		return fmt.Errorf("node selection %q: %w", s.NodeSelection, ErrInvalidOption)
	}
	return nil
}
