package bbopt

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBox          = errors.New("box has no coordinates")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidBounds     = errors.New("invalid bounds")
	ErrInvalidTolerance  = errors.New("invalid tolerance")
	ErrInvalidOption     = errors.New("invalid option")
	ErrNoExtensions      = errors.New("no extensions configured")
)

// InvariantViolation is returned by Node.Validate and lists every broken
// node invariant.
type InvariantViolation []string

func (e InvariantViolation) Error() string {
	const msg = "node invariants violated"
	if len(e) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, []string(e))
}
