package bbopt

import (
	"fmt"
	"math"
)

// Node is a vertex of the search tree.
type Node struct {
	Box            Box
	LowerObjective float64
	UpperObjective float64
	LowerSolution  []float64
	UpperSolution  []float64
	Depth          int
	ID             uint64
	ParentID       uint64
	// BranchMask selects the coordinates eligible for splitting.
	BranchMask []bool
	// Repeats counts how many times RepeatCheck re-enqueued this node.
	Repeats int
	// LowerFailures counts the consecutive visits whose lower bounding
	// ended in a solver failure. A usable lower bound resets it.
	LowerFailures int
}

// NewNode returns a node with no bounds computed yet. A nil mask makes
// every coordinate branchable.
func NewNode(box Box, mask []bool) *Node {
	if mask == nil {
		mask = make([]bool, box.Dim())
		for i := range mask {
			mask[i] = true
		}
	}
	return &Node{
		Box:            box,
		LowerObjective: math.Inf(-1),
		UpperObjective: math.Inf(1),
		BranchMask:     append([]bool(nil), mask...),
	}
}

// Branch splits the node's box on coord and returns the two children.
// Children inherit the parent's bounds and mask; IDs are left for the
// caller to assign.
func (n *Node) Branch(coord int, fraction float64) (*Node, *Node) {
	lbox, rbox := n.Box.Split(coord, fraction)
	child := func(b Box) *Node {
		return &Node{
			Box:            b,
			LowerObjective: n.LowerObjective,
			UpperObjective: math.Inf(1),
			Depth:          n.Depth + 1,
			ParentID:       n.ID,
			BranchMask:     append([]bool(nil), n.BranchMask...),
		}
	}
	return child(lbox), child(rbox)
}

// Branchable reports whether coordinate i may be split.
func (n *Node) Branchable(i int) bool {
	return i >= 0 && i < len(n.BranchMask) && n.BranchMask[i]
}

// Validate checks lower <= upper once both are finite and that stored
// solutions lie in the box (with tol slack).
func (n *Node) Validate(tol float64) error {
	var errs InvariantViolation
	if !math.IsInf(n.LowerObjective, 0) && !math.IsInf(n.UpperObjective, 0) && n.LowerObjective > n.UpperObjective+tol {
		errs = append(errs, fmt.Sprintf("lower objective %g above upper objective %g", n.LowerObjective, n.UpperObjective))
	}
	if n.LowerSolution != nil && !n.Box.Contains(n.LowerSolution, tol) {
		errs = append(errs, fmt.Sprintf("lower solution %v outside %s", n.LowerSolution, n.Box))
	}
	if n.UpperSolution != nil && !n.Box.Contains(n.UpperSolution, tol) {
		errs = append(errs, fmt.Sprintf("upper solution %v outside %s", n.UpperSolution, n.Box))
	}
	if len(n.BranchMask) != n.Box.Dim() {
		errs = append(errs, fmt.Sprintf("branch mask has %d entries for %d coordinates", len(n.BranchMask), n.Box.Dim()))
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (n *Node) String() string {
	return fmt.Sprintf("node %d (depth %d) [%g, %g]", n.ID, n.Depth, n.LowerObjective, n.UpperObjective)
}
