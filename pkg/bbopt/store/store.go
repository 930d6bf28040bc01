// Package store holds the live nodes of a branch-and-bound search.
//
// A NodeStore is owned by exactly one driver and is not safe for
// concurrent use. A node is either in the store or held by the driver,
// never both.
package store

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/operator-framework/bbopt/pkg/bbopt"
)

type NodeStore interface {
	Push(n *bbopt.Node)
	// Pop removes and returns the next node, or nil when empty.
	Pop() *bbopt.Node
	Len() int
	// MinLower is the smallest lower objective among stored nodes, +Inf
	// when the store is empty.
	MinLower() float64
	// Drain removes every node, calling fn on each.
	Drain(fn func(*bbopt.Node))
}

// New returns the store for the given selection rule.
func New(sel bbopt.NodeSelection) (NodeStore, error) {
	switch sel {
	case bbopt.BestFirst, "":
		return NewBestFirst(), nil
	case bbopt.DepthFirst:
		return NewDepthFirst(), nil
	}
	return nil, fmt.Errorf("node selection %q: %w", sel, bbopt.ErrInvalidOption)
}

// nodeHeap orders by ascending lower objective, then ascending ID.
type nodeHeap []*bbopt.Node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].LowerObjective == h[j].LowerObjective {
		return h[i].ID < h[j].ID
	}
	return h[i].LowerObjective < h[j].LowerObjective
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*bbopt.Node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return n
}

type bestFirst struct {
	h nodeHeap
}

// NewBestFirst returns a store that pops the node with the smallest lower
// objective first, breaking ties first-in first-out by node ID.
func NewBestFirst() NodeStore {
	return &bestFirst{}
}

func (s *bestFirst) Push(n *bbopt.Node) {
	heap.Push(&s.h, n)
}

func (s *bestFirst) Pop() *bbopt.Node {
	if len(s.h) == 0 {
		return nil
	}
	return heap.Pop(&s.h).(*bbopt.Node)
}

func (s *bestFirst) Len() int {
	return len(s.h)
}

func (s *bestFirst) MinLower() float64 {
	if len(s.h) == 0 {
		return math.Inf(1)
	}
	return s.h[0].LowerObjective
}

func (s *bestFirst) Drain(fn func(*bbopt.Node)) {
	for _, n := range s.h {
		fn(n)
	}
	s.h = nil
}

type depthFirst struct {
	stack []*bbopt.Node
}

// NewDepthFirst returns a last-in first-out store. When the driver pushes
// two children the right child is popped first.
func NewDepthFirst() NodeStore {
	return &depthFirst{}
}

func (s *depthFirst) Push(n *bbopt.Node) {
	s.stack = append(s.stack, n)
}

func (s *depthFirst) Pop() *bbopt.Node {
	if len(s.stack) == 0 {
		return nil
	}
	n := s.stack[len(s.stack)-1]
	s.stack[len(s.stack)-1] = nil
	s.stack = s.stack[:len(s.stack)-1]
	return n
}

func (s *depthFirst) Len() int {
	return len(s.stack)
}

func (s *depthFirst) MinLower() float64 {
	lb := math.Inf(1)
	for _, n := range s.stack {
		lb = math.Min(lb, n.LowerObjective)
	}
	return lb
}

func (s *depthFirst) Drain(fn func(*bbopt.Node)) {
	for _, n := range s.stack {
		fn(n)
	}
	s.stack = nil
}
