package solver

import (
	"github.com/operator-framework/bbopt/pkg/bbopt"
)

type position struct {
	node  *bbopt.Node
	fate  bbopt.Fate
	state *bbopt.State
}

func (p position) Node() *bbopt.Node   { return p.node }
func (p position) Fate() bbopt.Fate    { return p.fate }
func (p position) State() *bbopt.State { return p.state }

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ bbopt.SearchPosition) {
}
