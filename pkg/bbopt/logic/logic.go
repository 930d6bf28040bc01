// Package logic checks disjunctive half-space conditions on a box with a
// SAT solver.
//
// A Formula is a conjunction of clauses over atoms of the form x_i <= c or
// x_i >= c. On a box, an atom is decided when every point agrees on it.
// Decided atoms become assumptions and the solver searches for an
// assignment of the undecided ones; an unsatisfiable result proves that
// no point of the box satisfies the formula. Undecided atoms are free, so
// the check can only err on the side of keeping a box.
package logic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/operator-framework/bbopt/pkg/bbopt"
)

var ErrUnknownAtom = errors.New("clause refers to an unknown atom")

const (
	satisfiable   = 1
	unsatisfiable = -1
)

type Op int

const (
	LE Op = iota
	GE
)

// Atom is x[Var] <= Value (LE) or x[Var] >= Value (GE).
type Atom struct {
	Var   int
	Op    Op
	Value float64
}

func (a Atom) String() string {
	if a.Op == LE {
		return fmt.Sprintf("x%d <= %g", a.Var, a.Value)
	}
	return fmt.Sprintf("x%d >= %g", a.Var, a.Value)
}

// Holds evaluates the atom at a point.
func (a Atom) Holds(x []float64) bool {
	if a.Op == LE {
		return x[a.Var] <= a.Value
	}
	return x[a.Var] >= a.Value
}

// decide returns (value, true) when the atom has the same truth value on
// the whole box.
func (a Atom) decide(box bbopt.Box) (bool, bool) {
	lo, hi := box.Lower[a.Var], box.Upper[a.Var]
	switch a.Op {
	case LE:
		if hi <= a.Value {
			return true, true
		}
		if lo > a.Value {
			return false, true
		}
	case GE:
		if lo >= a.Value {
			return true, true
		}
		if hi < a.Value {
			return false, true
		}
	}
	return false, false
}

// Lit refers to an atom by index, optionally negated.
type Lit struct {
	Atom    int
	Negated bool
}

func Pos(atom int) Lit { return Lit{Atom: atom} }
func Neg(atom int) Lit { return Lit{Atom: atom, Negated: true} }

type Clause []Lit

// Formula is a CNF over atoms.
type Formula struct {
	atoms   []Atom
	clauses []Clause
	g       *gini.Gini
	// loaded marks atoms that occur in some clause given to the solver.
	loaded []bool
}

// NewFormula validates clauses against atoms and loads them, together with
// the ordering facts relating atoms on the same coordinate, into a SAT
// instance.
func NewFormula(atoms []Atom, clauses []Clause) (*Formula, error) {
	for ci, c := range clauses {
		for _, l := range c {
			if l.Atom < 0 || l.Atom >= len(atoms) {
				return nil, fmt.Errorf("clause %d, atom %d: %w", ci, l.Atom, ErrUnknownAtom)
			}
		}
	}
	f := &Formula{
		atoms:   append([]Atom(nil), atoms...),
		clauses: append([]Clause(nil), clauses...),
		g:       gini.New(),
		loaded:  make([]bool, len(atoms)),
	}
	for _, c := range f.clauses {
		f.add(c...)
	}
	f.addOrdering()
	return f, nil
}

func (f *Formula) lit(l Lit) z.Lit {
	m := z.Var(l.Atom + 1).Pos()
	if l.Negated {
		return m.Not()
	}
	return m
}

func (f *Formula) add(ls ...Lit) {
	for _, l := range ls {
		f.g.Add(f.lit(l))
		f.loaded[l.Atom] = true
	}
	f.g.Add(z.LitNull)
}

// addOrdering adds facts implied by the real line: x <= a implies x <= b
// for a <= b, x >= c implies x >= d for c >= d, x <= a and x >= c are
// exclusive when c > a, and at least one of them holds when c <= a.
func (f *Formula) addOrdering() {
	for i, a := range f.atoms {
		for j, b := range f.atoms {
			if i == j || a.Var != b.Var {
				continue
			}
			switch {
			case a.Op == LE && b.Op == LE && a.Value <= b.Value:
				f.add(Neg(i), Pos(j))
			case a.Op == GE && b.Op == GE && a.Value >= b.Value:
				f.add(Neg(i), Pos(j))
			case a.Op == LE && b.Op == GE && b.Value > a.Value:
				f.add(Neg(i), Neg(j))
			case a.Op == LE && b.Op == GE && b.Value <= a.Value:
				f.add(Pos(i), Pos(j))
			}
		}
	}
}

func (f *Formula) Atoms() []Atom {
	return f.atoms
}

// Check returns InfeasibleBox when no point of box satisfies the formula
// and Feasible otherwise. An undecided solver answer is reported as
// SolverFailure.
func (f *Formula) Check(box bbopt.Box) bbopt.Outcome {
	var assumptions []z.Lit
	for i, a := range f.atoms {
		if !f.loaded[i] || a.Var >= box.Dim() {
			continue
		}
		if v, ok := a.decide(box); ok {
			if v {
				assumptions = append(assumptions, f.lit(Pos(i)))
			} else {
				assumptions = append(assumptions, f.lit(Neg(i)))
			}
		}
	}
	f.g.Assume(assumptions...)
	switch f.g.Solve() {
	case satisfiable:
		return bbopt.Feasible
	case unsatisfiable:
		return bbopt.InfeasibleBox
	}
	return bbopt.SolverFailure
}

// Satisfied evaluates the formula exactly at a point.
func (f *Formula) Satisfied(x []float64) bool {
	for _, c := range f.clauses {
		ok := false
		for _, l := range c {
			if f.atoms[l.Atom].Holds(x) != l.Negated {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func (f *Formula) String() string {
	parts := make([]string, len(f.clauses))
	for i, c := range f.clauses {
		lits := make([]string, len(c))
		for j, l := range c {
			lits[j] = f.atoms[l.Atom].String()
			if l.Negated {
				lits[j] = "not " + lits[j]
			}
		}
		parts[i] = "(" + strings.Join(lits, " or ") + ")"
	}
	return strings.Join(parts, " and ")
}
