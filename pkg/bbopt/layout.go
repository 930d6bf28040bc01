package bbopt

// Layout describes how the decision vector stored in every node is laid
// out. The first UserDim coordinates are the caller's variables. When
// Epigraph is set, one auxiliary coordinate t follows at index UserDim,
// turning "min f(x)" into "min t subject to f(x) <= t". The auxiliary is
// never branched on unless an explicit branch mask says otherwise.
//
// This is the only place that knows about the offset; everything else
// goes through AuxIndex and UserPoint.
type Layout struct {
	UserDim  int
	Epigraph bool
}

// Dim is the length of the full decision vector.
func (l Layout) Dim() int {
	if l.Epigraph {
		return l.UserDim + 1
	}
	return l.UserDim
}

// AuxIndex returns the index of the epigraph variable, or -1 without one.
func (l Layout) AuxIndex() int {
	if !l.Epigraph {
		return -1
	}
	return l.UserDim
}

// UserPoint strips the auxiliary coordinate. The result aliases x.
func (l Layout) UserPoint(x []float64) []float64 {
	if len(x) < l.UserDim {
		return x
	}
	return x[:l.UserDim]
}

// DefaultMask marks every user coordinate as branchable and the auxiliary
// as not.
func (l Layout) DefaultMask() []bool {
	mask := make([]bool, l.Dim())
	for i := 0; i < l.UserDim; i++ {
		mask[i] = true
	}
	return mask
}

// Extend appends the auxiliary range to a box over the user variables.
func (l Layout) Extend(user Box, auxLower, auxUpper float64) (Box, error) {
	if !l.Epigraph {
		return user.Clone(), nil
	}
	lower := append(append([]float64(nil), user.Lower...), auxLower)
	upper := append(append([]float64(nil), user.Upper...), auxUpper)
	return NewBox(lower, upper)
}
