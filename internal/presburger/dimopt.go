package presburger

import (
	"fmt"
	"slices"
)

// DimMin returns the exact minimum of the set dimension name as a piecewise
// affine function of the parameters. Other set dimensions are projected out.
// An empty set yields a PwAff without pieces.
func (s Set) DimMin(name string) (PwAff, error) { return s.dimOpt(name, true) }

// DimMax is the maximum counterpart of DimMin.
func (s Set) DimMax(name string) (PwAff, error) { return s.dimOpt(name, false) }

func (s Set) dimOpt(name string, min bool) (PwAff, error) {
	if typ, _, ok := s.space.Find(name); !ok || typ != SetDim {
		return PwAff{}, fmt.Errorf("%w: %q is not a set dimension of %s", ErrUnknownName, name, s.space)
	}
	paramSpace := s.space.ParamSpace()
	if s.IsEmpty() {
		return PwAff{domain: EmptySet(paramSpace)}, nil
	}

	others := slices.DeleteFunc(s.space.Dims(), func(d string) bool { return d == name })
	cons, bad := eliminateAll(s.cons, others)
	if bad {
		return PwAff{domain: EmptySet(paramSpace)}, nil
	}

	// The function is defined where the set is non-empty.
	feasible, bad := eliminate(cons, name)
	if bad {
		return PwAff{domain: EmptySet(paramSpace)}, nil
	}
	var bounds []Aff
	for _, c := range cons {
		a := c.expr.Coeff(name)
		if a == 0 || (a > 0) != min {
			continue
		}
		b, err := boundFrom(c, name)
		if err != nil {
			return PwAff{}, err
		}
		bounds = append(bounds, b)
	}
	if len(bounds) == 0 {
		side := "lower"
		if !min {
			side = "upper"
		}
		return PwAff{}, fmt.Errorf("%w: no %s bound for %q in %s", ErrUnbounded, side, name, s)
	}

	ctx := Universe(paramSpace).AddConstraint(feasible...)

	// The minimum of name is the largest lower bound; the maximum the
	// smallest upper bound. better(x, y) means x wins over y.
	better := func(x, y Aff) Aff {
		if min {
			return x.Sub(y)
		}
		return y.Sub(x)
	}

	// Drop bounds that another remaining bound always beats or ties.
	for i := len(bounds) - 1; i >= 0 && len(bounds) > 1; i-- {
		for j := range bounds {
			if j == i {
				continue
			}
			// bounds[i] strictly wins somewhere?
			if ctx.AddConstraint(Ineq(better(bounds[i], bounds[j]).AddConst(-1))).IsEmpty() {
				bounds = slices.Delete(bounds, i, i+1)
				break
			}
		}
	}

	out := PwAff{domain: ctx}
	for i, b := range bounds {
		guard := ctx
		for j, o := range bounds {
			switch {
			case j < i:
				guard = guard.AddConstraint(Ineq(better(b, o).AddConst(-1)))
			case j > i:
				guard = guard.AddConstraint(Ineq(better(b, o)))
			}
		}
		if guard.IsEmpty() {
			continue
		}
		out.pieces = append(out.pieces, Piece{Guard: guard, Aff: b})
	}
	return out, nil
}

// boundFrom solves a*name + rest >= 0 for name.
func boundFrom(c Constraint, name string) (Aff, error) {
	a := c.expr.Coeff(name)
	rest := c.expr.Sub(Term(a, name))
	if a > 0 {
		// name >= ceil(-rest / a)
		return divide(rest.Neg(), a, ceilDiv, c, name)
	}
	// name <= floor(rest / -a)
	return divide(rest, -a, floorDiv, c, name)
}

func divide(e Aff, d int64, round func(int64, int64) int64, c Constraint, name string) (Aff, error) {
	if d == 1 {
		return e, nil
	}
	out := Aff{constant: round(e.constant, d)}
	for n, k := range e.terms {
		if k%d != 0 {
			return Aff{}, fmt.Errorf("%w: bound on %q from %s", ErrUnsupported, name, c)
		}
		out.addTerm(n, k/d)
	}
	return out, nil
}

// Enumerate calls fn for every integer point of s once the parameters are
// fixed to params. Points list set-dimension values in space order and are
// visited in lexicographic order.
func (s Set) Enumerate(params map[string]int64, fn func(point []int64)) error {
	fixed := s
	for _, p := range s.space.params {
		v, ok := params[p]
		if !ok {
			return fmt.Errorf("%w: no value for parameter %q", ErrUnknownName, p)
		}
		fixed = fixed.FixValue(p, v)
	}
	return enumerate(fixed, fixed.space.Dims(), nil, fn)
}

func enumerate(s Set, dims []string, point []int64, fn func([]int64)) error {
	if s.IsEmpty() {
		return nil
	}
	if len(dims) == 0 {
		fn(slices.Clone(point))
		return nil
	}
	d := dims[0]
	proj := s.ProjectOut(dims[1:]...)
	var lo, hi int64
	var hasLo, hasHi bool
	for _, c := range proj.cons {
		a := c.expr.Coeff(d)
		switch {
		case a > 0:
			v := ceilDiv(-c.expr.constant, a)
			if !hasLo || v > lo {
				lo, hasLo = v, true
			}
		case a < 0:
			v := floorDiv(c.expr.constant, -a)
			if !hasHi || v < hi {
				hi, hasHi = v, true
			}
		}
	}
	if !hasLo || !hasHi {
		return fmt.Errorf("%w: %q in %s", ErrUnbounded, d, s)
	}
	for v := lo; v <= hi; v++ {
		if err := enumerate(s.FixValue(d, v), dims[1:], append(point, v), fn); err != nil {
			return err
		}
	}
	return nil
}
