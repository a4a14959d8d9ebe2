package presburger

import (
	"fmt"
	"slices"
)

// StaticMin returns one piece's expression that is <= every piece of p on
// that piece's guard. Constant pieces are tried first, so a constant bound is
// preferred whenever one is valid. With constantsOnly, non-constant
// candidates are never chosen.
func StaticMin(p PwAff, constantsOnly bool) (Aff, error) {
	return staticBound(p, constantsOnly, "min", func(c, a Aff) Constraint {
		// violated where c > a
		return Ineq(c.Sub(a).AddConst(-1))
	})
}

// StaticMax is the upper counterpart of StaticMin.
func StaticMax(p PwAff, constantsOnly bool) (Aff, error) {
	return staticBound(p, constantsOnly, "max", func(c, a Aff) Constraint {
		return Ineq(a.Sub(c).AddConst(-1))
	})
}

// StaticValue returns the expression equal to every piece of p.
func StaticValue(p PwAff, constantsOnly bool) (Aff, error) {
	for _, c := range candidates(p, constantsOnly) {
		ok := true
		for _, pc := range p.pieces {
			below := pc.Guard.restrict(Ineq(c.Sub(pc.Aff).AddConst(-1)))
			above := pc.Guard.restrict(Ineq(pc.Aff.Sub(c).AddConst(-1)))
			if !below.IsEmpty() || !above.IsEmpty() {
				ok = false
				break
			}
		}
		if ok {
			return c, nil
		}
	}
	if p.IsEmpty() {
		return Aff{}, ErrEmpty
	}
	return Aff{}, fmt.Errorf("%w: value of %s", ErrNoStaticBound, p)
}

func staticBound(p PwAff, constantsOnly bool, what string, violated func(c, a Aff) Constraint) (Aff, error) {
	if p.IsEmpty() {
		return Aff{}, ErrEmpty
	}
	for _, c := range candidates(p, constantsOnly) {
		ok := true
		for _, pc := range p.pieces {
			if !pc.Guard.restrict(violated(c, pc.Aff)).IsEmpty() {
				ok = false
				break
			}
		}
		if ok {
			return c, nil
		}
	}
	return Aff{}, fmt.Errorf("%w: %s of %s", ErrNoStaticBound, what, p)
}

// candidates lists the piece expressions, constants first, without
// duplicates.
func candidates(p PwAff, constantsOnly bool) []Aff {
	var consts, others []Aff
	seen := func(list []Aff, a Aff) bool {
		return slices.ContainsFunc(list, a.Equal)
	}
	for _, pc := range p.pieces {
		switch {
		case pc.Aff.IsConstant():
			if !seen(consts, pc.Aff) {
				consts = append(consts, pc.Aff)
			}
		case !constantsOnly:
			if !seen(others, pc.Aff) {
				others = append(others, pc.Aff)
			}
		}
	}
	return append(consts, others...)
}
