package presburger

import (
	"fmt"
	"slices"
	"strings"
)

// Set is a conjunction of affine integer constraints over a Space.
type Set struct {
	space Space
	cons  []Constraint
	empty bool
}

// Universe returns the unconstrained set over space.
func Universe(space Space) Set {
	return Set{space: space}
}

// EmptySet returns the empty set over space.
func EmptySet(space Space) Set {
	return Set{space: space, empty: true}
}

// Space returns the set's space.
func (s Set) Space() Space { return s.space }

// Constraints returns the simplified constraint list.
func (s Set) Constraints() []Constraint { return slices.Clone(s.cons) }

// AddConstraint returns s restricted by cs. Every name in cs must belong to
// s's space; mentioning another name is a programming error and panics.
func (s Set) AddConstraint(cs ...Constraint) Set {
	for _, c := range cs {
		for _, n := range c.expr.Names() {
			if !s.space.Has(n) {
				panic(fmt.Sprintf("presburger: constraint %s mentions %q outside %s", c, n, s.space))
			}
		}
	}
	return s.with(s.space, append(slices.Clone(s.cons), cs...))
}

func (s Set) with(space Space, cons []Constraint) Set {
	if s.empty {
		return EmptySet(space)
	}
	cons, bad := simplify(cons)
	if bad {
		return EmptySet(space)
	}
	return Set{space: space, cons: cons}
}

// Intersect returns s ∧ o over the union of both spaces. Names only o knows
// are appended in o's role.
func (s Set) Intersect(o Set) Set {
	space := s.space.union(o.space)
	if o.empty {
		return EmptySet(space)
	}
	return s.with(space, append(slices.Clone(s.cons), o.cons...))
}

// Align reorders s into target's space, taking target's roles for shared
// names. Names of s missing from target are an error unless objBiggerOK, in
// which case they are kept after target's names.
func (s Set) Align(target Space, objBiggerOK bool) (Set, error) {
	var extra []string
	for _, n := range s.space.Names() {
		if !target.Has(n) {
			extra = append(extra, n)
		}
	}
	if len(extra) > 0 && !objBiggerOK {
		return Set{}, fmt.Errorf("%w: %v not in %s", ErrSpaceMismatch, extra, target)
	}
	space := target.union(s.space)
	out := s
	out.space = space
	return out, nil
}

// MoveToParam turns a set dimension into a parameter.
func (s Set) MoveToParam(name string) Set {
	out := s
	out.space = s.space.MoveToParam(name)
	return out
}

// MoveToSet turns a parameter into a set dimension.
func (s Set) MoveToSet(name string) Set {
	out := s
	out.space = s.space.MoveToSet(name)
	return out
}

// IsEmpty reports whether s has no integer points for any parameter value.
// Elimination is rational, so a set may be reported non-empty when it only
// has rational points.
func (s Set) IsEmpty() bool {
	if s.empty {
		return true
	}
	_, bad := eliminateAll(s.cons, s.space.Names())
	return bad
}

// ProjectOut existentially quantifies names and drops them from the space.
func (s Set) ProjectOut(names ...string) Set {
	if s.empty {
		return EmptySet(s.space.without(names...))
	}
	cons, bad := eliminateAll(s.cons, names)
	if bad {
		return EmptySet(s.space.without(names...))
	}
	return Set{space: s.space.without(names...), cons: cons}
}

// ProjectOutExceptDims projects out every set dimension not in keep.
// Parameters are kept.
func (s Set) ProjectOutExceptDims(keep ...string) Set {
	var drop []string
	for _, d := range s.space.dims {
		if !slices.Contains(keep, d) {
			drop = append(drop, d)
		}
	}
	return s.ProjectOut(drop...)
}

// FixValue substitutes a value for name and drops it from the space.
func (s Set) FixValue(name string, v int64) Set {
	m := map[string]Aff{name: Const(v)}
	cons := make([]Constraint, len(s.cons))
	for i, c := range s.cons {
		cons[i] = c.Subst(m)
	}
	return s.with(s.space.without(name), cons)
}

// restrict adds c, widening the space with any names c introduces.
func (s Set) restrict(c Constraint) Set {
	return s.with(s.space.withDims(c.expr.Names()...), append(slices.Clone(s.cons), c))
}

// Implies reports whether every point of s satisfies c, i.e. s ∧ ¬c is empty.
func (s Set) Implies(c Constraint) bool {
	return s.restrict(c.Negate()).IsEmpty()
}

// IsSubset reports whether every constraint of o holds on s.
func (s Set) IsSubset(o Set) bool {
	if s.IsEmpty() {
		return true
	}
	if o.empty {
		return false
	}
	for _, c := range o.cons {
		if !s.Implies(c) {
			return false
		}
	}
	return true
}

// Contains reports whether the point satisfies every constraint.
func (s Set) Contains(env map[string]int64) (bool, error) {
	if s.empty {
		return false, nil
	}
	for _, c := range s.cons {
		ok, err := c.Holds(env)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (s Set) String() string {
	var b strings.Builder
	if len(s.space.params) > 0 {
		b.WriteString("[" + strings.Join(s.space.params, ", ") + "] -> ")
	}
	b.WriteString("{ ")
	if len(s.space.dims) > 0 {
		b.WriteString("[" + strings.Join(s.space.dims, ", ") + "] ")
	}
	switch {
	case s.empty:
		b.WriteString(": false ")
	case len(s.cons) > 0:
		parts := make([]string, len(s.cons))
		for i, c := range s.cons {
			parts[i] = c.String()
		}
		b.WriteString(": " + strings.Join(parts, " and ") + " ")
	}
	b.WriteString("}")
	return b.String()
}
