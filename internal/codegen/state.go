package codegen

import (
	"maps"

	"github.com/roach88/loopnest/internal/presburger"
)

// State is threaded down the recursion of the lowerers. It is a value: every
// method returns a new State and leaves the receiver untouched, so sibling
// slabs and unrolled copies never observe each other's changes.
type State struct {
	implemented presburger.Set
	subst       map[string]presburger.Aff
	renderer    Renderer
}

// NewState starts from the constraints that are known to hold without any
// check, typically the kernel assumptions.
func NewState(implemented presburger.Set, r Renderer) State {
	if r == nil {
		r = CRenderer{}
	}
	return State{implemented: implemented, renderer: r}
}

// Implemented returns the constraints the enclosing code already guarantees.
func (s State) Implemented() presburger.Set { return s.implemented }

// Renderer returns the expression renderer.
func (s State) Renderer() Renderer { return s.renderer }

// Intersect records impl as guaranteed by the enclosing code.
func (s State) Intersect(impl presburger.Set) State {
	out := s
	out.implemented = s.implemented.Intersect(impl)
	return out
}

// Fix binds iname to the value v, both for rendering and as a guaranteed
// equality. v is expressed over parameters and outer inames.
func (s State) Fix(iname string, v presburger.Aff) State {
	space := presburger.NewSpace(nil, append([]string{iname}, v.Names()...))
	eq := presburger.Universe(space).AddConstraint(presburger.Rel(presburger.Var(iname), presburger.EQ, v)...)
	out := s.Assign(iname, v)
	out.implemented = s.implemented.Intersect(eq)
	return out
}

// Assign makes every later occurrence of iname render as v. Nothing is
// recorded as guaranteed.
func (s State) Assign(iname string, v presburger.Aff) State {
	out := s
	out.subst = maps.Clone(s.subst)
	if out.subst == nil {
		out.subst = map[string]presburger.Aff{}
	}
	out.subst[iname] = v.SubstAll(s.subst)
	return out
}

// Value returns what iname renders as.
func (s State) Value(iname string) presburger.Aff {
	if v, ok := s.subst[iname]; ok {
		return v
	}
	return presburger.Var(iname)
}

// Expr applies the bindings to a and renders it.
func (s State) Expr(a presburger.Aff) Expr {
	a = a.SubstAll(s.subst)
	return Expr{Aff: a, Text: s.renderer.Expr(a)}
}

// Cond applies the bindings to c and renders it.
func (s State) Cond(c presburger.Constraint) Cond {
	c = c.Subst(s.subst)
	return Cond{Constraint: c, Text: s.renderer.Cond(c)}
}
