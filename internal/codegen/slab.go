package codegen

import (
	"fmt"

	"github.com/roach88/loopnest/internal/kernel"
	"github.com/roach88/loopnest/internal/presburger"
)

// Slab names.
const (
	SlabBulk    = "bulk"
	SlabInitial = "initial"
	SlabFinal   = "final"
)

// Slab is a named part of an iname's range. Its set has the iname as its
// only set dimension.
type Slab struct {
	Name string
	Set  presburger.Set
}

// SlabDecomposition splits the range of iname into the bulk and the peeled
// initial and final iterations configured by the kernel's slab increments.
// The bulk slab comes first. An empty domain yields no slabs; zero
// increments yield a single unconstrained bulk slab.
func SlabDecomposition(k *kernel.Kernel, iname string) ([]Slab, error) {
	dom, err := k.InamesDomain(iname)
	if err != nil {
		return nil, err
	}
	if dom.IsEmpty() {
		return nil, nil
	}
	b, err := k.InameBounds(iname)
	if err != nil {
		return nil, err
	}
	space := presburger.NewSpace(b.Lower.Domain().Space().Params(), []string{iname})

	inc := k.SlabIncrement(iname)
	if inc.IsZero() {
		return []Slab{{Name: SlabBulk, Set: presburger.Universe(space)}}, nil
	}

	lower, err := singlePiece(b.Lower, iname, "lower")
	if err != nil {
		return nil, err
	}
	upper, err := singlePiece(b.Upper, iname, "upper")
	if err != nil {
		return nil, err
	}

	x := presburger.Var(iname)
	universe := presburger.Universe(space)
	bulk := universe
	var peeled []Slab

	firstBulk := lower.AddConst(inc.Lower)
	if inc.Lower > 0 {
		bulk = bulk.AddConstraint(presburger.Rel(x, presburger.GE, firstBulk)...)
		peeled = append(peeled, Slab{
			Name: SlabInitial,
			Set:  universe.AddConstraint(presburger.Rel(x, presburger.LT, firstBulk)...),
		})
	}
	if inc.Upper > 0 {
		lastBulk := upper.AddConst(-inc.Upper)
		bulk = bulk.AddConstraint(presburger.Rel(x, presburger.LE, lastBulk)...)
		final := universe.AddConstraint(presburger.Rel(x, presburger.GT, lastBulk)...)

		// On ranges shorter than both increments the initial and final
		// slabs would overlap; the initial slab keeps those iterations.
		if inc.Lower > 0 {
			overlap := dom.ProjectOutExceptDims(iname).
				Intersect(final).
				Intersect(universe.AddConstraint(presburger.Rel(x, presburger.LT, firstBulk)...))
			if !overlap.IsEmpty() {
				final = final.AddConstraint(presburger.Rel(x, presburger.GE, firstBulk)...)
			}
		}
		peeled = append(peeled, Slab{Name: SlabFinal, Set: final})
	}
	return append([]Slab{{Name: SlabBulk, Set: bulk}}, peeled...), nil
}

func singlePiece(p presburger.PwAff, iname, which string) (presburger.Aff, error) {
	if p.NPiece() != 1 {
		return presburger.Aff{}, NewAmbiguousPiecewiseBoundError(iname, which,
			fmt.Errorf("%d pieces: %s", p.NPiece(), p))
	}
	return p.Pieces()[0].Aff, nil
}
