package codegen

import (
	"errors"
	"fmt"

	set "github.com/hashicorp/go-set/v3"

	"github.com/roach88/loopnest/internal/presburger"
)

// FindBoundsAndImplementedSlab computes one affine lower and upper bound of
// iname over domAndSlab and the box the emitted loop will iterate over.
//
// Inames in usable already have a value where the loop is emitted; they are
// treated as parameters for the bound queries, so bounds may refer to them.
// When an exact bound is piecewise, the piece that is <= (lower) or >=
// (upper) every other piece wherever it applies is chosen, constants first.
// The implemented slab is lower <= iname <= upper over domAndSlab's space.
func FindBoundsAndImplementedSlab(domAndSlab presburger.Set, iname string, usable *set.Set[string],
	cache *presburger.Cache) (lower, upper presburger.Aff, impl presburger.Set, err error) {
	dom := domAndSlab
	for _, d := range domAndSlab.Space().Dims() {
		if d != iname && usable != nil && usable.Contains(d) {
			dom = dom.MoveToParam(d)
		}
	}

	lowerPw, err := cache.DimMin(dom, iname)
	if err != nil {
		return lower, upper, impl, fmt.Errorf("lower bound of %q: %w", iname, err)
	}
	upperPw, err := cache.DimMax(dom, iname)
	if err != nil {
		return lower, upper, impl, fmt.Errorf("upper bound of %q: %w", iname, err)
	}

	if lower, err = presburger.StaticMin(lowerPw.Coalesce(), false); err != nil {
		return lower, upper, impl, boundError(iname, "lower", err)
	}
	if upper, err = presburger.StaticMax(upperPw.Coalesce(), false); err != nil {
		return lower, upper, impl, boundError(iname, "upper", err)
	}

	x := presburger.Var(iname)
	box := presburger.Universe(dom.Space()).
		AddConstraint(presburger.Rel(x, presburger.GE, lower)...).
		AddConstraint(presburger.Rel(x, presburger.LE, upper)...)
	impl, err = box.Align(domAndSlab.Space(), false)
	if err != nil {
		return lower, upper, impl, fmt.Errorf("implemented slab of %q: %w", iname, err)
	}
	return lower, upper, impl, nil
}

func boundError(iname, which string, err error) error {
	if errors.Is(err, presburger.ErrNoStaticBound) {
		return NewAmbiguousPiecewiseBoundError(iname, which, err)
	}
	return fmt.Errorf("%s bound of %q: %w", which, iname, err)
}
