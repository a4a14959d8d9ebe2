package kernel

import (
	"fmt"

	"github.com/roach88/loopnest/internal/presburger"
)

// Bounds are the exact bounds of one iname as piecewise functions of the
// parameters. Size is Upper - Lower + 1.
type Bounds struct {
	Lower presburger.PwAff
	Upper presburger.PwAff
	Size  presburger.PwAff
}

// InameBounds computes the bounds of iname over its domain with every other
// iname projected out.
func (k *Kernel) InameBounds(iname string) (Bounds, error) {
	dom, err := k.InamesDomain(iname)
	if err != nil {
		return Bounds{}, err
	}
	dom = dom.ProjectOutExceptDims(iname)

	lower, err := k.cache.DimMin(dom, iname)
	if err != nil {
		return Bounds{}, fmt.Errorf("lower bound of %q: %w", iname, err)
	}
	upper, err := k.cache.DimMax(dom, iname)
	if err != nil {
		return Bounds{}, fmt.Errorf("upper bound of %q: %w", iname, err)
	}
	lower, upper = lower.Coalesce(), upper.Coalesce()
	return Bounds{
		Lower: lower,
		Upper: upper,
		Size:  upper.Sub(lower).AddConst(1).Coalesce(),
	}, nil
}
