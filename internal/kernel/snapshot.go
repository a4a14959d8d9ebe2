package kernel

import (
	"fmt"
	"slices"

	"github.com/roach88/loopnest/internal/presburger"
)

// WithSlab returns a snapshot whose home domain of iname is intersected with
// slab. The receiver is left untouched and every other field, including the
// grid sizes and the bounds cache, is shared.
func (k *Kernel) WithSlab(slab presburger.Set, iname string) (*Kernel, error) {
	h, err := k.HomeDomainIndex(iname)
	if err != nil {
		return nil, err
	}
	home := k.domains[h]
	aligned, err := slab.Align(home.Space(), true)
	if err != nil {
		return nil, fmt.Errorf("align slab for %q: %w", iname, err)
	}

	out := *k
	out.domains = slices.Clone(k.domains)
	out.domains[h] = home.Intersect(aligned)
	return &out, nil
}
