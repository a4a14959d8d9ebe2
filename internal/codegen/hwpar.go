package codegen

import (
	"errors"
	"fmt"

	"github.com/roach88/loopnest/internal/kernel"
	"github.com/roach88/loopnest/internal/presburger"
)

// HardwareSlab returns the range L <= iname < L + size that the launch grid
// executes for the hardware iname, where L is its lower bound and size the
// extent of its axis. It also returns L.
func HardwareSlab(k *kernel.Kernel, iname string) (presburger.Set, presburger.Aff, error) {
	tag := k.Tag(iname)
	grid, err := k.GridSizes()
	if err != nil {
		return presburger.Set{}, presburger.Aff{}, err
	}
	var sizes []presburger.Aff
	switch tag.Kind {
	case kernel.LocalAxis:
		sizes = grid.Local
	case kernel.GroupAxis:
		sizes = grid.Global
	default:
		return presburger.Set{}, presburger.Aff{}, NewUnknownHardwareTagError(iname, tag.String())
	}
	if tag.Axis >= len(sizes) {
		return presburger.Set{}, presburger.Aff{}, fmt.Errorf("%w: no size for axis %s of %q",
			kernel.ErrGridSize, tag, iname)
	}
	size := sizes[tag.Axis]

	b, err := k.InameBounds(iname)
	if err != nil {
		return presburger.Set{}, presburger.Aff{}, err
	}
	lower, err := presburger.StaticValue(b.Lower, false)
	if err != nil {
		if errors.Is(err, presburger.ErrNoStaticBound) {
			return presburger.Set{}, presburger.Aff{}, NewAmbiguousPiecewiseBoundError(iname, "lower", err)
		}
		return presburger.Set{}, presburger.Aff{}, fmt.Errorf("lower bound of %q: %w", iname, err)
	}

	x := presburger.Var(iname)
	space := presburger.NewSpace(append(lower.Names(), size.Names()...), []string{iname})
	slab := presburger.Universe(space).
		AddConstraint(presburger.Rel(x, presburger.GE, lower)...).
		AddConstraint(presburger.Rel(x, presburger.LT, lower.Add(size))...)
	return slab, lower, nil
}

// SetUpHWParallelLoop lowers a hardware iname. No loop is emitted: the
// iname is bound to its hardware index and the grid range is recorded as
// guaranteed. Slab decomposition still applies; each slab's body is guarded
// by the slab's constraints. Slabs that hold no iterations are skipped.
func (g *Generator) SetUpHWParallelLoop(k *kernel.Kernel, schedIndex int, st State) (Gen, error) {
	iname := k.Schedule()[schedIndex].Iname
	tag := k.Tag(iname)

	dom, err := k.InamesDomain(iname)
	if err != nil {
		return nil, err
	}
	if dom.IsEmpty() {
		g.record(Decision{Iname: iname, Tag: tag.String(), Action: ActionSkipEmpty})
		return Gens{}, nil
	}

	hwSlab, lower, err := HardwareSlab(k, iname)
	if err != nil {
		return nil, err
	}
	var others []string
	for _, o := range k.AllInames() {
		if o != iname && k.Tag(o).Key() == tag.Key() {
			others = append(others, o)
		}
	}

	slabs, err := SlabDecomposition(k, iname)
	if err != nil {
		return nil, err
	}
	if len(others) > 0 && len(slabs) > 1 {
		return nil, NewAmbiguousSharedHardwareAxisError(iname, tag.Key(), others)
	}

	st = st.Intersect(hwSlab).Assign(iname, presburger.Var(HardwareIndex(tag)).Add(lower))

	var out Gens
	for _, slab := range slabs {
		aligned, err := slab.Set.Align(dom.Space(), true)
		if err != nil {
			return nil, fmt.Errorf("%s slab for %q: %w", slab.Name, iname, err)
		}
		if dom.Intersect(aligned).IsEmpty() {
			g.record(Decision{Iname: iname, Tag: tag.String(), Action: ActionSkipEmpty, Slab: slab.Name})
			continue
		}
		inner, err := k.WithSlab(slab.Set, iname)
		if err != nil {
			return nil, err
		}
		body, err := g.BuildLoopNest(inner, schedIndex+1, st)
		if err != nil {
			return nil, err
		}
		g.record(Decision{
			Iname:  iname,
			Tag:    tag.String(),
			Action: ActionHardware,
			Slab:   slab.Name,
			Lower:  lower.String(),
		})
		if len(slabs) > 1 {
			out = append(out, Comment{fmt.Sprintf("%s slab for '%s'", slab.Name, iname)})
		}
		out = append(out, body)
	}
	return out, nil
}
