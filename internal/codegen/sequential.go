package codegen

import (
	"fmt"

	"github.com/roach88/loopnest/internal/kernel"
)

// GenerateSequentialLoop lowers the loop entered at schedIndex into one
// counted loop per slab. A slab whose bounds coincide becomes a plain
// declaration of the iname followed by the body.
func (g *Generator) GenerateSequentialLoop(k *kernel.Kernel, schedIndex int, st State) (Gen, error) {
	iname := k.Schedule()[schedIndex].Iname
	slabs, err := SlabDecomposition(k, iname)
	if err != nil {
		return nil, err
	}
	dom, err := k.InamesDomain(iname)
	if err != nil {
		return nil, err
	}
	usable := k.UsableInames(schedIndex)

	var out Gens
	for _, slab := range slabs {
		aligned, err := slab.Set.Align(dom.Space(), true)
		if err != nil {
			return nil, fmt.Errorf("%s slab for %q: %w", slab.Name, iname, err)
		}
		domAndSlab := dom.Intersect(aligned)
		if domAndSlab.IsEmpty() {
			g.record(Decision{Iname: iname, Tag: "seq", Action: ActionSkipEmpty, Slab: slab.Name})
			continue
		}

		lower, upper, impl, err := FindBoundsAndImplementedSlab(domAndSlab, iname, usable, k.Cache())
		if err != nil {
			return nil, err
		}
		inner, err := k.WithSlab(slab.Set, iname)
		if err != nil {
			return nil, err
		}
		body, err := g.BuildLoopNest(inner, schedIndex+1, st.Intersect(impl))
		if err != nil {
			return nil, err
		}

		d := Decision{Iname: iname, Tag: "seq", Slab: slab.Name, Lower: lower.String(), Upper: upper.String()}
		var block Gen
		if upper.Sub(lower).IsZero() {
			d.Action = ActionAssign
			block = Block{Gens{
				Decl{Type: k.IndexCType(), Name: iname, Value: st.Expr(lower)},
				body,
			}}
		} else {
			d.Action = ActionLoop
			block = For{
				Type:  k.IndexCType(),
				Var:   iname,
				Lower: st.Expr(lower),
				Upper: st.Expr(upper),
				Body:  body,
			}
		}
		g.record(d)

		if len(slabs) > 1 {
			out = append(out, Comment{fmt.Sprintf("%s slab for '%s'", slab.Name, iname)})
		}
		out = append(out, block)
	}
	return out, nil
}
