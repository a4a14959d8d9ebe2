package codegen

import (
	"errors"
	"fmt"

	"github.com/roach88/loopnest/internal/kernel"
	"github.com/roach88/loopnest/internal/presburger"
)

// GenerateUnrollLoop emits one copy of the body per value of the iname
// entered at schedIndex, in ascending order. The trip count must be a
// constant.
func (g *Generator) GenerateUnrollLoop(k *kernel.Kernel, schedIndex int, st State) (Gen, error) {
	iname := k.Schedule()[schedIndex].Iname
	b, err := k.InameBounds(iname)
	if err != nil {
		return nil, err
	}
	if b.Size.IsEmpty() {
		g.record(Decision{Iname: iname, Tag: "unr", Action: ActionSkipEmpty})
		return Gens{}, nil
	}

	length, err := presburger.StaticMax(b.Size, true)
	if err != nil {
		return nil, NewNonConstantTripCountError(iname, err)
	}
	lower, err := presburger.StaticValue(b.Lower, false)
	if err != nil {
		if errors.Is(err, presburger.ErrNoStaticBound) {
			return nil, NewAmbiguousPiecewiseBoundError(iname, "lower", err)
		}
		return nil, fmt.Errorf("lower bound of %q: %w", iname, err)
	}
	g.record(Decision{
		Iname:  iname,
		Tag:    "unr",
		Action: ActionUnroll,
		Lower:  lower.String(),
		Upper:  lower.AddConst(length.Constant() - 1).String(),
	})

	var out Gens
	for i := int64(0); i < length.Constant(); i++ {
		body, err := g.BuildLoopNest(k, schedIndex+1, st.Fix(iname, lower.AddConst(i)))
		if err != nil {
			return nil, err
		}
		out = append(out, body)
	}
	return out, nil
}
