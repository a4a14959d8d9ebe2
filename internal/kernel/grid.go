package kernel

import (
	"fmt"

	"github.com/roach88/loopnest/internal/presburger"
)

// GridSizes returns the hardware axis sizes. Snapshots produced by WithSlab
// report the sizes of the kernel they were derived from.
func (k *Kernel) GridSizes() (Grid, error) { return k.grid() }

// deriveGrid sizes every hardware axis by the largest static extent of the
// inames tagged with it. Axes below the highest used one default to 1.
func deriveGrid(k *Kernel) (Grid, error) {
	global := map[int]presburger.Aff{}
	local := map[int]presburger.Aff{}
	for _, iname := range k.AllInames() {
		tag := k.Tag(iname)
		var sizes map[int]presburger.Aff
		switch tag.Kind {
		case LocalAxis:
			sizes = local
		case GroupAxis:
			sizes = global
		default:
			continue
		}
		b, err := k.InameBounds(iname)
		if err != nil {
			return Grid{}, fmt.Errorf("%w: %v", ErrGridSize, err)
		}
		size, err := presburger.StaticMax(b.Size, false)
		if err != nil {
			return Grid{}, fmt.Errorf("%w: extent of %q: %v", ErrGridSize, iname, err)
		}
		if prev, ok := sizes[tag.Axis]; ok {
			if size, err = largerSize(prev, size); err != nil {
				return Grid{}, fmt.Errorf("%w: axis %s: %v", ErrGridSize, tag, err)
			}
		}
		sizes[tag.Axis] = size
	}
	return Grid{Global: dense(global), Local: dense(local)}, nil
}

func largerSize(a, b presburger.Aff) (presburger.Aff, error) {
	switch {
	case a.Equal(b):
		return a, nil
	case a.IsConstant() && b.IsConstant():
		if a.Constant() >= b.Constant() {
			return a, nil
		}
		return b, nil
	}
	return presburger.Aff{}, fmt.Errorf("sizes %s and %s are not comparable", a, b)
}

func dense(sizes map[int]presburger.Aff) []presburger.Aff {
	n := 0
	for axis := range sizes {
		n = max(n, axis+1)
	}
	out := make([]presburger.Aff, n)
	for i := range out {
		if s, ok := sizes[i]; ok {
			out[i] = s
		} else {
			out[i] = presburger.Const(1)
		}
	}
	return out
}
