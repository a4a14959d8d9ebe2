package codegen

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/loopnest/internal/kernel"
	"github.com/roach88/loopnest/internal/presburger"
)

// Instance is one executed instruction with the values of its inames.
type Instance struct {
	Insn string
	Args []int64
}

func (in Instance) String() string { return fmt.Sprintf("%s%v", in.Insn, in.Args) }

// CompareInstances orders instances by instruction, then by arguments.
func CompareInstances(a, b Instance) int {
	if c := cmp.Compare(a.Insn, b.Insn); c != 0 {
		return c
	}
	return slices.Compare(a.Args, b.Args)
}

// Execute interprets g with the given bindings for parameters and hardware
// indices and returns the instruction instances in execution order.
func Execute(g Gen, env map[string]int64) ([]Instance, error) {
	local := maps.Clone(env)
	if local == nil {
		local = map[string]int64{}
	}
	var out []Instance
	err := execute(g, local, &out)
	return out, err
}

func execute(g Gen, env map[string]int64, out *[]Instance) error {
	switch n := g.(type) {
	case nil, Comment:
		return nil
	case Gens:
		for _, child := range n {
			if err := execute(child, env, out); err != nil {
				return err
			}
		}
		return nil
	case Block:
		return execute(n.Inner, maps.Clone(env), out)
	case Decl:
		v, err := n.Value.Aff.Eval(env)
		if err != nil {
			return err
		}
		env[n.Name] = v
		return nil
	case For:
		lo, err := n.Lower.Aff.Eval(env)
		if err != nil {
			return err
		}
		hi, err := n.Upper.Aff.Eval(env)
		if err != nil {
			return err
		}
		for v := lo; v <= hi; v++ {
			inner := maps.Clone(env)
			inner[n.Var] = v
			if err := execute(n.Body, inner, out); err != nil {
				return err
			}
		}
		return nil
	case If:
		for _, c := range n.Conds {
			ok, err := c.Constraint.Holds(env)
			if err != nil || !ok {
				return err
			}
		}
		return execute(n.Body, maps.Clone(env), out)
	case Call:
		in := Instance{Insn: n.Insn, Args: make([]int64, len(n.Args))}
		for i, a := range n.Args {
			v, err := a.Aff.Eval(env)
			if err != nil {
				return err
			}
			in.Args[i] = v
		}
		*out = append(*out, in)
		return nil
	}
	return fmt.Errorf("execute: unsupported node %T", g)
}

// ExecuteGrid runs g once for every combination of hardware indices of grid,
// evaluated with params, and concatenates the instances.
func ExecuteGrid(g Gen, params map[string]int64, grid kernel.Grid) ([]Instance, error) {
	type axis struct {
		name string
		size int64
	}
	var axes []axis
	for _, hw := range []struct {
		sizes []presburger.Aff
		kind  kernel.TagKind
	}{{grid.Global, kernel.GroupAxis}, {grid.Local, kernel.LocalAxis}} {
		for i, s := range hw.sizes {
			v, err := s.Eval(params)
			if err != nil {
				return nil, fmt.Errorf("grid size: %w", err)
			}
			axes = append(axes, axis{HardwareIndex(kernel.Tag{Kind: hw.kind, Axis: i}), v})
		}
	}

	var out []Instance
	env := maps.Clone(params)
	if env == nil {
		env = map[string]int64{}
	}
	var walk func(i int) error
	walk = func(i int) error {
		if i == len(axes) {
			got, err := Execute(g, env)
			out = append(out, got...)
			return err
		}
		for v := int64(0); v < axes[i].size; v++ {
			env[axes[i].name] = v
			if err := walk(i + 1); err != nil {
				return err
			}
		}
		return nil
	}
	return out, walk(0)
}

// EnumerateInstances lists every instance the kernel must execute by
// enumerating each instruction's domain directly. The result is sorted with
// CompareInstances.
func EnumerateInstances(k *kernel.Kernel, params map[string]int64) ([]Instance, error) {
	var out []Instance
	for _, insn := range k.Instructions() {
		dom, err := k.InamesDomain(insn.Inames...)
		if err != nil {
			return nil, err
		}
		dom = dom.ProjectOutExceptDims(insn.Inames...)
		dims := dom.Space().Dims()
		err = dom.Enumerate(params, func(point []int64) {
			in := Instance{Insn: insn.ID, Args: make([]int64, len(insn.Inames))}
			for i, name := range insn.Inames {
				in.Args[i] = point[slices.Index(dims, name)]
			}
			out = append(out, in)
		})
		if err != nil {
			return nil, fmt.Errorf("enumerate %q: %w", insn.ID, err)
		}
	}
	slices.SortFunc(out, CompareInstances)
	return out, nil
}
