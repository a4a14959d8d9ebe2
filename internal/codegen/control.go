package codegen

import (
	"fmt"

	"github.com/roach88/loopnest/internal/kernel"
	"github.com/roach88/loopnest/internal/presburger"
)

// BuildLoopNest emits the schedule items starting at schedIndex up to the
// LeaveLoop that closes the enclosing loop, or to the end of the schedule.
// Loops are dispatched on their iname's tag.
func (g *Generator) BuildLoopNest(k *kernel.Kernel, schedIndex int, st State) (Gen, error) {
	sched := k.Schedule()
	var out Gens
	for i := schedIndex; i < len(sched); {
		it := sched[i]
		switch it.Kind {
		case kernel.LeaveLoop:
			return out, nil
		case kernel.EnterLoop:
			block, err := g.lowerLoop(k, i, st)
			if err != nil {
				return nil, err
			}
			out = append(out, block)
			i = matchingLeave(sched, i) + 1
		case kernel.RunInstruction:
			block, err := g.instruction(k, it.Insn, st)
			if err != nil {
				return nil, err
			}
			if block != nil {
				out = append(out, block)
			}
			i++
		default:
			return nil, fmt.Errorf("schedule[%d]: unknown item %s", i, it.Kind)
		}
	}
	return out, nil
}

func (g *Generator) lowerLoop(k *kernel.Kernel, schedIndex int, st State) (Gen, error) {
	iname := k.Schedule()[schedIndex].Iname
	switch tag := k.Tag(iname); {
	case tag.Kind == kernel.Sequential:
		return g.GenerateSequentialLoop(k, schedIndex, st)
	case tag.Kind == kernel.Unroll:
		return g.GenerateUnrollLoop(k, schedIndex, st)
	case tag.IsHardware():
		return g.SetUpHWParallelLoop(k, schedIndex, st)
	default:
		return nil, fmt.Errorf("iname %q: unsupported tag %s", iname, tag)
	}
}

func matchingLeave(sched []kernel.ScheduleItem, enter int) int {
	iname := sched[enter].Iname
	for i := enter + 1; i < len(sched); i++ {
		if sched[i].Kind == kernel.LeaveLoop && sched[i].Iname == iname {
			return i
		}
	}
	return len(sched) - 1
}

// instruction emits one call, guarded by the constraints of the
// instruction's domain that the enclosing code does not already guarantee.
// A nil result means the instruction can never run here.
func (g *Generator) instruction(k *kernel.Kernel, id string, st State) (Gen, error) {
	insn, ok := k.Instruction(id)
	if !ok {
		return nil, fmt.Errorf("unknown instruction %q", id)
	}
	dom, err := k.InamesDomain(insn.Inames...)
	if err != nil {
		return nil, fmt.Errorf("instruction %q: %w", id, err)
	}
	dom = dom.ProjectOutExceptDims(insn.Inames...)
	if dom.IsEmpty() {
		return nil, nil
	}

	var conds []Cond
	for _, c := range dom.Constraints() {
		if st.Implemented().Implies(c) {
			continue
		}
		cond := st.Cond(c)
		switch {
		case cond.Constraint.IsTautology():
			continue
		case cond.Constraint.IsContradiction():
			return nil, nil
		}
		conds = append(conds, cond)
	}

	call := Call{Insn: insn.ID}
	for _, name := range insn.Inames {
		call.Args = append(call.Args, st.Expr(presburger.Var(name)))
	}
	if len(conds) == 0 {
		return call, nil
	}
	return If{Conds: conds, Body: call}, nil
}
