package kernel

import (
	"fmt"
	"maps"
	"slices"

	set "github.com/hashicorp/go-set/v3"
)

// Validation error codes (E200-E299)
const (
	// Domain errors (E200-E209)
	ErrCodeDuplicateIname   = "E201" // iname is a set dimension of two domains
	ErrCodeAssumptionDims   = "E202" // assumptions must only constrain parameters
	ErrCodeUnknownIname     = "E203" // tag, increment or instruction names an unknown iname
	ErrCodeBadSlabIncrement = "E204" // negative slab increment
	ErrCodeBadIndexBits     = "E205" // index width other than 32 or 64

	// Instruction and schedule errors (E210-E219)
	ErrCodeDuplicateInsn      = "E210" // two instructions share an ID
	ErrCodeUnknownInsn        = "E211" // schedule runs an unknown instruction
	ErrCodeUnbalancedSchedule = "E212" // loops not properly nested or left open
	ErrCodeInsnOutsideLoop    = "E213" // instruction runs outside one of its inames
)

// ValidationError describes one problem with a kernel configuration.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a configuration and returns every problem found.
func Validate(cfg Config) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	inames := set.New[string](0)
	for i, d := range cfg.Domains {
		for _, dim := range d.Space().Dims() {
			if !inames.Insert(dim) {
				add(ErrCodeDuplicateIname, fmt.Sprintf("domains[%d]", i), "iname %q already has a home domain", dim)
			}
		}
	}
	if dims := cfg.Assumptions.Space().Dims(); len(dims) > 0 {
		add(ErrCodeAssumptionDims, "assumptions", "set dimensions %v are not allowed", dims)
	}

	for _, name := range sortedKeys(cfg.Tags) {
		if !inames.Contains(name) {
			add(ErrCodeUnknownIname, "tags."+name, "no domain defines iname %q", name)
		}
	}
	for _, name := range sortedKeys(cfg.SlabIncrements) {
		inc := cfg.SlabIncrements[name]
		if !inames.Contains(name) {
			add(ErrCodeUnknownIname, "slab_increments."+name, "no domain defines iname %q", name)
		}
		if inc.Lower < 0 || inc.Upper < 0 {
			add(ErrCodeBadSlabIncrement, "slab_increments."+name, "increments must be non-negative, got (%d, %d)", inc.Lower, inc.Upper)
		}
	}
	switch cfg.IndexBits {
	case 0, 32, 64:
	default:
		add(ErrCodeBadIndexBits, "index_bits", "must be 32 or 64, got %d", cfg.IndexBits)
	}

	insns := make(map[string]Instruction, len(cfg.Instructions))
	for i, insn := range cfg.Instructions {
		field := fmt.Sprintf("instructions[%d]", i)
		if _, dup := insns[insn.ID]; dup {
			add(ErrCodeDuplicateInsn, field, "duplicate instruction id %q", insn.ID)
		}
		insns[insn.ID] = insn
		for _, name := range insn.Inames {
			if !inames.Contains(name) {
				add(ErrCodeUnknownIname, field, "no domain defines iname %q", name)
			}
		}
	}

	var open []string
	for i, it := range cfg.Schedule {
		field := fmt.Sprintf("schedule[%d]", i)
		switch it.Kind {
		case EnterLoop:
			if !inames.Contains(it.Iname) {
				add(ErrCodeUnknownIname, field, "no domain defines iname %q", it.Iname)
			}
			if slices.Contains(open, it.Iname) {
				add(ErrCodeUnbalancedSchedule, field, "loop %q entered twice", it.Iname)
			}
			open = append(open, it.Iname)
		case LeaveLoop:
			if len(open) == 0 || open[len(open)-1] != it.Iname {
				add(ErrCodeUnbalancedSchedule, field, "leaving %q, innermost open loop is %v", it.Iname, open)
				continue
			}
			open = open[:len(open)-1]
		case RunInstruction:
			insn, ok := insns[it.Insn]
			if !ok {
				add(ErrCodeUnknownInsn, field, "unknown instruction %q", it.Insn)
				continue
			}
			for _, name := range insn.Inames {
				if !slices.Contains(open, name) {
					add(ErrCodeInsnOutsideLoop, field, "instruction %q runs outside loop %q", it.Insn, name)
				}
			}
		}
	}
	if len(open) > 0 {
		add(ErrCodeUnbalancedSchedule, "schedule", "loops %v are never left", open)
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
