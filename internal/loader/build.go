package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/loopnest/internal/kernel"
	"github.com/roach88/loopnest/internal/presburger"
)

// Config converts the spec into a kernel configuration. Every malformed
// field is reported; the errors are joined.
func (s *KernelSpec) Config() (kernel.Config, error) {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, specErrorf(field, format, args...))
	}

	cfg := kernel.Config{
		Name:      s.Name,
		IndexBits: s.IndexBits,
	}
	if s.Name == "" {
		fail("name", "name is required")
	}
	if len(s.Domains) == 0 {
		fail("domains", "at least one domain is required")
	}
	for i, src := range s.Domains {
		d, err := presburger.ParseSet(src)
		if err != nil {
			fail(fmt.Sprintf("domains[%d]", i), "%v", err)
			continue
		}
		cfg.Domains = append(cfg.Domains, d)
	}
	if s.Assumptions != "" {
		a, err := presburger.ParseSet(s.Assumptions)
		if err != nil {
			fail("assumptions", "%v", err)
		}
		cfg.Assumptions = a
	}

	if len(s.Instructions) == 0 {
		fail("instructions", "at least one instruction is required")
	}
	for i, in := range s.Instructions {
		if in.ID == "" {
			fail(fmt.Sprintf("instructions[%d].id", i), "id is required")
		}
		cfg.Instructions = append(cfg.Instructions, kernel.Instruction{ID: in.ID, Inames: slices.Clone(in.Inames)})
	}

	if len(s.Schedule) == 0 {
		cfg.Schedule = defaultSchedule(s.Instructions)
	}
	for i, it := range s.Schedule {
		field := fmt.Sprintf("schedule[%d]", i)
		var set int
		for _, v := range []string{it.Enter, it.Leave, it.Run} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			fail(field, "exactly one of enter, leave or run must be set")
			continue
		}
		switch {
		case it.Enter != "":
			cfg.Schedule = append(cfg.Schedule, kernel.ScheduleItem{Kind: kernel.EnterLoop, Iname: it.Enter})
		case it.Leave != "":
			cfg.Schedule = append(cfg.Schedule, kernel.ScheduleItem{Kind: kernel.LeaveLoop, Iname: it.Leave})
		default:
			cfg.Schedule = append(cfg.Schedule, kernel.ScheduleItem{Kind: kernel.RunInstruction, Insn: it.Run})
		}
	}

	if len(s.Tags) > 0 {
		cfg.Tags = make(map[string]kernel.Tag, len(s.Tags))
	}
	for iname, src := range s.Tags {
		tag, err := kernel.ParseTag(src)
		if err != nil {
			fail("tags."+iname, "%v", err)
			continue
		}
		cfg.Tags[iname] = tag
	}

	if len(s.SlabIncrements) > 0 {
		cfg.SlabIncrements = make(map[string]kernel.SlabIncrement, len(s.SlabIncrements))
	}
	for iname, inc := range s.SlabIncrements {
		if len(inc) != 2 {
			fail("slab_increments."+iname, "want [lower, upper], got %d values", len(inc))
			continue
		}
		cfg.SlabIncrements[iname] = kernel.SlabIncrement{Lower: inc[0], Upper: inc[1]}
	}

	if s.Grid != nil {
		grid := &kernel.Grid{}
		parse := func(field string, srcs []string) []presburger.Aff {
			var out []presburger.Aff
			for i, src := range srcs {
				a, err := presburger.ParseAff(src)
				if err != nil {
					fail(fmt.Sprintf("%s[%d]", field, i), "%v", err)
					continue
				}
				out = append(out, a)
			}
			return out
		}
		grid.Global = parse("grid.global", s.Grid.Global)
		grid.Local = parse("grid.local", s.Grid.Local)
		cfg.Grid = grid
	}

	if len(errs) > 0 {
		sortSpecErrors(errs)
		return kernel.Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// Build converts the spec and constructs the kernel.
func (s *KernelSpec) Build() (*kernel.Kernel, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	return kernel.New(cfg)
}

// LoadKernel reads a kernel file and builds the kernel.
func LoadKernel(path string) (*kernel.Kernel, error) {
	spec, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	k, err := spec.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("kernel loaded", "path", path, "kernel", k.Name(), "inames", k.AllInames())
	return k, nil
}

// defaultSchedule nests each instruction in its own loops, inames in listed
// order.
func defaultSchedule(insns []InstructionSpec) []kernel.ScheduleItem {
	var items []kernel.ScheduleItem
	for _, in := range insns {
		for _, iname := range in.Inames {
			items = append(items, kernel.ScheduleItem{Kind: kernel.EnterLoop, Iname: iname})
		}
		items = append(items, kernel.ScheduleItem{Kind: kernel.RunInstruction, Insn: in.ID})
		for _, iname := range slices.Backward(in.Inames) {
			items = append(items, kernel.ScheduleItem{Kind: kernel.LeaveLoop, Iname: iname})
		}
	}
	return items
}

// sortSpecErrors orders map-derived errors by field so output is stable.
func sortSpecErrors(errs []error) {
	slices.SortStableFunc(errs, func(a, b error) int {
		var sa, sb *SpecError
		if !errors.As(a, &sa) || !errors.As(b, &sb) {
			return 0
		}
		switch {
		case sa.Field < sb.Field:
			return -1
		case sa.Field > sb.Field:
			return 1
		}
		return 0
	})
}
