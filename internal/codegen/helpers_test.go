package codegen

import (
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/loopnest/internal/kernel"
	"github.com/roach88/loopnest/internal/presburger"
)

// nest schedules insn inside loops over inames, outermost first.
func nest(insn string, inames ...string) []kernel.ScheduleItem {
	var items []kernel.ScheduleItem
	for _, name := range inames {
		items = append(items, kernel.ScheduleItem{Kind: kernel.EnterLoop, Iname: name})
	}
	items = append(items, kernel.ScheduleItem{Kind: kernel.RunInstruction, Insn: insn})
	for _, name := range slices.Backward(inames) {
		items = append(items, kernel.ScheduleItem{Kind: kernel.LeaveLoop, Iname: name})
	}
	return items
}

type kernelOpt func(*kernel.Config)

func withAssumptions(src string) kernelOpt {
	return func(c *kernel.Config) { c.Assumptions = presburger.MustParseSet(src) }
}

func withTag(iname, tag string) kernelOpt {
	return func(c *kernel.Config) {
		if c.Tags == nil {
			c.Tags = map[string]kernel.Tag{}
		}
		c.Tags[iname] = kernel.MustParseTag(tag)
	}
}

func withIncrement(iname string, lower, upper int64) kernelOpt {
	return func(c *kernel.Config) {
		if c.SlabIncrements == nil {
			c.SlabIncrements = map[string]kernel.SlabIncrement{}
		}
		c.SlabIncrements[iname] = kernel.SlabIncrement{Lower: lower, Upper: upper}
	}
}

// singleInsn builds a kernel with one instruction S over inames, scheduled
// in the given order.
func singleInsn(t *testing.T, domain string, inames []string, opts ...kernelOpt) *kernel.Kernel {
	t.Helper()
	cfg := kernel.Config{
		Name:         "test",
		Domains:      []presburger.Set{presburger.MustParseSet(domain)},
		Instructions: []kernel.Instruction{{ID: "S", Inames: inames}},
		Schedule:     nest("S", inames...),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	k, err := kernel.New(cfg)
	require.NoError(t, err)
	return k
}

func quietGenerator(opts ...GeneratorOption) *Generator {
	return NewGenerator(append([]GeneratorOption{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)...)
}

func generate(t *testing.T, k *kernel.Kernel) Gen {
	t.Helper()
	code, err := quietGenerator().Generate(k)
	require.NoError(t, err)
	return code
}

// requireCoverage checks that executing code over the launch grid runs
// exactly the instances of the kernel's domains for each parameter set.
func requireCoverage(t *testing.T, k *kernel.Kernel, code Gen, paramSets ...map[string]int64) {
	t.Helper()
	grid, err := k.GridSizes()
	require.NoError(t, err)
	for _, params := range paramSets {
		want, err := EnumerateInstances(k, params)
		require.NoError(t, err)
		got, err := ExecuteGrid(code, params, grid)
		require.NoError(t, err)
		slices.SortFunc(got, CompareInstances)
		require.Equal(t, want, got, "params %v", params)
	}
}
