package kernel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopnest/internal/presburger"
)

func triangleConfig() Config {
	return Config{
		Name: "triangle",
		Domains: []presburger.Set{
			presburger.MustParseSet("[n] -> { [i] : 0 <= i < n }"),
			presburger.MustParseSet("[i] -> { [j] : 0 <= j <= i }"),
		},
		Assumptions:  presburger.MustParseSet("[n] -> { : n >= 1 }"),
		Instructions: []Instruction{{ID: "S", Inames: []string{"i", "j"}}},
		Schedule: []ScheduleItem{
			{Kind: EnterLoop, Iname: "i"},
			{Kind: EnterLoop, Iname: "j"},
			{Kind: RunInstruction, Insn: "S"},
			{Kind: LeaveLoop, Iname: "j"},
			{Kind: LeaveLoop, Iname: "i"},
		},
	}
}

func hardwareConfig() Config {
	return Config{
		Name: "hw",
		Domains: []presburger.Set{
			presburger.MustParseSet("[n] -> { [g, l] : 0 <= g < n and 0 <= l < 16 }"),
		},
		Instructions: []Instruction{{ID: "S", Inames: []string{"g", "l"}}},
		Schedule: []ScheduleItem{
			{Kind: EnterLoop, Iname: "g"},
			{Kind: EnterLoop, Iname: "l"},
			{Kind: RunInstruction, Insn: "S"},
			{Kind: LeaveLoop, Iname: "l"},
			{Kind: LeaveLoop, Iname: "g"},
		},
		Tags: map[string]Tag{"g": MustParseTag("g.0"), "l": MustParseTag("l.0")},
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		in   string
		want Tag
	}{
		{"", Tag{Kind: Sequential}},
		{"seq", Tag{Kind: Sequential}},
		{"unr", Tag{Kind: Unroll}},
		{"l.0", Tag{Kind: LocalAxis, Axis: 0}},
		{"g.2", Tag{Kind: GroupAxis, Axis: 2}},
		{"l.auto", Tag{Kind: AutoLocalAxis}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTag(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"l.x", "x.0", "g.-1", "vec"} {
		_, err := ParseTag(bad)
		assert.ErrorIs(t, err, ErrUnknownTag, bad)
	}
}

func TestTag_Key(t *testing.T) {
	assert.Equal(t, "l.1", MustParseTag("l.1").Key())
	assert.Equal(t, "g.0", MustParseTag("g.0").Key())
	assert.Empty(t, MustParseTag("unr").Key())
	assert.True(t, MustParseTag("l.auto").IsHardware())
	assert.False(t, MustParseTag("seq").IsHardware())
}

func TestNew_Validation(t *testing.T) {
	cfg := triangleConfig()
	cfg.Domains = append(cfg.Domains, presburger.MustParseSet("{ [j] : 0 <= j < 4 }"))
	cfg.Tags = map[string]Tag{"k": {Kind: Unroll}}
	cfg.SlabIncrements = map[string]SlabIncrement{"i": {Lower: -1}}
	cfg.Schedule = cfg.Schedule[:4]

	_, err := New(cfg)
	require.Error(t, err)

	codes := map[string]bool{}
	for _, ve := range Validate(cfg) {
		codes[ve.Code] = true
	}
	assert.True(t, codes[ErrCodeDuplicateIname])
	assert.True(t, codes[ErrCodeUnknownIname])
	assert.True(t, codes[ErrCodeBadSlabIncrement])
	assert.True(t, codes[ErrCodeUnbalancedSchedule])

	var ve ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestValidate_UnknownInamesInKeyOrder(t *testing.T) {
	cfg := triangleConfig()
	cfg.Tags = map[string]Tag{"z": {Kind: Unroll}, "a": {Kind: Unroll}, "m": {Kind: Unroll}}
	cfg.SlabIncrements = map[string]SlabIncrement{"y": {}, "b": {}}

	var fields []string
	for _, ve := range Validate(cfg) {
		fields = append(fields, ve.Field)
	}
	assert.Equal(t, []string{"tags.a", "tags.m", "tags.z", "slab_increments.b", "slab_increments.y"}, fields)
}

func TestValidate_InstructionOutsideLoop(t *testing.T) {
	cfg := triangleConfig()
	cfg.Schedule = []ScheduleItem{
		{Kind: EnterLoop, Iname: "i"},
		{Kind: RunInstruction, Insn: "S"},
		{Kind: LeaveLoop, Iname: "i"},
	}
	errs := Validate(cfg)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeInsnOutsideLoop, errs[0].Code)
}

func TestKernel_Accessors(t *testing.T) {
	k, err := New(triangleConfig())
	require.NoError(t, err)

	assert.Equal(t, "triangle", k.Name())
	assert.Equal(t, []string{"i", "j"}, k.AllInames())
	assert.Equal(t, []string{"n"}, k.Params())
	assert.Equal(t, 32, k.IndexBits())
	assert.Equal(t, "int", k.IndexCType())
	assert.Equal(t, Tag{Kind: Sequential}, k.Tag("j"))
	assert.True(t, k.SlabIncrement("i").IsZero())

	insn, ok := k.Instruction("S")
	require.True(t, ok)
	assert.Equal(t, []string{"i", "j"}, insn.Inames)

	cfg := triangleConfig()
	cfg.IndexBits = 64
	k64, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "long", k64.IndexCType())
}

func TestKernel_HomeDomainIndex(t *testing.T) {
	k, err := New(triangleConfig())
	require.NoError(t, err)

	h, err := k.HomeDomainIndex("j")
	require.NoError(t, err)
	assert.Equal(t, 1, h)

	_, err = k.HomeDomainIndex("n")
	assert.ErrorIs(t, err, ErrUnknownIname)
}

func TestKernel_InamesDomain(t *testing.T) {
	k, err := New(triangleConfig())
	require.NoError(t, err)

	dom, err := k.InamesDomain("j")
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, dom.Space().Params())
	assert.Equal(t, []string{"i", "j"}, dom.Space().Dims())
	assert.True(t, dom.Implies(presburger.Rel(presburger.Var("n"), presburger.GE, presburger.Const(1))[0]))

	dom, err = k.InamesDomain("i")
	require.NoError(t, err)
	assert.Equal(t, []string{"i"}, dom.Space().Dims())
}

func TestKernel_InameBounds(t *testing.T) {
	k, err := New(triangleConfig())
	require.NoError(t, err)

	b, err := k.InameBounds("j")
	require.NoError(t, err)
	assert.Equal(t, "0", b.Lower.String())
	assert.Equal(t, "n - 1", b.Upper.String())
	assert.Equal(t, "n", b.Size.String())
}

func TestKernel_ActiveAndUsableInames(t *testing.T) {
	k, err := New(triangleConfig())
	require.NoError(t, err)

	assert.Empty(t, k.ActiveInames(0))
	assert.Equal(t, []string{"i"}, k.ActiveInames(1))
	assert.Equal(t, []string{"i", "j"}, k.ActiveInames(2))
	assert.Equal(t, []string{"i"}, k.ActiveInames(4))

	usable := k.UsableInames(1)
	assert.True(t, usable.Contains("i"))
	assert.False(t, usable.Contains("j"))
	assert.Equal(t, 2, k.UsableInames(2).Size())
}

func TestKernel_WithSlab(t *testing.T) {
	k, err := New(triangleConfig())
	require.NoError(t, err)

	slab := presburger.MustParseSet("[n] -> { [j] : j >= 1 }")
	narrowed, err := k.WithSlab(slab, "j")
	require.NoError(t, err)

	jAtLeastOne := presburger.Rel(presburger.Var("j"), presburger.GE, presburger.Const(1))[0]
	assert.True(t, narrowed.Domains()[1].Implies(jAtLeastOne))
	assert.False(t, k.Domains()[1].Implies(jAtLeastOne), "receiver must not change")
	assert.Equal(t, k.Domains()[0].String(), narrowed.Domains()[0].String())
	assert.Same(t, k.Cache(), narrowed.Cache())

	before, err := k.Fingerprint()
	require.NoError(t, err)
	after, err := narrowed.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	_, err = k.WithSlab(slab, "zz")
	assert.ErrorIs(t, err, ErrUnknownIname)
}

func TestKernel_GridSizesDerived(t *testing.T) {
	k, err := New(hardwareConfig())
	require.NoError(t, err)

	g, err := k.GridSizes()
	require.NoError(t, err)
	require.Len(t, g.Local, 1)
	require.Len(t, g.Global, 1)
	assert.Equal(t, "16", g.Local[0].String())
	assert.Equal(t, "n", g.Global[0].String())

	// Narrowing the domain must not shrink the launch grid.
	narrowed, err := k.WithSlab(presburger.MustParseSet("{ [l] : l <= 3 }"), "l")
	require.NoError(t, err)
	g2, err := narrowed.GridSizes()
	require.NoError(t, err)
	assert.Equal(t, "16", g2.Local[0].String())

	b, err := narrowed.InameBounds("l")
	require.NoError(t, err)
	assert.Equal(t, "3", b.Upper.String())
}

func TestKernel_GridSizesFixed(t *testing.T) {
	cfg := hardwareConfig()
	cfg.Grid = &Grid{
		Global: []presburger.Aff{presburger.Const(8)},
		Local:  []presburger.Aff{presburger.Const(32), presburger.Const(2)},
	}
	k, err := New(cfg)
	require.NoError(t, err)

	g, err := k.GridSizes()
	require.NoError(t, err)
	assert.Equal(t, "8", g.Global[0].String())
	assert.Len(t, g.Local, 2)
}

func TestKernel_GridSizesFillMissingAxes(t *testing.T) {
	cfg := hardwareConfig()
	cfg.Tags = map[string]Tag{"l": MustParseTag("l.1")}
	k, err := New(cfg)
	require.NoError(t, err)

	g, err := k.GridSizes()
	require.NoError(t, err)
	require.Len(t, g.Local, 2)
	assert.Equal(t, "1", g.Local[0].String())
	assert.Equal(t, "16", g.Local[1].String())
	assert.Empty(t, g.Global)
}

func TestKernel_FingerprintStable(t *testing.T) {
	a, err := New(triangleConfig())
	require.NoError(t, err)
	b, err := New(triangleConfig())
	require.NoError(t, err)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	assert.Len(t, fa, 64)
}
