package loader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopnest/internal/kernel"
)

func TestLoadFile_YAML(t *testing.T) {
	spec, err := LoadFile("testdata/copy.yaml")
	require.NoError(t, err)

	assert.Equal(t, "copy", spec.Name)
	assert.Equal(t, []string{"[n] -> { [i] : 0 <= i < n }"}, spec.Domains)
	assert.Equal(t, []ScheduleSpec{{Enter: "i"}, {Run: "S"}, {Leave: "i"}}, spec.Schedule)
	assert.Equal(t, []int64{1, 1}, spec.SlabIncrements["i"])

	k, err := spec.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"i"}, k.AllInames())
	assert.Equal(t, []string{"n"}, k.Params())
	assert.Equal(t, kernel.SlabIncrement{Lower: 1, Upper: 1}, k.SlabIncrement("i"))
	assert.Len(t, k.Schedule(), 3)
}

func TestLoadFile_CUE(t *testing.T) {
	k, err := LoadKernel("testdata/triangle.cue")
	require.NoError(t, err)

	assert.Equal(t, "triangle", k.Name())
	assert.Equal(t, "long", k.IndexCType())
	assert.Equal(t, kernel.Unroll, k.Tag("j").Kind)
	assert.Equal(t, []kernel.ScheduleItem{
		{Kind: kernel.EnterLoop, Iname: "i"},
		{Kind: kernel.EnterLoop, Iname: "j"},
		{Kind: kernel.RunInstruction, Insn: "S"},
		{Kind: kernel.LeaveLoop, Iname: "j"},
		{Kind: kernel.LeaveLoop, Iname: "i"},
	}, k.Schedule())

	h, err := k.HomeDomainIndex("j")
	require.NoError(t, err)
	assert.Equal(t, 1, h)
}

func TestLoadFile_FixedGrid(t *testing.T) {
	k, err := LoadKernel("testdata/hardware.yaml")
	require.NoError(t, err)

	g, err := k.GridSizes()
	require.NoError(t, err)
	require.Len(t, g.Global, 1)
	require.Len(t, g.Local, 1)
	assert.Equal(t, "n", g.Global[0].String())
	assert.Equal(t, "16", g.Local[0].String())
	assert.Equal(t, kernel.Tag{Kind: kernel.GroupAxis}, k.Tag("g"))
}

func TestLoadFile_ReportsEveryBadField(t *testing.T) {
	spec, err := LoadFile("testdata/invalid.yaml")
	require.NoError(t, err)

	_, err = spec.Build()
	require.Error(t, err)

	var fields []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var se *SpecError
		require.True(t, errors.As(e, &se), e.Error())
		fields = append(fields, se.Field)
	}
	assert.Equal(t, []string{"domains[0]", "schedule[0]", "slab_increments.i", "tags.i"}, fields)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile("testdata/missing.yaml")
	assert.Error(t, err)

	_, err = LoadFile("testdata/copy.txt")
	assert.ErrorContains(t, err, "unsupported kernel file extension")
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("name: x\ndomain: []\n"), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain")
}

func TestParse_CUEError(t *testing.T) {
	_, err := Parse([]byte("name: \"x\"\nname: \"y\"\n"), FormatCUE)
	require.Error(t, err)

	var se *SpecError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "cue", se.Field)
}

func TestParse_NormalizesIdentifiers(t *testing.T) {
	// The domain spells the iname with a combining accent, the instruction
	// with the precomposed letter.
	src := "name: nfc\n" +
		"domains: [\"{ [e\u0301] : 0 <= e\u0301 < 4 }\"]\n" +
		"instructions: [{id: S, inames: [\"\u00e9\"]}]\n"

	spec, err := Parse([]byte(src), FormatYAML)
	require.NoError(t, err)

	k, err := spec.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"\u00e9"}, k.AllInames())
}

func TestParse_KernelValidationErrorsSurface(t *testing.T) {
	src := "name: bad\n" +
		"domains: [\"{ [i] : 0 <= i < 4 }\"]\n" +
		"instructions: [{id: S, inames: [i]}]\n" +
		"schedule: [{run: S}]\n"

	spec, err := Parse([]byte(src), FormatYAML)
	require.NoError(t, err)

	_, err = spec.Build()
	require.Error(t, err)

	var ve kernel.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, kernel.ErrCodeInsnOutsideLoop, ve.Code)
}
