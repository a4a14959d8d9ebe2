package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopnest/internal/codegen"
)

func TestLower_Text(t *testing.T) {
	kernel := writeFile(t, t.TempDir(), "copy.yaml", copyKernel)

	out, err := execute(t, "lower", kernel)
	require.NoError(t, err)
	assert.Equal(t, peeledCode, out)
}

func TestLower_OpenCL(t *testing.T) {
	dir := t.TempDir()
	kernel := writeFile(t, dir, "local.yaml", `name: local
domains:
  - "{ [i] : 0 <= i < 16 }"
instructions:
  - id: S
    inames: [i]
tags:
  i: l.0
`)

	out, err := execute(t, "lower", kernel, "--target", "opencl")
	require.NoError(t, err)
	assert.Equal(t, "S(get_local_id(0));\n", out)
}

func TestLower_OutputFile(t *testing.T) {
	dir := t.TempDir()
	kernel := writeFile(t, dir, "copy.yaml", copyKernel)
	target := filepath.Join(dir, "copy.c")

	out, err := execute(t, "lower", kernel, "-o", target)
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+target+"\n", out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, peeledCode, string(data))
}

func TestLower_JSONWithDatabase(t *testing.T) {
	dir := t.TempDir()
	kernel := writeFile(t, dir, "copy.yaml", copyKernel)
	db := filepath.Join(dir, "runs.db")

	out, err := execute(t, "--format", "json", "lower", kernel, "--db", db)
	require.NoError(t, err)

	var result LowerResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "copy", result.Kernel)
	assert.Equal(t, "c", result.Target)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, peeledCode, result.Code)
	require.Len(t, result.Decisions, 3)
	assert.Equal(t, codegen.ActionLoop, result.Decisions[0].Action)
	assert.Equal(t, codegen.SlabBulk, result.Decisions[0].Slab)
}

func TestLower_LoweringError(t *testing.T) {
	dir := t.TempDir()
	kernel := writeFile(t, dir, "unroll.yaml", unrollKernel)
	db := filepath.Join(dir, "runs.db")

	out, err := execute(t, "--format", "json", "lower", kernel, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, codegen.IsNonConstantTripCount(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NON_CONSTANT_TRIP_COUNT", resp.Error.Code)

	// The failed run is still recorded.
	out, err = execute(t, "--format", "json", "trace", "--db", db)
	require.NoError(t, err)
	var runs []map[string]any
	decodeResponse(t, out, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, "error", runs[0]["status"])
	assert.Equal(t, "NON_CONSTANT_TRIP_COUNT", runs[0]["error_code"])
}

func TestLower_CommandErrors(t *testing.T) {
	dir := t.TempDir()
	kernel := writeFile(t, dir, "copy.yaml", copyKernel)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing kernel", []string{"lower", filepath.Join(dir, "nope.yaml")}, "failed to load kernel"},
		{"unknown target", []string{"lower", kernel, "--target", "cuda"}, `unknown target "cuda"`},
		{"bad database", []string{"lower", kernel, "--db", "/nonexistent/dir/runs.db"}, "failed to open database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, out, "Error [")
		})
	}
}

func TestLower_MissingArgs(t *testing.T) {
	_, err := execute(t, "lower")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
