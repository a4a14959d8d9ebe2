package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopnest/internal/codegen"
	"github.com/roach88/loopnest/internal/store"
)

// recordedDB lowers the copy kernel twice into a fresh database and returns
// the database path and the run IDs.
func recordedDB(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	kernel := writeFile(t, dir, "copy.yaml", copyKernel)
	db := filepath.Join(dir, "runs.db")

	var ids []string
	for _, target := range []string{"c", "opencl"} {
		out, err := execute(t, "--format", "json", "lower", kernel, "--db", db, "--target", target)
		require.NoError(t, err)
		var result LowerResult
		decodeResponse(t, out, &result)
		ids = append(ids, result.RunID)
	}
	return db, ids
}

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, err := execute(t, "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceNonExistentDatabase(t *testing.T) {
	_, err := execute(t, "trace", "--db", "/nonexistent/path/test.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestTraceListRuns(t *testing.T) {
	db, ids := recordedDB(t)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, ids[0])
	assert.Contains(t, out, ids[1])
	assert.Contains(t, out, "opencl")

	out, err = execute(t, "--format", "json", "trace", "--db", db)
	require.NoError(t, err)
	var runs []store.Run
	decodeResponse(t, out, &runs)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, ids[0], runs[0].ID)
	assert.Equal(t, runs[0].KernelHash, runs[1].KernelHash)

	out, err = execute(t, "--format", "json", "trace", "--db", db, "--kernel", "nope")
	require.NoError(t, err)
	runs = nil
	decodeResponse(t, out, &runs)
	assert.Empty(t, runs)
}

func TestTraceEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}

func TestTraceRun(t *testing.T) {
	db, ids := recordedDB(t)

	out, err := execute(t, "--format", "json", "trace", "--db", db, ids[0])
	require.NoError(t, err)
	var result TraceResult
	decodeResponse(t, out, &result)
	assert.Equal(t, ids[0], result.Run.ID)
	assert.Equal(t, "copy", result.Run.Kernel)
	assert.Equal(t, peeledCode, result.Run.Code)
	require.Len(t, result.Decisions, 3)
	assert.Equal(t, 3, result.Stats.Total)
	assert.Equal(t, map[string]int{codegen.ActionLoop: 1, codegen.ActionAssign: 2}, result.Stats.ByAction)

	out, err = execute(t, "trace", "--db", db, ids[0], "--action", codegen.ActionAssign)
	require.NoError(t, err)
	assert.Contains(t, out, "Status: ok")
	assert.Contains(t, out, "=== Decisions ===")
	assert.Contains(t, out, "i seq assign slab=initial")
	assert.Contains(t, out, "i seq assign slab=final")
	assert.NotContains(t, out, " loop ")
	assert.NotContains(t, out, "=== Code ===")

	out, err = execute(t, "-v", "trace", "--db", db, ids[1])
	require.NoError(t, err)
	assert.Contains(t, out, "=== Code ===")
	assert.Contains(t, out, "for (int i = 1; i <= n - 2; ++i) {")
}

func TestTraceRunNotFound(t *testing.T) {
	db, _ := recordedDB(t)

	out, err := execute(t, "trace", "--db", db, "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrRunNotFound)
	assert.Contains(t, out, "Error [E_NOT_FOUND]")
}

func TestTraceStoredDecisionsMatchLowering(t *testing.T) {
	db, ids := recordedDB(t)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	stored, err := st.ReadDecisions(context.Background(), ids[0])
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, codegen.Decision{
		Iname: "i", Tag: "seq", Action: codegen.ActionLoop, Slab: codegen.SlabBulk, Lower: "1", Upper: "n - 2",
	}, stored[0])
}
