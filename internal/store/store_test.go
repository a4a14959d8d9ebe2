package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopnest/internal/codegen"
)

// createTestStore opens a store in a temp dir with sequential run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), WithIDGenerator(NewSequenceGenerator("")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestRecordRun_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.RecordRun(ctx, Run{Kernel: "copy", KernelHash: "h1", Target: "c", Status: StatusOK, Code: "S(0);\n"}, nil)
	require.NoError(t, err)
	second, err := s.RecordRun(ctx, Run{Kernel: "tri", KernelHash: "h2", Target: "c", Status: StatusError,
		ErrorCode: string(codegen.ErrCodeNonConstantTripCount), Message: "boom"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "run-1", first.ID)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, "run-2", second.ID)
	assert.Equal(t, int64(2), second.Seq)

	runs, err := s.ReadRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Run{first, second}, runs)

	got, err := s.ReadRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestRecordRun_DefaultIDsAreUUIDv7(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	run, err := s.RecordRun(context.Background(), Run{Kernel: "k", KernelHash: "h", Target: "c", Status: StatusOK}, nil)
	require.NoError(t, err)

	parsed, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestRecordRun_InvalidStatus(t *testing.T) {
	s := createTestStore(t)
	_, err := s.RecordRun(context.Background(), Run{Kernel: "k", Status: "maybe"}, nil)
	assert.ErrorContains(t, err, "invalid status")
}

func TestDecisions_RoundTripInOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	decisions := []codegen.Decision{
		{Iname: "i", Tag: "seq", Action: codegen.ActionLoop, Slab: codegen.SlabBulk, Lower: "1", Upper: "n - 2"},
		{Iname: "i", Tag: "seq", Action: codegen.ActionAssign, Slab: codegen.SlabInitial, Lower: "0", Upper: "0"},
		{Iname: "i", Tag: "seq", Action: codegen.ActionSkipEmpty, Slab: codegen.SlabFinal},
	}
	run, err := s.RecordRun(ctx, Run{Kernel: "copy", KernelHash: "h", Target: "c", Status: StatusOK}, decisions)
	require.NoError(t, err)

	got, err := s.ReadDecisions(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, decisions, got)

	none, err := s.ReadDecisions(ctx, "run-404")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestReadRunsByKernel(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, h := range []string{"a", "b", "a"} {
		_, err := s.RecordRun(ctx, Run{Kernel: "k", KernelHash: h, Target: "c", Status: StatusOK}, nil)
		require.NoError(t, err)
	}

	runs, err := s.ReadRunsByKernel(ctx, "a")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "run-3", runs[1].ID)

	runs, err = s.ReadRunsByKernel(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSequenceGenerator(t *testing.T) {
	g := NewSequenceGenerator("x")
	assert.Equal(t, "x-1", g.Generate())
	assert.Equal(t, "x-2", g.Generate())
}
