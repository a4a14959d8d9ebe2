package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/loopnest/internal/codegen"
)

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one lowering of a kernel.
type Run struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Kernel     string `json:"kernel"`
	KernelHash string `json:"kernel_hash"`
	Target     string `json:"target"`
	Status     string `json:"status"`
	ErrorCode  string `json:"error_code,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
}

// RecordRun stores run and its decisions in one transaction. The run's ID
// and Seq are assigned here; the stored run is returned.
func (s *Store) RecordRun(ctx context.Context, run Run, decisions []codegen.Decision) (Run, error) {
	if run.Status != StatusOK && run.Status != StatusError {
		return Run{}, fmt.Errorf("record run: invalid status %q", run.Status)
	}
	run.ID = s.runID.Generate()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, kernel, kernel_hash, target, status, error_code, message, code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Kernel,
		run.KernelHash,
		run.Target,
		run.Status,
		run.ErrorCode,
		run.Message,
		run.Code,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO decisions (run_id, seq, iname, tag, action, slab, lower, upper)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("record decisions: %w", err)
	}
	defer stmt.Close()
	for i, d := range decisions {
		if _, err := stmt.ExecContext(ctx, run.ID, i+1, d.Iname, d.Tag, d.Action, d.Slab, d.Lower, d.Upper); err != nil {
			return Run{}, fmt.Errorf("record decision %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

// ReadRuns returns every run, oldest first.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT id, seq, kernel, kernel_hash, target, status, error_code, message, code
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// ReadRunsByKernel returns the runs of kernels with the given fingerprint,
// oldest first.
func (s *Store) ReadRunsByKernel(ctx context.Context, kernelHash string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT id, seq, kernel, kernel_hash, target, status, error_code, message, code
		FROM runs
		WHERE kernel_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, kernelHash)
}

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, kernel, kernel_hash, target, status, error_code, message, code
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ReadDecisions returns the decisions of a run in the order they were made.
// Returns an empty slice (not nil) for a run without decisions.
func (s *Store) ReadDecisions(ctx context.Context, runID string) ([]codegen.Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT iname, tag, action, slab, lower, upper
		FROM decisions
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	decisions := []codegen.Decision{}
	for rows.Next() {
		var d codegen.Decision
		if err := rows.Scan(&d.Iname, &d.Tag, &d.Action, &d.Slab, &d.Lower, &d.Upper); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return decisions, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Seq, &r.Kernel, &r.KernelHash, &r.Target, &r.Status, &r.ErrorCode, &r.Message, &r.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}
