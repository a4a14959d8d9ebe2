package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/loopnest/internal/codegen"
	"github.com/roach88/loopnest/internal/kernel"
	"github.com/roach88/loopnest/internal/loader"
	"github.com/roach88/loopnest/internal/store"
)

// Result is the outcome of one scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// RunID identifies the run in the scenario's store.
	RunID string `json:"run_id"`

	// Code is the rendered code; empty when lowering failed.
	Code string `json:"code"`

	// ErrorCode is the lowering error code; empty on success.
	ErrorCode string `json:"error_code,omitempty"`

	// Decisions is the lowering trace read back from the store.
	Decisions []codegen.Decision `json:"decisions"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	gen    codegen.Gen
	kernel *kernel.Kernel
}

// AddError records an assertion failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}

// Run lowers the scenario's kernel and evaluates its assertions.
//
// Each scenario records into a fresh in-memory database with sequential run
// IDs, so results are reproducible. A lowering error is not a Run error:
// it is part of the result and checked by the error assertion.
func Run(scenario *Scenario) (*Result, error) {
	return run(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func run(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:", store.WithIDGenerator(store.NewSequenceGenerator(scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	k, err := loader.LoadKernel(scenario.Kernel)
	if err != nil {
		return nil, fmt.Errorf("failed to load kernel: %w", err)
	}
	target := scenario.Target
	if target == "" {
		target = "c"
	}
	renderer, err := codegen.RendererFor(target)
	if err != nil {
		return nil, err
	}
	hash, err := k.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint kernel: %w", err)
	}

	var decisions []codegen.Decision
	gen := codegen.NewGenerator(
		codegen.WithLogger(logger),
		codegen.WithRenderer(renderer),
		codegen.WithTrace(func(d codegen.Decision) { decisions = append(decisions, d) }),
	)
	code, lowerErr := gen.Generate(k)

	rec := store.Run{Kernel: k.Name(), KernelHash: hash, Target: target, Status: store.StatusOK}
	if lowerErr != nil {
		rec.Status = store.StatusError
		rec.ErrorCode = ErrorCode(lowerErr)
		rec.Message = lowerErr.Error()
	} else {
		rec.Code = codegen.Render(code)
	}
	rec, err = st.RecordRun(ctx, rec, decisions)
	if err != nil {
		return nil, err
	}
	stored, err := st.ReadDecisions(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Pass:      true,
		RunID:     rec.ID,
		Code:      rec.Code,
		ErrorCode: rec.ErrorCode,
		Decisions: stored,
		gen:       code,
		kernel:    k,
	}
	for _, msg := range EvaluateAssertions(result, scenario) {
		result.AddError(msg)
	}
	logger.Info("scenario finished", "scenario", scenario.Name, "pass", result.Pass, "run", rec.ID)
	return result, nil
}

// ErrCodeLowering is recorded for failed runs whose error carries no
// lowering error code.
const ErrCodeLowering = "E_LOWERING"

// ErrorCode returns the lowering error code of err. A non-nil err without
// one maps to ErrCodeLowering; nil maps to "".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var le *codegen.LoweringError
	if errors.As(err, &le) {
		return string(le.Code)
	}
	return ErrCodeLowering
}

// Coverage interprets gen over the kernel's launch grid with params and
// compares the executed instances with the domain's instances. It returns a
// description of the first mismatch, or "" when they agree.
func Coverage(k *kernel.Kernel, gen codegen.Gen, params map[string]int64) (string, error) {
	grid, err := k.GridSizes()
	if err != nil {
		return "", err
	}
	got, err := codegen.ExecuteGrid(gen, params, grid)
	if err != nil {
		return "", fmt.Errorf("execute: %w", err)
	}
	slices.SortFunc(got, codegen.CompareInstances)
	want, err := codegen.EnumerateInstances(k, params)
	if err != nil {
		return "", err
	}

	for i := 0; i < len(got) || i < len(want); i++ {
		switch {
		case i >= len(got):
			return fmt.Sprintf("params %v: missing %s", params, want[i]), nil
		case i >= len(want):
			return fmt.Sprintf("params %v: extra %s", params, got[i]), nil
		case codegen.CompareInstances(got[i], want[i]) != 0:
			if i+1 < len(got) && codegen.CompareInstances(got[i], got[i+1]) == 0 {
				return fmt.Sprintf("params %v: %s executed twice", params, got[i]), nil
			}
			return fmt.Sprintf("params %v: got %s, want %s", params, got[i], want[i]), nil
		}
	}
	return "", nil
}
