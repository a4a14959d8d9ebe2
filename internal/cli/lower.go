package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/loopnest/internal/codegen"
	"github.com/roach88/loopnest/internal/harness"
	"github.com/roach88/loopnest/internal/kernel"
	"github.com/roach88/loopnest/internal/loader"
	"github.com/roach88/loopnest/internal/store"
)

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	Database string
	Target   string
	Output   string
}

// LowerResult is the JSON payload of the lower command.
type LowerResult struct {
	Kernel    string             `json:"kernel"`
	Target    string             `json:"target"`
	RunID     string             `json:"run_id,omitempty"`
	Code      string             `json:"code"`
	Decisions []codegen.Decision `json:"decisions"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <kernel-file>",
		Short: "Generate code for a kernel",
		Long: `Lower a kernel file (YAML or CUE) to C or OpenCL code.

With --db the run and its lowering decisions are recorded in a SQLite
database, including runs that fail.

Exit codes:
  0 - Code generated
  1 - Lowering failed (e.g. NON_CONSTANT_TRIP_COUNT)
  2 - Command error (unreadable kernel, bad database path, etc.)

Examples:
  loopnest lower kernel.yaml
  loopnest lower kernel.cue --target opencl -o kernel.cl
  loopnest lower kernel.yaml --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Target, "target", "c", "output dialect (c|opencl)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write code to this file instead of stdout")

	return cmd
}

func runLower(opts *LowerOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := f.Logger()

	renderer, err := codegen.RendererFor(opts.Target)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLoad, "invalid target", err)
	}
	k, err := loader.LoadKernel(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLoad, "failed to load kernel", err)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer st.Close()
	}

	var decisions []codegen.Decision
	gen := codegen.NewGenerator(
		codegen.WithLogger(logger),
		codegen.WithRenderer(renderer),
		codegen.WithTrace(func(d codegen.Decision) { decisions = append(decisions, d) }),
	)
	code, lowerErr := gen.Generate(k)
	text := ""
	if lowerErr == nil {
		text = codegen.Render(code)
	}

	runID := ""
	if st != nil {
		rec, err := recordRun(ctx, st, k, opts.Target, text, decisions, lowerErr)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		runID = rec.ID
		logger.Debug("run recorded", "run", runID, "db", opts.Database)
	}

	if lowerErr != nil {
		return f.Fail(ExitFailure, ErrCodeLowering, "lowering failed", lowerErr)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0o644); err != nil {
			return f.Fail(ExitCommandError, ErrCodeLoad, "failed to write output", err)
		}
		logger.Debug("code written", "path", opts.Output)
	}

	result := LowerResult{
		Kernel:    k.Name(),
		Target:    opts.Target,
		RunID:     runID,
		Code:      text,
		Decisions: decisions,
	}
	msg := text
	if opts.Output != "" {
		msg = fmt.Sprintf("Wrote %s\n", opts.Output)
	}
	return f.Success(result, msg)
}

// recordRun stores the outcome of one lowering.
func recordRun(ctx context.Context, st *store.Store, k *kernel.Kernel, target, code string,
	decisions []codegen.Decision, lowerErr error) (store.Run, error) {
	hash, err := k.Fingerprint()
	if err != nil {
		return store.Run{}, err
	}
	rec := store.Run{
		Kernel:     k.Name(),
		KernelHash: hash,
		Target:     target,
		Status:     store.StatusOK,
		Code:       code,
	}
	if lowerErr != nil {
		rec.Status = store.StatusError
		rec.ErrorCode = harness.ErrorCode(lowerErr)
		rec.Message = lowerErr.Error()
	}
	return st.RecordRun(ctx, rec, decisions)
}
