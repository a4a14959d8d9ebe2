package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/loopnest/internal/codegen"
	"github.com/roach88/loopnest/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database   string
	KernelHash string
	Action     string // optional - filter decisions to one action
}

// TraceResult is the JSON payload of the trace command for one run.
type TraceResult struct {
	Run       store.Run          `json:"run"`
	Decisions []codegen.Decision `json:"decisions"`
	Stats     TraceStats         `json:"stats"`
}

// TraceStats counts a run's decisions by action.
type TraceStats struct {
	Total    int            `json:"total"`
	ByAction map[string]int `json:"by_action"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Show recorded runs and their lowering decisions",
		Long: `Query a database written by "loopnest lower --db".

Without a run ID, lists the recorded runs in order. With a run ID, shows
the run and every decision the lowerer made: which loops became counted
loops, which were unrolled, which slabs were peeled or skipped as empty.

Examples:
  loopnest trace --db ./runs.db
  loopnest trace --db ./runs.db --kernel <hash>
  loopnest trace --db ./runs.db 0192f3a4-... --action assign
  loopnest trace --db ./runs.db 0192f3a4-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListRuns(opts, cmd)
			}
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.KernelHash, "kernel", "", "list only runs of the kernel with this fingerprint")
	cmd.Flags().StringVar(&opts.Action, "action", "", "show only decisions with this action")

	return cmd
}

func runListRuns(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.KernelHash != "" {
		runs, err = st.ReadRunsByKernel(ctx, opts.KernelHash)
	} else {
		runs, err = st.ReadRuns(ctx)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read runs", err)
	}
	if runs == nil {
		runs = []store.Run{}
	}

	var b strings.Builder
	if len(runs) == 0 {
		b.WriteString("No runs recorded.\n")
	}
	for _, r := range runs {
		status := r.Status
		if r.ErrorCode != "" {
			status += " " + r.ErrorCode
		}
		fmt.Fprintf(&b, "%4d  %s  %-12s %-7s %s\n", r.Seq, r.ID, r.Kernel, r.Target, status)
	}
	return f.Success(runs, b.String())
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "no such run", err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
	}
	decisions, err := st.ReadDecisions(ctx, runID)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read decisions", err)
	}

	result := TraceResult{
		Run:       run,
		Decisions: filterDecisions(decisions, opts.Action),
		Stats:     TraceStats{Total: len(decisions), ByAction: map[string]int{}},
	}
	for _, d := range decisions {
		result.Stats.ByAction[d.Action]++
	}

	var b strings.Builder
	formatTraceText(&b, result, opts.Verbose)
	return f.Success(result, b.String())
}

func filterDecisions(decisions []codegen.Decision, action string) []codegen.Decision {
	if action == "" {
		return decisions
	}
	out := []codegen.Decision{}
	for _, d := range decisions {
		if d.Action == action {
			out = append(out, d)
		}
	}
	return out
}

func formatTraceText(w io.Writer, r TraceResult, verbose bool) {
	fmt.Fprintf(w, "Run %s (#%d)\n", r.Run.ID, r.Run.Seq)
	fmt.Fprintf(w, "Kernel: %s [%s]\n", r.Run.Kernel, r.Run.KernelHash)
	fmt.Fprintf(w, "Target: %s\n", r.Run.Target)
	if r.Run.Status == store.StatusError {
		fmt.Fprintf(w, "Status: error %s\n", r.Run.ErrorCode)
		fmt.Fprintf(w, "  %s\n", r.Run.Message)
	} else {
		fmt.Fprintln(w, "Status: ok")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Decisions ===")
	if len(r.Decisions) == 0 {
		fmt.Fprintln(w, "  (no decisions)")
	}
	for i, d := range r.Decisions {
		fmt.Fprintf(w, "  [%d] %s %s %s", i+1, d.Iname, d.Tag, d.Action)
		if d.Slab != "" {
			fmt.Fprintf(w, " slab=%s", d.Slab)
		}
		if d.Lower != "" || d.Upper != "" {
			fmt.Fprintf(w, " [%s, %s]", d.Lower, d.Upper)
		}
		fmt.Fprintln(w)
	}

	if verbose && r.Run.Code != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Code ===")
		fmt.Fprint(w, r.Run.Code)
	}
}
