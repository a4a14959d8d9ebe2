package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/loopnest/internal/codegen"
	"github.com/roach88/loopnest/internal/loader"
)

// BoundsResult is the JSON payload of the bounds command.
type BoundsResult struct {
	Iname string `json:"iname"`
	Tag   string `json:"tag"`

	// Exact bounds, piecewise in the parameters.
	Lower string `json:"lower"`
	Upper string `json:"upper"`
	Size  string `json:"size"`

	// The single affine bounds a loop over the whole domain would use.
	LoopLower string `json:"loop_lower"`
	LoopUpper string `json:"loop_upper"`

	Slabs []SlabInfo `json:"slabs"`
}

// SlabInfo describes one slab of the iname's range.
type SlabInfo struct {
	Name string `json:"name"`
	Set  string `json:"set"`
}

// NewBoundsCommand creates the bounds command.
func NewBoundsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bounds <kernel-file> <iname>",
		Short: "Show the bounds and slabs of an iname",
		Long: `Show what the lowerer knows about one iname: its exact bounds over
the kernel's domains, the affine loop bounds chosen from them and the
slabs its range is split into.

Examples:
  loopnest bounds kernel.yaml i
  loopnest bounds kernel.cue j --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBounds(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runBounds(opts *RootOptions, path, iname string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	k, err := loader.LoadKernel(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLoad, "failed to load kernel", err)
	}
	if !k.IsIname(iname) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "unknown iname",
			fmt.Errorf("%q is not an iname of kernel %q", iname, k.Name()))
	}

	exact, err := k.InameBounds(iname)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeLowering, "failed to compute bounds", err)
	}
	dom, err := k.InamesDomain(iname)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeLowering, "failed to compute bounds", err)
	}
	lower, upper, _, err := codegen.FindBoundsAndImplementedSlab(dom, iname, nil, k.Cache())
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeLowering, "failed to choose loop bounds", err)
	}
	slabs, err := codegen.SlabDecomposition(k, iname)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeLowering, "failed to split into slabs", err)
	}

	result := BoundsResult{
		Iname:     iname,
		Tag:       k.Tag(iname).String(),
		Lower:     exact.Lower.String(),
		Upper:     exact.Upper.String(),
		Size:      exact.Size.String(),
		LoopLower: lower.String(),
		LoopUpper: upper.String(),
		Slabs:     make([]SlabInfo, len(slabs)),
	}
	for i, s := range slabs {
		result.Slabs[i] = SlabInfo{Name: s.Name, Set: s.Set.String()}
	}
	return f.Success(result, formatBoundsText(result))
}

func formatBoundsText(r BoundsResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "iname: %s\n", r.Iname)
	fmt.Fprintf(&b, "tag:   %s\n", r.Tag)
	fmt.Fprintf(&b, "lower: %s\n", r.Lower)
	fmt.Fprintf(&b, "upper: %s\n", r.Upper)
	fmt.Fprintf(&b, "size:  %s\n", r.Size)
	fmt.Fprintf(&b, "loop:  %s <= %s <= %s\n", r.LoopLower, r.Iname, r.LoopUpper)
	if len(r.Slabs) == 0 {
		b.WriteString("slabs: none (empty domain)\n")
		return b.String()
	}
	b.WriteString("slabs:\n")
	for _, s := range r.Slabs {
		fmt.Fprintf(&b, "  %-8s %s\n", s.Name, s.Set)
	}
	return b.String()
}
