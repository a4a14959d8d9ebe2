// Command loopnest lowers polyhedral loop-nest kernels to C or OpenCL.
//
// Usage:
//
//	loopnest lower <kernel-file> [--target c|opencl] [-o file] [--db runs.db]
//	loopnest bounds <kernel-file> <iname>
//	loopnest verify <scenario-path>... [--update] [--golden-dir dir]
//	loopnest trace --db runs.db [run-id]
//
// Global flags --format json|text and --verbose apply to every command.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/loopnest/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Usage errors from flag and argument parsing are not reported by
		// the commands themselves.
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
