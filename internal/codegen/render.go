package codegen

import (
	"fmt"
	"strings"

	"github.com/roach88/loopnest/internal/kernel"
	"github.com/roach88/loopnest/internal/presburger"
)

// HardwareIndex returns the pseudo-name under which the hardware index of a
// local or group axis appears in expressions, e.g. "lid(0)" or "gid(1)".
func HardwareIndex(tag kernel.Tag) string {
	if tag.Kind == kernel.GroupAxis {
		return fmt.Sprintf("gid(%d)", tag.Axis)
	}
	return fmt.Sprintf("lid(%d)", tag.Axis)
}

// Renderer turns affine expressions and conditions into target source text.
type Renderer interface {
	Expr(a presburger.Aff) string
	Cond(c presburger.Constraint) string
}

// CRenderer renders plain C with hardware indices left as lid(N)/gid(N).
type CRenderer struct{}

func (CRenderer) Expr(a presburger.Aff) string       { return a.String() }
func (CRenderer) Cond(c presburger.Constraint) string { return c.String() }

// OpenCLRenderer renders hardware indices as OpenCL work-item functions.
type OpenCLRenderer struct{}

func (OpenCLRenderer) Expr(a presburger.Aff) string       { return a.Format(openCLName) }
func (OpenCLRenderer) Cond(c presburger.Constraint) string { return c.Format(openCLName) }

func openCLName(name string) string {
	switch {
	case strings.HasPrefix(name, "lid("):
		return "get_local_id" + name[len("lid"):]
	case strings.HasPrefix(name, "gid("):
		return "get_group_id" + name[len("gid"):]
	}
	return name
}

// RendererFor maps a target name to its renderer.
func RendererFor(target string) (Renderer, error) {
	switch target {
	case "", "c":
		return CRenderer{}, nil
	case "opencl":
		return OpenCLRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown target %q", target)
}
