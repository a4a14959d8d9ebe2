package codegen

import (
	"fmt"
	"log/slog"

	"github.com/roach88/loopnest/internal/kernel"
)

// Decision records one choice made while lowering a loop.
type Decision struct {
	Iname  string `json:"iname"`
	Tag    string `json:"tag"`
	Action string `json:"action"`
	Slab   string `json:"slab,omitempty"`
	Lower  string `json:"lower,omitempty"`
	Upper  string `json:"upper,omitempty"`
}

// Decision actions.
const (
	ActionLoop      = "loop"
	ActionAssign    = "assign"
	ActionSkipEmpty = "skip-empty"
	ActionUnroll    = "unroll"
	ActionHardware  = "hardware"
)

// Generator lowers kernels into code. A Generator holds no per-kernel state
// and may be reused.
type Generator struct {
	logger   *slog.Logger
	renderer Renderer
	trace    func(Decision)
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = l
	}
}

// WithRenderer sets the expression renderer. Default: CRenderer.
func WithRenderer(r Renderer) GeneratorOption {
	return func(g *Generator) {
		g.renderer = r
	}
}

// WithTrace registers fn to receive every lowering decision in the order it
// is made.
func WithTrace(fn func(Decision)) GeneratorOption {
	return func(g *Generator) {
		g.trace = fn
	}
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{logger: slog.Default(), renderer: CRenderer{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate lowers the whole schedule of k. On error no code is returned.
func (g *Generator) Generate(k *kernel.Kernel) (Gen, error) {
	code, err := g.BuildLoopNest(k, 0, NewState(k.Assumptions(), g.renderer))
	if err != nil {
		g.logger.Error("lowering failed", "kernel", k.Name(), "error", err)
		return nil, fmt.Errorf("lower kernel %q: %w", k.Name(), err)
	}
	g.logger.Info("kernel lowered", "kernel", k.Name(), "items", len(k.Schedule()))
	return code, nil
}

// Generate lowers k with a default Generator.
func Generate(k *kernel.Kernel) (Gen, error) {
	return NewGenerator().Generate(k)
}

func (g *Generator) record(d Decision) {
	g.logger.Debug("lowering decision",
		"iname", d.Iname,
		"tag", d.Tag,
		"action", d.Action,
		"slab", d.Slab,
		"lower", d.Lower,
		"upper", d.Upper,
	)
	if g.trace != nil {
		g.trace(d)
	}
}
