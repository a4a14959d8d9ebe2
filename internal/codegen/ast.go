package codegen

import (
	"bytes"
	"strings"

	"github.com/roach88/loopnest/internal/presburger"
)

const indent = "    "

// Gen is a node of generated code. Nodes keep the affine values they were
// built from next to their rendered text so the code can be both printed
// and executed.
type Gen interface {
	Append(to []byte) []byte
}

// Render returns the source text of g.
func Render(g Gen) string {
	if g == nil {
		return ""
	}
	return string(g.Append(nil))
}

// Expr is a rendered affine expression.
type Expr struct {
	Aff  presburger.Aff
	Text string
}

// Cond is a rendered constraint.
type Cond struct {
	Constraint presburger.Constraint
	Text       string
}

// Gens is a sequence of nodes.
type Gens []Gen

func (gs Gens) Append(to []byte) []byte {
	for _, g := range gs {
		if g != nil {
			to = g.Append(to)
		}
	}
	return to
}

// Comment renders one "//" line per entry.
type Comment []string

func (c Comment) Append(to []byte) []byte {
	for _, line := range c {
		if line == "" {
			to = append(to, "//\n"...)
			continue
		}
		to = append(to, "// "+line+"\n"...)
	}
	return to
}

// Block is a braced scope.
type Block struct {
	Inner Gen
}

func (b Block) Append(to []byte) []byte {
	to = append(to, "{\n"...)
	to = appendIndented(to, b.Inner)
	return append(to, "}\n"...)
}

func appendIndented(to []byte, g Gen) []byte {
	if g == nil {
		return to
	}
	for _, line := range bytes.SplitAfter(g.Append(nil), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		if line[0] != '\n' {
			to = append(to, indent...)
		}
		to = append(to, line...)
	}
	return to
}

// Decl declares a constant loop variable, e.g. "int const i = 0;".
type Decl struct {
	Type  string
	Name  string
	Value Expr
}

func (d Decl) Append(to []byte) []byte {
	return append(to, d.Type+" const "+d.Name+" = "+d.Value.Text+";\n"...)
}

// For is a counted loop over Lower..Upper inclusive with step 1.
type For struct {
	Type  string
	Var   string
	Lower Expr
	Upper Expr
	Body  Gen
}

func (f For) Append(to []byte) []byte {
	to = append(to, "for ("+f.Type+" "+f.Var+" = "+f.Lower.Text+"; "+
		f.Var+" <= "+f.Upper.Text+"; ++"+f.Var+") "...)
	return Block{f.Body}.Append(to)
}

// If runs Body when every condition holds.
type If struct {
	Conds []Cond
	Body  Gen
}

func (i If) Append(to []byte) []byte {
	texts := make([]string, len(i.Conds))
	for k, c := range i.Conds {
		texts[k] = c.Text
	}
	to = append(to, "if ("+strings.Join(texts, " && ")+") "...)
	return Block{i.Body}.Append(to)
}

// Call runs one instance of an instruction. Args hold the values of the
// instruction's inames.
type Call struct {
	Insn string
	Args []Expr
}

func (c Call) Append(to []byte) []byte {
	texts := make([]string, len(c.Args))
	for k, a := range c.Args {
		texts[k] = a.Text
	}
	return append(to, c.Insn+"("+strings.Join(texts, ", ")+");\n"...)
}
