package presburger

import (
	"fmt"
	"strconv"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsLetter(r) || r == '_':
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_' || rs[j] == '\'') {
				j++
			}
			toks = append(toks, token{tokIdent, string(rs[i:j]), i})
			i = j
		case unicode.IsDigit(r):
			j := i + 1
			for j < len(rs) && unicode.IsDigit(rs[j]) {
				j++
			}
			toks = append(toks, token{tokInt, string(rs[i:j]), i})
			i = j
		default:
			if i+1 < len(rs) {
				two := string(rs[i : i+2])
				switch two {
				case "->", "<=", ">=", "==":
					toks = append(toks, token{tokPunct, two, i})
					i += 2
					continue
				}
			}
			switch r {
			case '[', ']', '{', '}', '(', ')', ',', ':', '+', '-', '*', '<', '>', '=':
				toks = append(toks, token{tokPunct, string(r), i})
				i++
			default:
				return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, r, i)
			}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

type parser struct {
	toks  []token
	pos   int
	space *Space
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(text string) bool {
	if t := p.peek(); t.kind != tokEOF && t.text == text && t.kind != tokInt {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if !p.accept(text) {
		t := p.peek()
		return fmt.Errorf("%w: expected %q at offset %d, got %q", ErrSyntax, text, t.pos, t.text)
	}
	return nil
}

// ParseSet parses an isl-like set description such as
// "[n] -> { [i] : 0 <= i < n }". Comparisons may be chained; conjuncts are
// separated by "and".
func ParseSet(src string) (Set, error) {
	toks, err := lex(src)
	if err != nil {
		return Set{}, err
	}
	p := &parser{toks: toks}

	var params []string
	if p.peek().text == "[" {
		if params, err = p.nameList(); err != nil {
			return Set{}, err
		}
		if err := p.expect("->"); err != nil {
			return Set{}, err
		}
	}
	if err := p.expect("{"); err != nil {
		return Set{}, err
	}
	var dims []string
	if p.peek().text == "[" {
		if dims, err = p.nameList(); err != nil {
			return Set{}, err
		}
	}
	space := NewSpace(params, dims)
	p.space = &space
	set := Universe(space)
	if p.accept(":") {
		for {
			cs, err := p.chain()
			if err != nil {
				return Set{}, err
			}
			set = set.AddConstraint(cs...)
			if !p.accept("and") {
				break
			}
		}
	}
	if err := p.expect("}"); err != nil {
		return Set{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Set{}, fmt.Errorf("%w: trailing %q at offset %d", ErrSyntax, t.text, t.pos)
	}
	return set, nil
}

// MustParseSet is ParseSet for trusted literals; it panics on error.
func MustParseSet(src string) Set {
	s, err := ParseSet(src)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseAff parses a free-standing affine expression such as "n - 1".
func ParseAff(src string) (Aff, error) {
	toks, err := lex(src)
	if err != nil {
		return Aff{}, err
	}
	p := &parser{toks: toks}
	a, err := p.expr()
	if err != nil {
		return Aff{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Aff{}, fmt.Errorf("%w: trailing %q at offset %d", ErrSyntax, t.text, t.pos)
	}
	return a, nil
}

func (p *parser) nameList() ([]string, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	var names []string
	if p.accept("]") {
		return names, nil
	}
	for {
		t := p.next()
		if t.kind != tokIdent {
			return nil, fmt.Errorf("%w: expected name at offset %d, got %q", ErrSyntax, t.pos, t.text)
		}
		names = append(names, t.text)
		if p.accept("]") {
			return names, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

// chain parses "e1 op e2 op e3 ..." into the conjunction of adjacent pairs.
func (p *parser) chain() ([]Constraint, error) {
	lhs, err := p.expr()
	if err != nil {
		return nil, err
	}
	var out []Constraint
	for {
		t := p.peek()
		if t.kind != tokPunct {
			break
		}
		op, err := ParseOp(t.text)
		if err != nil {
			break
		}
		p.next()
		rhs, err := p.expr()
		if err != nil {
			return nil, err
		}
		out = append(out, Rel(lhs, op, rhs)...)
		lhs = rhs
	}
	if len(out) == 0 {
		t := p.peek()
		return nil, fmt.Errorf("%w: expected comparison at offset %d", ErrSyntax, t.pos)
	}
	return out, nil
}

func (p *parser) expr() (Aff, error) {
	neg := p.accept("-")
	a, err := p.term()
	if err != nil {
		return Aff{}, err
	}
	if neg {
		a = a.Neg()
	}
	for {
		switch {
		case p.accept("+"):
			b, err := p.term()
			if err != nil {
				return Aff{}, err
			}
			a = a.Add(b)
		case p.accept("-"):
			b, err := p.term()
			if err != nil {
				return Aff{}, err
			}
			a = a.Sub(b)
		default:
			return a, nil
		}
	}
}

// term parses a product in which at most one factor is non-constant. An
// integer directly followed by a name or parenthesis ("2i") multiplies.
func (p *parser) term() (Aff, error) {
	a, err := p.factor()
	if err != nil {
		return Aff{}, err
	}
	for {
		t := p.peek()
		implicit := a.IsConstant() && (t.kind == tokIdent && t.text != "and" || t.text == "(")
		if !implicit && !p.accept("*") {
			return a, nil
		}
		b, err := p.factor()
		if err != nil {
			return Aff{}, err
		}
		switch {
		case a.IsConstant():
			a = b.Scale(a.constant)
		case b.IsConstant():
			a = a.Scale(b.constant)
		default:
			return Aff{}, fmt.Errorf("%w: non-affine product at offset %d", ErrSyntax, t.pos)
		}
	}
}

func (p *parser) factor() (Aff, error) {
	t := p.next()
	switch {
	case t.kind == tokInt:
		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return Aff{}, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return Const(v), nil
	case t.kind == tokIdent && t.text != "and":
		if p.space != nil && !p.space.Has(t.text) {
			return Aff{}, fmt.Errorf("%w: %q at offset %d", ErrUnknownName, t.text, t.pos)
		}
		return Var(t.text), nil
	case t.text == "(":
		a, err := p.expr()
		if err != nil {
			return Aff{}, err
		}
		return a, p.expect(")")
	case t.text == "-":
		a, err := p.factor()
		return a.Neg(), err
	}
	return Aff{}, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, t.text, t.pos)
}
