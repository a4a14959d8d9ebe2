package presburger

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Aff is an integer affine expression: a linear combination of names plus a
// constant. The zero value is the constant 0.
type Aff struct {
	terms    map[string]int64 // never holds zero coefficients
	constant int64
}

// Const returns the constant expression c.
func Const(c int64) Aff { return Aff{constant: c} }

// Var returns the expression consisting of the single name.
func Var(name string) Aff { return Term(1, name) }

// Term returns coef*name.
func Term(coef int64, name string) Aff {
	if coef == 0 {
		return Aff{}
	}
	return Aff{terms: map[string]int64{name: coef}}
}

// Coeff returns the coefficient of name.
func (a Aff) Coeff(name string) int64 { return a.terms[name] }

// Constant returns the constant term.
func (a Aff) Constant() int64 { return a.constant }

// Names returns the names with a non-zero coefficient, sorted.
func (a Aff) Names() []string {
	return slices.Sorted(maps.Keys(a.terms))
}

// IsConstant reports whether a has no variable terms.
func (a Aff) IsConstant() bool { return len(a.terms) == 0 }

// IsZero reports whether a is the constant 0. This is the plain (syntactic)
// zero test; it does not consult any context.
func (a Aff) IsZero() bool { return a.IsConstant() && a.constant == 0 }

// Add returns a + b.
func (a Aff) Add(b Aff) Aff {
	out := Aff{constant: a.constant + b.constant}
	for n, c := range a.terms {
		out.addTerm(n, c)
	}
	for n, c := range b.terms {
		out.addTerm(n, c)
	}
	return out
}

// Sub returns a - b.
func (a Aff) Sub(b Aff) Aff { return a.Add(b.Neg()) }

// Neg returns -a.
func (a Aff) Neg() Aff { return a.Scale(-1) }

// Scale returns k*a.
func (a Aff) Scale(k int64) Aff {
	out := Aff{constant: a.constant * k}
	for n, c := range a.terms {
		out.addTerm(n, c*k)
	}
	return out
}

// AddConst returns a + k.
func (a Aff) AddConst(k int64) Aff {
	out := a.clone()
	out.constant += k
	return out
}

// Equal reports whether a and b are the same expression.
func (a Aff) Equal(b Aff) bool {
	return a.constant == b.constant && maps.Equal(a.terms, b.terms)
}

// Subst replaces name by v.
func (a Aff) Subst(name string, v Aff) Aff {
	c, ok := a.terms[name]
	if !ok {
		return a
	}
	out := a.clone()
	delete(out.terms, name)
	return out.Add(v.Scale(c))
}

// SubstAll replaces every name that has an entry in m.
func (a Aff) SubstAll(m map[string]Aff) Aff {
	out := Aff{constant: a.constant}
	for _, n := range a.Names() {
		if v, ok := m[n]; ok {
			out = out.Add(v.Scale(a.terms[n]))
			continue
		}
		out.addTerm(n, a.terms[n])
	}
	return out
}

// Eval evaluates a with the given name bindings.
func (a Aff) Eval(env map[string]int64) (int64, error) {
	v := a.constant
	for n, c := range a.terms {
		x, ok := env[n]
		if !ok {
			return 0, fmt.Errorf("evaluate %s: no value for %q", a, n)
		}
		v += c * x
	}
	return v, nil
}

// linear returns a without its constant.
func (a Aff) linear() Aff {
	out := a.clone()
	out.constant = 0
	return out
}

func (a Aff) clone() Aff {
	return Aff{terms: maps.Clone(a.terms), constant: a.constant}
}

func (a *Aff) addTerm(name string, c int64) {
	if c == 0 {
		return
	}
	if a.terms == nil {
		a.terms = make(map[string]int64)
	}
	a.terms[name] += c
	if a.terms[name] == 0 {
		delete(a.terms, name)
	}
}

// Format renders a with names passed through rename, terms in sorted name
// order followed by the constant, e.g. "n - 1" or "2*i + j".
func (a Aff) Format(rename func(string) string) string {
	var b strings.Builder
	for _, n := range a.Names() {
		c := a.terms[n]
		writeSigned(&b, c, b.Len() == 0)
		abs := c
		if abs < 0 {
			abs = -abs
		}
		if abs != 1 {
			b.WriteString(strconv.FormatInt(abs, 10) + "*")
		}
		b.WriteString(rename(n))
	}
	if b.Len() == 0 {
		return strconv.FormatInt(a.constant, 10)
	}
	if a.constant != 0 {
		writeSigned(&b, a.constant, false)
		abs := a.constant
		if abs < 0 {
			abs = -abs
		}
		b.WriteString(strconv.FormatInt(abs, 10))
	}
	return b.String()
}

func (a Aff) String() string {
	return a.Format(func(s string) string { return s })
}

func writeSigned(b *strings.Builder, c int64, first bool) {
	switch {
	case first && c < 0:
		b.WriteString("-")
	case !first && c < 0:
		b.WriteString(" - ")
	case !first:
		b.WriteString(" + ")
	}
}

// floorDiv and ceilDiv round toward negative and positive infinity; d > 0.
func floorDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 && n < 0 {
		q--
	}
	return q
}

func ceilDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 && n > 0 {
		q++
	}
	return q
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
