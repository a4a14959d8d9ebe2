package presburger

import "fmt"

// Constraint is the integer inequality Expr() >= 0.
type Constraint struct {
	expr Aff
}

// Ineq returns the constraint a >= 0, normalized: coefficients are divided
// by their gcd and the constant is rounded down, which is exact over the
// integers.
func Ineq(a Aff) Constraint {
	var g int64
	for _, c := range a.terms {
		g = gcd(g, c)
	}
	if g <= 1 {
		return Constraint{expr: a}
	}
	out := Aff{constant: floorDiv(a.constant, g)}
	for n, c := range a.terms {
		out.addTerm(n, c/g)
	}
	return Constraint{expr: out}
}

// Op is a comparison operator for Rel.
type Op int

const (
	GE Op = iota
	GT
	LE
	LT
	EQ
)

func (o Op) String() string {
	return [...]string{">=", ">", "<=", "<", "="}[o]
}

// ParseOp maps a comparison token to an Op.
func ParseOp(s string) (Op, error) {
	switch s {
	case ">=":
		return GE, nil
	case ">":
		return GT, nil
	case "<=":
		return LE, nil
	case "<":
		return LT, nil
	case "=", "==":
		return EQ, nil
	}
	return 0, fmt.Errorf("%w: comparison %q", ErrSyntax, s)
}

// Rel builds the integer constraints for "lhs op rhs". Equalities yield two
// inequalities.
func Rel(lhs Aff, op Op, rhs Aff) []Constraint {
	switch op {
	case GE:
		return []Constraint{Ineq(lhs.Sub(rhs))}
	case GT:
		return []Constraint{Ineq(lhs.Sub(rhs).AddConst(-1))}
	case LE:
		return []Constraint{Ineq(rhs.Sub(lhs))}
	case LT:
		return []Constraint{Ineq(rhs.Sub(lhs).AddConst(-1))}
	default:
		return []Constraint{Ineq(lhs.Sub(rhs)), Ineq(rhs.Sub(lhs))}
	}
}

// Expr returns the affine expression that is constrained to be >= 0.
func (c Constraint) Expr() Aff { return c.expr }

// Negate returns the integer complement: Expr() <= -1.
func (c Constraint) Negate() Constraint {
	return Ineq(c.expr.Neg().AddConst(-1))
}

// Subst substitutes into the constrained expression.
func (c Constraint) Subst(m map[string]Aff) Constraint {
	return Ineq(c.expr.SubstAll(m))
}

// IsTautology reports whether c holds for every assignment.
func (c Constraint) IsTautology() bool {
	return c.expr.IsConstant() && c.expr.constant >= 0
}

// IsContradiction reports whether c holds for no assignment.
func (c Constraint) IsContradiction() bool {
	return c.expr.IsConstant() && c.expr.constant < 0
}

// Holds evaluates c at a point.
func (c Constraint) Holds(env map[string]int64) (bool, error) {
	v, err := c.expr.Eval(env)
	if err != nil {
		return false, err
	}
	return v >= 0, nil
}

// Format renders c as a comparison with non-negative coefficients on both
// sides, e.g. "i >= 1", "n >= i + 1" or "i <= 9".
func (c Constraint) Format(rename func(string) string) string {
	var lhs, rhs Aff
	for n, k := range c.expr.terms {
		if k > 0 {
			lhs.addTerm(n, k)
		} else {
			rhs.addTerm(n, -k)
		}
	}
	if k := c.expr.constant; k >= 0 {
		lhs.constant = k
	} else {
		rhs.constant = -k
	}
	if lhs.IsConstant() && !rhs.IsConstant() {
		return rhs.Format(rename) + " <= " + lhs.Format(rename)
	}
	return lhs.Format(rename) + " >= " + rhs.Format(rename)
}

func (c Constraint) String() string {
	return c.Format(func(s string) string { return s })
}
