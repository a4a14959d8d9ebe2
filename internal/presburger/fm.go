package presburger

import "slices"

// simplify drops tautologies, keeps only the tightest constraint per linear
// part and detects constant or pairwise contradictions.
func simplify(cons []Constraint) ([]Constraint, bool) {
	var out []Constraint
	index := make(map[string]int)
	for _, c := range cons {
		if c.IsTautology() {
			continue
		}
		if c.IsContradiction() {
			return nil, true
		}
		key := c.expr.linear().String()
		if i, ok := index[key]; ok {
			if c.expr.constant < out[i].expr.constant {
				out[i] = c
			}
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}
	// L + a >= 0 and -L + b >= 0 need a + b >= 0.
	for _, c := range out {
		neg := c.expr.linear().Neg().String()
		if j, ok := index[neg]; ok && c.expr.constant+out[j].expr.constant < 0 {
			return nil, true
		}
	}
	return out, false
}

// eliminate projects name out of cons by Fourier-Motzkin elimination.
func eliminate(cons []Constraint, name string) ([]Constraint, bool) {
	var lower, upper, rest []Constraint
	for _, c := range cons {
		switch a := c.expr.Coeff(name); {
		case a > 0:
			lower = append(lower, c)
		case a < 0:
			upper = append(upper, c)
		default:
			rest = append(rest, c)
		}
	}
	for _, l := range lower {
		for _, u := range upper {
			al := l.expr.Coeff(name)
			au := -u.expr.Coeff(name)
			rest = append(rest, Ineq(l.expr.Scale(au).Add(u.expr.Scale(al))))
		}
	}
	return simplify(rest)
}

// eliminateAll projects out names, cheapest first.
func eliminateAll(cons []Constraint, names []string) ([]Constraint, bool) {
	pending := slices.Clone(names)
	for len(pending) > 0 {
		best, bestCost := 0, -1
		for i, n := range pending {
			var lo, hi int
			for _, c := range cons {
				switch a := c.expr.Coeff(n); {
				case a > 0:
					lo++
				case a < 0:
					hi++
				}
			}
			if cost := lo * hi; bestCost < 0 || cost < bestCost {
				best, bestCost = i, cost
			}
		}
		var bad bool
		cons, bad = eliminate(cons, pending[best])
		if bad {
			return nil, true
		}
		pending = slices.Delete(pending, best, best+1)
	}
	return cons, false
}
