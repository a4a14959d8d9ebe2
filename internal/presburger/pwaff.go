package presburger

import "strings"

// Piece is one case of a piecewise affine function: Aff applies on Guard.
type Piece struct {
	Guard Set
	Aff   Aff
}

// PwAff is a piecewise affine function over a parameter space. Pieces have
// pairwise disjoint guards, all contained in the function's domain.
type PwAff struct {
	domain Set
	pieces []Piece
}

// PwAffFromAff returns the single-piece function a on domain.
func PwAffFromAff(domain Set, a Aff) PwAff {
	return PwAff{domain: domain, pieces: []Piece{{Guard: domain, Aff: a}}}
}

// Domain returns the set on which the function is considered.
func (p PwAff) Domain() Set { return p.domain }

// Pieces returns the function's cases in order.
func (p PwAff) Pieces() []Piece {
	return append([]Piece(nil), p.pieces...)
}

// NPiece returns the number of cases.
func (p PwAff) NPiece() int { return len(p.pieces) }

// IsEmpty reports whether the function has no cases.
func (p PwAff) IsEmpty() bool { return len(p.pieces) == 0 }

// Coalesce drops pieces with empty guards and merges the function into a
// single piece on its domain when every remaining piece has the same value.
func (p PwAff) Coalesce() PwAff {
	out := PwAff{domain: p.domain}
	for _, pc := range p.pieces {
		if !pc.Guard.IsEmpty() {
			out.pieces = append(out.pieces, pc)
		}
	}
	if len(out.pieces) > 1 {
		first := out.pieces[0].Aff
		for _, pc := range out.pieces[1:] {
			if !pc.Aff.Equal(first) {
				return out
			}
		}
		out.pieces = []Piece{{Guard: p.domain, Aff: first}}
	}
	return out
}

// Sub returns p - q on the intersection of their pieces.
func (p PwAff) Sub(q PwAff) PwAff {
	out := PwAff{domain: p.domain.Intersect(q.domain)}
	for _, a := range p.pieces {
		for _, b := range q.pieces {
			guard := a.Guard.Intersect(b.Guard)
			if guard.IsEmpty() {
				continue
			}
			out.pieces = append(out.pieces, Piece{Guard: guard, Aff: a.Aff.Sub(b.Aff)})
		}
	}
	return out
}

// AddConst adds k to every piece.
func (p PwAff) AddConst(k int64) PwAff {
	out := PwAff{domain: p.domain}
	for _, pc := range p.pieces {
		out.pieces = append(out.pieces, Piece{Guard: pc.Guard, Aff: pc.Aff.AddConst(k)})
	}
	return out
}

func (p PwAff) String() string {
	switch len(p.pieces) {
	case 0:
		return "{ }"
	case 1:
		return p.pieces[0].Aff.String()
	}
	parts := make([]string, len(p.pieces))
	for i, pc := range p.pieces {
		parts[i] = pc.Aff.String() + " : " + pc.Guard.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}
