// Package presburger provides the integer affine set algebra used by the
// loop-nest lowering stage.
//
// All values are immutable. Every operation returns a new value and never
// modifies its receiver, so sets, affine expressions and piecewise affine
// functions can be shared freely between kernel snapshots and codegen states.
//
// Representation:
//   - Space: ordered parameter names plus ordered set-dimension names.
//   - Aff: integer linear combination of names plus a constant. Terms are
//     keyed by name, so moving a name between the parameter and set roles is
//     a change of Space only.
//   - Constraint: the inequality Expr >= 0, normalized by the gcd of its
//     coefficients (integer tightening of the constant).
//   - Set: a conjunction of constraints over a Space (a "basic set").
//   - PwAff: ordered (guard, Aff) pieces over a parameter space.
//
// Projection uses Fourier-Motzkin elimination. It is exact over the
// rationals and tightened to integers per constraint, which is exact for the
// unit-coefficient domains produced by loop tiling and splitting. Bounds
// whose extraction would need a floor or ceiling of a parametric expression
// are rejected with ErrUnsupported.
//
// Textual sets use an isl-like syntax:
//
//	[n, m] -> { [i, j] : 0 <= i < n and i <= j < m }
//	[n] -> { : n >= 1 }
package presburger
