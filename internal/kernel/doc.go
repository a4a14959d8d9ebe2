// Package kernel holds the immutable kernel snapshot read by the lowering
// stage: the iteration domains, the instructions and their linearized
// schedule, per-iname tags and slab increments, and the hardware grid sizes.
//
// A Kernel is never mutated after New. WithSlab returns a new snapshot in
// which the home domain of one iname is narrowed to a slab; everything else,
// including the grid sizes derived from the original domains, is shared.
//
// Each iname has exactly one home domain, the domain in which it is a set
// dimension. A domain may use inames of other domains as parameters, which
// is how nested (e.g. triangular) loop bounds are expressed:
//
//	[n] -> { [i] : 0 <= i < n }
//	[i] -> { [j] : 0 <= j <= i }
package kernel
