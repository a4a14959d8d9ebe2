// Package loader reads kernel descriptions from YAML or CUE files and turns
// them into kernels ready for lowering.
//
// A kernel file names the integer domains of its inames in set notation,
// the instructions and the order in which loops are entered and left:
//
//	name: copy
//	domains:
//	  - "[n] -> { [i] : 0 <= i < n }"
//	assumptions: "[n] -> { : n >= 1 }"
//	instructions:
//	  - id: S
//	    inames: [i]
//	tags:
//	  i: l.0
//	slab_increments:
//	  i: [1, 1]
//
// When the schedule is omitted, each instruction is nested in loops over
// its inames in the order they are listed. Identifiers are NFC-normalized
// before use, so visually identical names compare equal.
package loader
