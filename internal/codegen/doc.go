// Package codegen lowers a kernel's loop nest into imperative code.
//
// Generation walks the kernel schedule with BuildLoopNest. Each loop is
// dispatched on its iname's tag:
//
//   - Sequential inames go through GenerateSequentialLoop, which splits the
//     range into slabs (SlabDecomposition), extracts one affine lower and
//     upper bound per slab (FindBoundsAndImplementedSlab) and emits a
//     counted loop, or a single declaration when the bounds coincide.
//   - Unrolled inames go through GenerateUnrollLoop, which requires a
//     constant trip count and emits one copy of the body per value.
//   - Hardware inames go through SetUpHWParallelLoop, which binds the iname
//     to its lid(N)/gid(N) index and records the launch range as already
//     guaranteed.
//
// Every recursion step receives its own State holding the constraints the
// enclosing code guarantees. Instructions are guarded only by the domain
// constraints that State does not already imply, so the bulk of a peeled
// loop runs without boundary checks.
//
// All failures are fatal for the kernel: Generate returns no code and a
// *LoweringError (or a wrapped algebra error) naming the iname.
//
// The generated tree can be printed with Render or interpreted with Execute
// and ExecuteGrid.
package codegen
