// Package harness checks lowered kernels end to end.
//
// A scenario names a kernel file, the parameter values to check it with and
// a list of assertions. Running a scenario lowers the kernel, records the
// run in an in-memory store, interprets the generated code once for every
// point of the launch grid and compares the executed instruction instances
// with a brute-force enumeration of each instruction's domain.
//
// # Scenario Format
//
//	name: copy_peeled
//	description: "Peeling keeps every iteration exactly once"
//	kernel: ../kernels/copy_peeled.yaml
//	target: c
//	params:
//	  - {n: 1}
//	  - {n: 5}
//	assertions:
//	  - type: covers
//	  - type: code_contains
//	    text: "// initial slab for 'i'"
//	  - type: decision_count
//	    action: assign
//	    count: 2
//	golden: true
//
// Kernel paths are relative to the scenario file.
//
// # Assertion Types
//
//   - covers: executed instances equal the domain's instances for every
//     parameter set
//   - code_contains / code_excludes: substring checks on the rendered code
//   - decision_count: number of lowering decisions with the given action
//   - error: lowering fails with the given error code
//
// # Golden Files
//
// RunWithGolden compares the rendered code with
// testdata/golden/{scenario.Name}.golden. To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
