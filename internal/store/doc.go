// Package store keeps a SQLite log of lowering runs and the decisions each
// run made.
//
// # Layout
//
//   - runs: one row per lowered kernel, keyed by a UUIDv7 run ID, with the
//     kernel fingerprint, the target, the outcome and the rendered code
//   - decisions: the ordered trace of a run, one row per loop lowering
//     choice (iname, tag, action, slab, bounds)
//
// All ordering uses the seq columns (logical clock), never timestamps, so
// listings are identical across machines.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks instead of failing
//   - foreign_keys=ON: Decisions must belong to a stored run
//
// Schema changes are applied through PRAGMA user_version migrations.
package store
