// Package model provides the foundational types for the Omnisyncra
// replication engine.
//
// This package contains type definitions plus the canonical JSON and
// content-hashing primitives built on them. All other internal packages
// import model; model imports nothing internal. This keeps it the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Operations are immutable once created; every field is set at
//     creation time by the replication manager, never mutated afterwards.
//   - Operation envelopes are uniform across all variants (id, node,
//     timestamp, clock, tagged payload) so transport code never needs to
//     understand payload semantics.
//   - All JSON tags use snake_case.
//   - Wall-clock timestamps are milliseconds since the Unix epoch; causal
//     ordering always comes from vector clocks, never from wall time alone.
package model
