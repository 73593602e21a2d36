// Package state implements the pure replicated state of the Omnisyncra
// engine: the operation log, the merged vector clock, and the four
// materialized maps (devices, contexts, documents, key-value).
//
// Every transition is referentially transparent: the same inputs produce
// the same output, nothing here performs I/O or reads wall clocks. State
// values are copy-on-write; a transition returns a fresh *State and never
// mutates its receiver, so the replication manager can hand out snapshots
// without locking readers.
//
// The structural invariant: the materialized maps are exactly the fold of
// the operation log in canonical order (timestamp ascending, ties broken
// by node id, then operation id). Apply preserves this even for
// out-of-order arrivals by inserting into the log's canonical position and
// re-deriving the maps when the insertion is not at the tail. Because the
// fold order is derived only from operation content, Merge is commutative
// and associative in its materialized result.
package state
