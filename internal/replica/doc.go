// Package replica implements the replication manager, the single mutable
// owner of the current replicated state.
//
// ARCHITECTURE:
//
// One mutex serializes every state transition - local mutation stamping,
// remote batch application, peer sync rounds, and bulk merges all go
// through it. This guarantees two local mutations can never read and then
// increment the same vector clock value, and that remote application
// never interleaves with local application on the shared materialized
// maps.
//
// Local mutation pipeline:
//  1. Increment the node's own clock entry
//  2. Stamp the operation (id, node, wall-clock ms, clock snapshot)
//  3. Fold it through the pure state transition
//  4. Persist the new snapshot to the durable store
//  5. Swap the held reference and notify subscribers
//
// A failed persistence write is logged at ERROR severity and does NOT
// roll back the in-memory state; the node keeps operating with a
// committed-but-unpersisted window that operators must watch for.
//
// Remote batches are the opposite: staged against a scratch state and
// committed all-or-nothing, so a failed sync round leaves the replica
// exactly where it was.
//
// All blocking (durable writes) happens here, around calls into the pure
// state package; nothing inside state.Apply/Merge/Compact performs I/O.
package replica
