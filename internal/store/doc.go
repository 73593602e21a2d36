// Package store provides durable key/value persistence for replicated
// state snapshots.
//
// The contract is deliberately tiny: Put a blob under a key, Get it back,
// Delete it. The replication manager serializes the entire state as one
// blob under a fixed key after every committed transition, so the store
// never needs to understand state structure.
//
// Two embedded backends are provided:
//
//   - SQLite (sqlite.go): WAL mode for concurrent reads during writes,
//     NORMAL synchronous, busy_timeout for lock contention, single-writer
//     connection pool, schema migrations via PRAGMA user_version.
//   - bbolt (bolt.go): one bucket, one transaction per call.
//
// Both are safe for use from multiple goroutines.
package store
