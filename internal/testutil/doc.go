// Package testutil provides deterministic stand-ins for the ambient
// inputs of the replication engine, so tests and golden scenarios
// produce identical operation logs on every run.
package testutil
