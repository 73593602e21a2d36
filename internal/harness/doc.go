// Package harness runs YAML-scripted replication scenarios across a set
// of in-process replicas and checks convergence expectations.
//
// Scenarios script every source of nondeterminism: each node gets a
// sequential id generator and a scripted wall clock, and every operation
// step carries its wall-clock timestamp. The same scenario therefore
// produces byte-identical final states on every run, which is what makes
// golden-file comparison of the converged states meaningful.
package harness
