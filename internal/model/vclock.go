package model

// NodeID identifies a replica. It is globally unique and stable for the
// node's lifetime. NodeIDs are compared lexicographically when a total
// order over nodes is required (conflict tie-breaks, log ordering).
type NodeID string

// VectorClock maps each node to a non-negative counter. Absent entries are
// implicitly zero.
//
// Invariant: a node's own counter only ever increases, and strictly so on
// each local mutation it originates. Counters for other nodes only move
// forward via Merge (pointwise maximum), never backward.
//
// VectorClock values are treated as immutable: every method that would
// change an entry returns a fresh clock and leaves the receiver untouched.
// Callers holding a clock snapshot can therefore share it freely.
type VectorClock map[NodeID]int64

// NewVectorClock creates a clock seeded with the given node at zero.
// Seeding the own entry makes the node visible in the clock from the first
// serialization onward, which the startup validator relies on.
func NewVectorClock(node NodeID) VectorClock {
	return VectorClock{node: 0}
}

// Counter returns the counter for a node, zero if absent.
func (vc VectorClock) Counter(node NodeID) int64 {
	return vc[node]
}

// Copy returns an independent copy of the clock.
func (vc VectorClock) Copy() VectorClock {
	out := make(VectorClock, len(vc))
	for node, counter := range vc {
		out[node] = counter
	}
	return out
}

// Increment returns a new clock equal to the receiver with the given
// node's counter raised by exactly one.
func (vc VectorClock) Increment(node NodeID) VectorClock {
	out := vc.Copy()
	out[node]++
	return out
}

// Merge returns a new clock whose value at every node is the pointwise
// maximum of the two inputs.
func (vc VectorClock) Merge(other VectorClock) VectorClock {
	out := vc.Copy()
	for node, counter := range other {
		if counter > out[node] {
			out[node] = counter
		}
	}
	return out
}

// HappensBefore reports whether the receiver causally precedes other:
// every counter is <= the corresponding counter in other, and at least one
// is strictly less. This is a strict partial order (irreflexive,
// transitive).
func (vc VectorClock) HappensBefore(other VectorClock) bool {
	strictly := false
	for node, counter := range vc {
		oc := other[node]
		if counter > oc {
			return false
		}
		if counter < oc {
			strictly = true
		}
	}
	for node, oc := range other {
		if _, seen := vc[node]; !seen && oc > 0 {
			strictly = true
		}
	}
	return strictly
}

// Concurrent reports whether neither clock happens before the other and
// the clocks are not equal.
func (vc VectorClock) Concurrent(other VectorClock) bool {
	return !vc.HappensBefore(other) && !other.HappensBefore(vc) && !vc.Equal(other)
}

// Dominates reports whether the receiver is >= other in every coordinate.
// A peer whose clock dominates an operation's clock has already seen that
// operation; this is the predicate behind sync delta computation.
func (vc VectorClock) Dominates(other VectorClock) bool {
	for node, counter := range other {
		if vc[node] < counter {
			return false
		}
	}
	return true
}

// Equal reports whether both clocks assign the same counter to every node.
// Zero entries and absent entries are indistinguishable.
func (vc VectorClock) Equal(other VectorClock) bool {
	return vc.Dominates(other) && other.Dominates(vc)
}
