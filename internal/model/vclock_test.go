package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorClock_New_SeedsOwnEntry(t *testing.T) {
	vc := NewVectorClock("A")
	assert.Equal(t, int64(0), vc.Counter("A"))
	assert.Len(t, vc, 1)
}

func TestVectorClock_Increment_ReturnsNewClock(t *testing.T) {
	vc := NewVectorClock("A")
	inc := vc.Increment("A")

	assert.Equal(t, int64(1), inc.Counter("A"))
	assert.Equal(t, int64(0), vc.Counter("A"), "receiver must be untouched")
}

func TestVectorClock_Increment_AbsentNode(t *testing.T) {
	vc := VectorClock{}
	inc := vc.Increment("B")
	assert.Equal(t, int64(1), inc.Counter("B"))
}

func TestVectorClock_Merge_PointwiseMax(t *testing.T) {
	a := VectorClock{"A": 3, "B": 1}
	b := VectorClock{"A": 1, "B": 5, "C": 2}

	merged := a.Merge(b)

	assert.Equal(t, VectorClock{"A": 3, "B": 5, "C": 2}, merged)
	assert.Equal(t, VectorClock{"A": 3, "B": 1}, a, "receiver must be untouched")
}

func TestVectorClock_Merge_Commutative(t *testing.T) {
	a := VectorClock{"A": 3, "B": 1}
	b := VectorClock{"B": 5, "C": 2}

	assert.True(t, a.Merge(b).Equal(b.Merge(a)))
}

func TestVectorClock_HappensBefore(t *testing.T) {
	earlier := VectorClock{"A": 1}
	later := VectorClock{"A": 2, "B": 1}

	assert.True(t, earlier.HappensBefore(later))
	assert.False(t, later.HappensBefore(earlier))
}

func TestVectorClock_HappensBefore_Irreflexive(t *testing.T) {
	vc := VectorClock{"A": 2, "B": 1}
	assert.False(t, vc.HappensBefore(vc))
}

func TestVectorClock_HappensBefore_EqualClocks(t *testing.T) {
	a := VectorClock{"A": 2}
	b := VectorClock{"A": 2, "B": 0}

	// Zero entries are indistinguishable from absent entries.
	assert.False(t, a.HappensBefore(b))
	assert.False(t, b.HappensBefore(a))
	assert.True(t, a.Equal(b))
}

func TestVectorClock_Concurrent(t *testing.T) {
	a := VectorClock{"A": 2, "B": 0}
	b := VectorClock{"A": 1, "B": 3}

	assert.True(t, a.Concurrent(b))
	assert.True(t, b.Concurrent(a))
}

func TestVectorClock_Concurrent_FalseWhenOrdered(t *testing.T) {
	earlier := VectorClock{"A": 1}
	later := VectorClock{"A": 2}

	assert.False(t, earlier.Concurrent(later))
	assert.False(t, later.Concurrent(earlier))
	assert.False(t, earlier.Concurrent(earlier))
}

func TestVectorClock_Dominates(t *testing.T) {
	peer := VectorClock{"A": 5}

	assert.True(t, peer.Dominates(VectorClock{"A": 3}))
	assert.True(t, peer.Dominates(VectorClock{"A": 5}))
	assert.False(t, peer.Dominates(VectorClock{"A": 3, "B": 1}),
		"peer has no B entry, cannot dominate a clock with B progress")
	assert.True(t, peer.Dominates(VectorClock{}))
}
