package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

func TestApply_SetThenGet(t *testing.T) {
	s := New("A")
	s = mustApply(t, s, kvSet("A", 100, model.VectorClock{"A": 1}, "k", "v1"))

	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	assert.Equal(t, int64(1), s.Version)
	assert.Equal(t, int64(100), s.LastUpdated)
	assert.Equal(t, int64(1), s.Clock.Counter("A"))
}

func TestApply_Idempotent(t *testing.T) {
	s := New("A")
	op := kvSet("A", 100, model.VectorClock{"A": 1}, "k", "v1")

	once := mustApply(t, s, op)
	twice := mustApply(t, once, op)

	assert.Same(t, once, twice, "redelivered operation must return the state unchanged")
	assert.Equal(t, int64(1), twice.Version)
	assert.Len(t, twice.Log, 1)
}

func TestApply_DoesNotMutateReceiver(t *testing.T) {
	s := New("A")
	next := mustApply(t, s, kvSet("A", 100, model.VectorClock{"A": 1}, "k", "v1"))

	assert.Empty(t, s.KV)
	assert.Empty(t, s.Log)
	assert.Equal(t, int64(0), s.Version)
	assert.NotSame(t, s, next)
}

func TestApply_MergesClocks(t *testing.T) {
	s := New("A")
	s = mustApply(t, s, kvSet("B", 100, model.VectorClock{"B": 4, "C": 2}, "k", "v"))

	assert.Equal(t, int64(4), s.Clock.Counter("B"))
	assert.Equal(t, int64(2), s.Clock.Counter("C"))
	assert.Equal(t, int64(0), s.Clock.Counter("A"), "own counter untouched by remote apply")
}

func TestApply_DeviceLifecycle(t *testing.T) {
	s := New("A")
	s = mustApply(t, s,
		deviceOp("A", 100, model.VectorClock{"A": 1}, "d1", `{"name":"phone"}`, model.DeviceAdd),
		deviceOp("A", 200, model.VectorClock{"A": 2}, "d1", `{"name":"phone","online":true}`, model.DeviceConnect),
	)
	assert.Equal(t, `{"name":"phone","online":true}`, s.Devices["d1"])

	s = mustApply(t, s, deviceOp("A", 300, model.VectorClock{"A": 3}, "d1", "", model.DeviceRemove))
	_, ok := s.Devices["d1"]
	assert.False(t, ok)
	assert.Len(t, s.Log, 3, "remove stays in the log")
}

func TestApply_ContextLifecycle(t *testing.T) {
	s := New("A")
	s = mustApply(t, s,
		contextOp("A", 100, model.VectorClock{"A": 1}, "c1", `{"title":"work"}`, model.ContextCreate),
		contextOp("A", 200, model.VectorClock{"A": 2}, "c1", `{"title":"work","active":true}`, model.ContextActivate),
	)
	assert.Equal(t, `{"title":"work","active":true}`, s.Contexts["c1"])

	s = mustApply(t, s, contextOp("A", 300, model.VectorClock{"A": 3}, "c1", "", model.ContextDelete))
	assert.NotContains(t, s.Contexts, "c1")
}

func TestApply_DocumentInsertAndDelete(t *testing.T) {
	s := New("A")
	s = mustApply(t, s,
		docOp("A", 100, model.VectorClock{"A": 1}, "doc1", 0, "hello world", model.DocInsert),
		docOp("A", 200, model.VectorClock{"A": 2}, "doc1", 5, ",", model.DocInsert),
	)
	assert.Equal(t, "hello, world", s.Documents["doc1"])

	// Delete removes a range whose length equals the content argument.
	s = mustApply(t, s, docOp("A", 300, model.VectorClock{"A": 3}, "doc1", 5, ",", model.DocDelete))
	assert.Equal(t, "hello world", s.Documents["doc1"])
}

func TestApply_DocumentInsertClampsPastEnd(t *testing.T) {
	s := New("A")
	s = mustApply(t, s,
		docOp("A", 100, model.VectorClock{"A": 1}, "doc1", 0, "abc", model.DocInsert),
		docOp("A", 200, model.VectorClock{"A": 2}, "doc1", 99, "def", model.DocInsert),
	)
	assert.Equal(t, "abcdef", s.Documents["doc1"], "position past end appends")
}

func TestApply_DocumentDeleteClampsToBounds(t *testing.T) {
	s := New("A")
	s = mustApply(t, s,
		docOp("A", 100, model.VectorClock{"A": 1}, "doc1", 0, "abcdef", model.DocInsert),
		docOp("A", 200, model.VectorClock{"A": 2}, "doc1", 4, "xxxxxxxx", model.DocDelete),
	)
	assert.Equal(t, "abcd", s.Documents["doc1"])
}

func TestApply_DocumentRetainAndFormatLeaveContent(t *testing.T) {
	s := New("A")
	s = mustApply(t, s,
		docOp("A", 100, model.VectorClock{"A": 1}, "doc1", 0, "text", model.DocInsert),
		docOp("A", 200, model.VectorClock{"A": 2}, "doc1", 0, "bold", model.DocFormat),
		docOp("A", 300, model.VectorClock{"A": 3}, "doc1", 2, "xx", model.DocRetain),
	)
	assert.Equal(t, "text", s.Documents["doc1"])
	assert.Len(t, s.Log, 3)
}

func TestApply_KeyValueSetWithoutValueIsNoOp(t *testing.T) {
	s := New("A")
	s = mustApply(t, s, kvOp("A", 100, model.VectorClock{"A": 1}, "k", model.KVSet))

	_, ok := s.Get("k")
	assert.False(t, ok, "set with absent value must not materialize")
	assert.Len(t, s.Log, 1, "the operation is still logged")
}

func TestApply_KeyValueDelete(t *testing.T) {
	s := New("A")
	s = mustApply(t, s,
		kvSet("A", 100, model.VectorClock{"A": 1}, "k", "v"),
		kvOp("A", 200, model.VectorClock{"A": 2}, "k", model.KVDelete),
	)
	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestApply_KeyValueIncrementDecrement(t *testing.T) {
	s := New("A")
	s = mustApply(t, s,
		kvOp("A", 100, model.VectorClock{"A": 1}, "n", model.KVIncrement),
		kvOp("A", 200, model.VectorClock{"A": 2}, "n", model.KVIncrement),
		kvOp("A", 300, model.VectorClock{"A": 3}, "n", model.KVDecrement),
	)
	v, _ := s.Get("n")
	assert.Equal(t, "1", v, "absent value defaults to 0")
}

func TestApply_KeyValueIncrementUnparseableDefaultsToZero(t *testing.T) {
	s := New("A")
	s = mustApply(t, s,
		kvSet("A", 100, model.VectorClock{"A": 1}, "n", "not a number"),
		kvOp("A", 200, model.VectorClock{"A": 2}, "n", model.KVIncrement),
	)
	v, _ := s.Get("n")
	assert.Equal(t, "1", v)
}

func TestApply_StateSyncLeavesMapsAlone(t *testing.T) {
	s := New("A")
	s = mustApply(t, s, kvSet("A", 100, model.VectorClock{"A": 1}, "k", "v"))
	before := s.KV

	s = mustApply(t, s, stateSyncOp("B", 200, model.VectorClock{"B": 7}))

	assert.Equal(t, before, s.KV)
	assert.Equal(t, int64(2), s.Version, "bookkeeping still advances")
	assert.Equal(t, int64(7), s.Clock.Counter("B"))
	assert.Len(t, s.Log, 2)
}

func TestApply_InvalidOperationLeavesStateUntouched(t *testing.T) {
	s := New("A")
	bad := model.Operation{ID: "bad", Node: "A", Clock: model.VectorClock{}, Type: model.OpDevice}

	next, err := s.Apply(bad)
	require.Error(t, err)
	assert.Same(t, s, next)
}

func TestApply_CausalMonotonicity(t *testing.T) {
	// op1 happens before op2 and both target the same key. Whatever the
	// arrival order, the materialized value is op2's.
	op1 := kvSet("A", 100, model.VectorClock{"A": 1}, "k", "old")
	op2 := kvSet("A", 200, model.VectorClock{"A": 2}, "k", "new")
	require.True(t, op1.Clock.HappensBefore(op2.Clock))

	inOrder := mustApply(t, New("X"), op1, op2)
	outOfOrder := mustApply(t, New("X"), op2, op1)

	v1, _ := inOrder.Get("k")
	v2, _ := outOfOrder.Get("k")
	assert.Equal(t, "new", v1)
	assert.Equal(t, "new", v2)
	requireSameMaterialized(t, inOrder, outOfOrder)
}

func TestApply_OutOfOrderArrivalKeepsLogCanonical(t *testing.T) {
	late := kvSet("A", 300, model.VectorClock{"A": 2}, "x", "late")
	early := kvSet("A", 100, model.VectorClock{"A": 1}, "y", "early")

	s := mustApply(t, New("X"), late, early)

	require.Len(t, s.Log, 2)
	assert.Equal(t, int64(100), s.Log[0].Timestamp)
	assert.Equal(t, int64(300), s.Log[1].Timestamp)
}

func TestMaterialize_MatchesStoredMaps(t *testing.T) {
	s := New("A")
	s = mustApply(t, s,
		kvSet("A", 100, model.VectorClock{"A": 1}, "k", "v1"),
		deviceOp("B", 150, model.VectorClock{"B": 1}, "d1", "data", model.DeviceAdd),
		kvSet("A", 200, model.VectorClock{"A": 2}, "k", "v2"),
		docOp("B", 250, model.VectorClock{"B": 2}, "doc1", 0, "hi", model.DocInsert),
	)

	m := s.Materialize()
	assert.Equal(t, s.Devices, m.Devices)
	assert.Equal(t, s.Contexts, m.Contexts)
	assert.Equal(t, s.Documents, m.Documents)
	assert.Equal(t, s.KV, m.KV)
}
