package replica

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabn3ez/omnisyncra/internal/model"
	"github.com/fabn3ez/omnisyncra/internal/store"
	"github.com/fabn3ez/omnisyncra/internal/testutil"
)

func TestApplyRemote_FoldsPeerOperations(t *testing.T) {
	m := openManager(t, "node-a")

	res, err := m.ApplyRemoteOperations(context.Background(), []model.Operation{
		remoteKVSet("b-op-001", "node-b", 500, model.VectorClock{"node-b": 1}, "k", "from-b"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 0, res.Skipped)
	v, ok := m.Snapshot().Get("k")
	require.True(t, ok)
	assert.Equal(t, "from-b", v)
	assert.Equal(t, int64(1), m.Snapshot().Clock.Counter("node-b"))
}

func TestApplyRemote_DuplicatesSkipped(t *testing.T) {
	m := openManager(t, "node-a")
	ctx := context.Background()
	op := remoteKVSet("b-op-001", "node-b", 500, model.VectorClock{"node-b": 1}, "k", "v")

	_, err := m.ApplyRemoteOperations(ctx, []model.Operation{op})
	require.NoError(t, err)
	versionAfterFirst := m.Snapshot().Version

	res, err := m.ApplyRemoteOperations(ctx, []model.Operation{op})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, versionAfterFirst, m.Snapshot().Version)
}

func TestApplyRemote_AllOrNothingOnInvalidOperation(t *testing.T) {
	m := openManager(t, "node-a")

	batch := []model.Operation{
		remoteKVSet("b-op-001", "node-b", 500, model.VectorClock{"node-b": 1}, "k", "v"),
		{ID: "b-op-002", Node: "node-b", Timestamp: 501, Clock: model.VectorClock{"node-b": 2}, Type: model.OpKeyValue},
	}
	_, err := m.ApplyRemoteOperations(context.Background(), batch)
	require.Error(t, err)

	// The valid half of the batch was not committed either.
	assert.False(t, m.Snapshot().ContainsOp("b-op-001"))
	assert.Equal(t, int64(0), m.Snapshot().Version)
}

func TestApplyRemote_AllOrNothingOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	inner, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer inner.Close()
	flaky := &flakyStore{inner: inner}
	m := openManagerWith(t, "node-a", flaky)

	flaky.failPuts = true
	_, err = m.ApplyRemoteOperations(ctx, []model.Operation{
		remoteKVSet("b-op-001", "node-b", 500, model.VectorClock{"node-b": 1}, "k", "v"),
	})
	require.ErrorIs(t, err, errDiskFull)

	assert.False(t, m.Snapshot().ContainsOp("b-op-001"))
	assert.Equal(t, int64(0), m.Snapshot().Version)
	assert.Empty(t, m.Conflicts())
}

func TestSyncWithPeer_BidirectionalConvergence(t *testing.T) {
	ctx := context.Background()
	a := openManager(t, "node-a", WithWallClock(testutil.NewTickingClock(1000, 1)))
	b := openManager(t, "node-b", WithWallClock(testutil.NewTickingClock(2000, 1)))

	_, err := a.SetKey(ctx, "from-a", "1")
	require.NoError(t, err)
	_, err = b.SetKey(ctx, "from-b", "2")
	require.NoError(t, err)

	// One round: A sends its delta, B folds it in and answers with its own.
	fromA := a.Snapshot().OperationsSince(b.Snapshot().Clock)
	res, err := b.SyncWithPeer(ctx, a.Snapshot().Clock, fromA)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	require.Len(t, res.Sent, 1)

	_, err = a.ApplyRemoteOperations(ctx, res.Sent)
	require.NoError(t, err)

	requireConverged(t, a.Snapshot(), b.Snapshot())
	v, ok := a.Snapshot().Get("from-b")
	require.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestSyncWithPeer_NothingToExchange(t *testing.T) {
	ctx := context.Background()
	m := openManager(t, "node-a")
	_, err := m.SetKey(ctx, "k", "v")
	require.NoError(t, err)

	// Peer already dominates us and sends nothing.
	res, err := m.SyncWithPeer(ctx, m.Snapshot().Clock, nil)
	require.NoError(t, err)

	assert.Empty(t, res.Sent)
	assert.Equal(t, 0, res.Applied)
}

func TestSyncWithPeer_CanceledContext(t *testing.T) {
	m := openManager(t, "node-a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.SyncWithPeer(ctx, model.VectorClock{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeState_Converges(t *testing.T) {
	ctx := context.Background()
	a := openManager(t, "node-a", WithWallClock(testutil.NewTickingClock(1000, 1)))
	b := openManager(t, "node-b", WithWallClock(testutil.NewTickingClock(2000, 1)))

	_, err := a.SetKey(ctx, "x", "1")
	require.NoError(t, err)
	_, err = a.SetKey(ctx, "y", "2")
	require.NoError(t, err)
	_, err = b.SetKey(ctx, "z", "3")
	require.NoError(t, err)

	snapA, snapB := a.Snapshot(), b.Snapshot()

	gainedA, err := a.MergeState(ctx, snapB)
	require.NoError(t, err)
	gainedB, err := b.MergeState(ctx, snapA)
	require.NoError(t, err)

	assert.Equal(t, 1, gainedA)
	assert.Equal(t, 2, gainedB)
	requireConverged(t, a.Snapshot(), b.Snapshot())
}

func TestMergeState_PreservesOwnNode(t *testing.T) {
	ctx := context.Background()
	a := openManager(t, "node-a")
	b := openManager(t, "node-b", WithWallClock(testutil.NewTickingClock(2000, 1)))

	_, err := b.SetKey(ctx, "k", "v")
	require.NoError(t, err)

	_, err = a.MergeState(ctx, b.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, model.NodeID("node-a"), a.Snapshot().Node)
}

func TestMergeState_Idempotent(t *testing.T) {
	ctx := context.Background()
	a := openManager(t, "node-a")
	b := openManager(t, "node-b", WithWallClock(testutil.NewTickingClock(2000, 1)))

	_, err := b.SetKey(ctx, "k", "v")
	require.NoError(t, err)

	_, err = a.MergeState(ctx, b.Snapshot())
	require.NoError(t, err)
	gained, err := a.MergeState(ctx, b.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, 0, gained)
}
