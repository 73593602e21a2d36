package replica

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fabn3ez/omnisyncra/internal/model"
	"github.com/fabn3ez/omnisyncra/internal/state"
	"github.com/fabn3ez/omnisyncra/internal/store"
	"github.com/fabn3ez/omnisyncra/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seqIDs returns prefix-001, prefix-002, ... so fixed-id managers never
// run dry mid-test and ids stay readable in failures.
func seqIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%03d", prefix, i+1)
	}
	return ids
}

// openManager opens a manager over a fresh in-memory store with
// deterministic ids and a scripted wall clock. Caller opts win over the
// defaults.
func openManager(t *testing.T, node model.NodeID, opts ...Option) *Manager {
	t.Helper()

	st, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return openManagerWith(t, node, st, opts...)
}

func openManagerWith(t *testing.T, node model.NodeID, st store.Store, opts ...Option) *Manager {
	t.Helper()

	defaults := []Option{
		WithIDGenerator(NewFixedIDs(seqIDs(string(node)+"-op-", 64)...)),
		WithWallClock(testutil.NewTickingClock(1000, 1)),
		WithLogger(discardLogger()),
	}
	m, _, err := Open(context.Background(), node, st, append(defaults, opts...)...)
	require.NoError(t, err)
	return m
}

// remoteKVSet builds a fully stamped peer-authored set operation.
func remoteKVSet(id string, node model.NodeID, ts int64, clock model.VectorClock, key, value string) model.Operation {
	return model.Operation{
		ID:        id,
		Node:      node,
		Timestamp: ts,
		Clock:     clock,
		Type:      model.OpKeyValue,
		KeyValue:  &model.KeyValuePayload{Key: key, Value: &value, Kind: model.KVSet},
	}
}

// requireConverged asserts that two replicas materialized identical
// state: same clock, same maps.
func requireConverged(t *testing.T, a, b *state.State) {
	t.Helper()

	require.True(t, a.Clock.Equal(b.Clock), "clocks diverged: %v vs %v", a.Clock, b.Clock)
	require.Equal(t, a.Devices, b.Devices)
	require.Equal(t, a.Contexts, b.Contexts)
	require.Equal(t, a.Documents, b.Documents)
	require.Equal(t, a.KV, b.KV)
}

var errDiskFull = errors.New("disk full")

// flakyStore delegates to a real store but fails Put on demand, for
// exercising the persistence failure paths.
type flakyStore struct {
	inner    store.Store
	failPuts bool
}

func (s *flakyStore) Put(ctx context.Context, key string, value []byte) error {
	if s.failPuts {
		return errDiskFull
	}
	return s.inner.Put(ctx, key, value)
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, key)
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *flakyStore) Close() error {
	return s.inner.Close()
}
