package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

var opSerial int

// newOpID hands out distinct readable ids for test operations.
func newOpID() string {
	opSerial++
	return fmt.Sprintf("op-%03d", opSerial)
}

func kvSet(node model.NodeID, ts int64, clock model.VectorClock, key, value string) model.Operation {
	return model.Operation{
		ID: newOpID(), Node: node, Timestamp: ts, Clock: clock,
		Type:     model.OpKeyValue,
		KeyValue: &model.KeyValuePayload{Key: key, Value: &value, Kind: model.KVSet},
	}
}

func kvOp(node model.NodeID, ts int64, clock model.VectorClock, key string, kind model.KeyValueKind) model.Operation {
	return model.Operation{
		ID: newOpID(), Node: node, Timestamp: ts, Clock: clock,
		Type:     model.OpKeyValue,
		KeyValue: &model.KeyValuePayload{Key: key, Kind: kind},
	}
}

func deviceOp(node model.NodeID, ts int64, clock model.VectorClock, deviceID, data string, kind model.DeviceKind) model.Operation {
	return model.Operation{
		ID: newOpID(), Node: node, Timestamp: ts, Clock: clock,
		Type:   model.OpDevice,
		Device: &model.DevicePayload{DeviceID: deviceID, Data: data, Kind: kind},
	}
}

func contextOp(node model.NodeID, ts int64, clock model.VectorClock, contextID, data string, kind model.ContextKind) model.Operation {
	return model.Operation{
		ID: newOpID(), Node: node, Timestamp: ts, Clock: clock,
		Type:    model.OpContext,
		Context: &model.ContextPayload{ContextID: contextID, Data: data, Kind: kind},
	}
}

func docOp(node model.NodeID, ts int64, clock model.VectorClock, docID string, pos int, content string, kind model.DocumentKind) model.Operation {
	return model.Operation{
		ID: newOpID(), Node: node, Timestamp: ts, Clock: clock,
		Type:     model.OpDocument,
		Document: &model.DocumentPayload{DocumentID: docID, Position: pos, Content: content, Kind: kind},
	}
}

func stateSyncOp(node model.NodeID, ts int64, clock model.VectorClock) model.Operation {
	return model.Operation{
		ID: newOpID(), Node: node, Timestamp: ts, Clock: clock,
		Type:      model.OpStateSync,
		StateSync: &model.StateSyncPayload{Snapshot: []byte(`{}`)},
	}
}

// mustApply applies a sequence of operations, failing the test on error.
func mustApply(t *testing.T, s *State, ops ...model.Operation) *State {
	t.Helper()
	for _, op := range ops {
		next, err := s.Apply(op)
		require.NoError(t, err)
		s = next
	}
	return s
}

// requireSameMaterialized asserts two states hold identical materialized
// maps and version.
func requireSameMaterialized(t *testing.T, a, b *State) {
	t.Helper()
	require.Equal(t, a.Devices, b.Devices)
	require.Equal(t, a.Contexts, b.Contexts)
	require.Equal(t, a.Documents, b.Documents)
	require.Equal(t, a.KV, b.KV)
	require.Equal(t, a.Version, b.Version)
}
