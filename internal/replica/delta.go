package replica

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

// ErrCorruptedDelta reports that an exported delta failed integrity
// verification.
var ErrCorruptedDelta = errors.New("corrupted sync delta")

// Delta is the offline exchange format for peer reconciliation: the
// sender's clock plus every operation the receiver's clock did not
// dominate at export time. Deltas travel as files or blobs between nodes
// with no shared transport.
type Delta struct {
	Node       model.NodeID      `json:"node"`
	Clock      model.VectorClock `json:"clock"`
	Operations []model.Operation `json:"operations"`
}

// deltaEnvelope wraps the delta with a domain-separated checksum over its
// canonical JSON form, same scheme as persisted snapshots.
type deltaEnvelope struct {
	Checksum string `json:"checksum"`
	Delta    Delta  `json:"delta"`
}

// ExportDelta captures the operations a peer with the given clock is
// missing. An empty clock exports the full log.
func (m *Manager) ExportDelta(peerClock model.VectorClock) Delta {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Delta{
		Node:       m.node,
		Clock:      m.current.Clock,
		Operations: m.current.OperationsSince(peerClock),
	}
}

// MarshalDelta serializes a delta with its integrity checksum.
func MarshalDelta(d Delta) ([]byte, error) {
	sum, err := model.Checksum(model.DomainDelta, d)
	if err != nil {
		return nil, fmt.Errorf("marshal delta: %w", err)
	}
	blob, err := json.Marshal(deltaEnvelope{Checksum: sum, Delta: d})
	if err != nil {
		return nil, fmt.Errorf("marshal delta: %w", err)
	}
	return blob, nil
}

// UnmarshalDelta decodes and verifies an exported delta.
func UnmarshalDelta(data []byte) (Delta, error) {
	var env deltaEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Delta{}, fmt.Errorf("%w: %v", ErrCorruptedDelta, err)
	}

	sum, err := model.Checksum(model.DomainDelta, env.Delta)
	if err != nil {
		return Delta{}, fmt.Errorf("unmarshal delta: %w", err)
	}
	if sum != env.Checksum {
		return Delta{}, fmt.Errorf("%w: checksum mismatch", ErrCorruptedDelta)
	}
	return env.Delta, nil
}
