package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

// ErrCorruptedSnapshot reports that a persisted snapshot failed integrity
// verification and cannot be loaded. Callers must treat this as
// unrecoverable state loss and surface it, never swallow it.
var ErrCorruptedSnapshot = errors.New("corrupted state snapshot")

// snapshotPayload is the serialized shape of a State.
type snapshotPayload struct {
	Node        model.NodeID      `json:"node"`
	Clock       model.VectorClock `json:"clock"`
	Log         []model.Operation `json:"log"`
	Version     int64             `json:"version"`
	LastUpdated int64             `json:"last_updated"`
	Devices     map[string]string `json:"devices"`
	Contexts    map[string]string `json:"contexts"`
	Documents   map[string]string `json:"documents"`
	KV          map[string]string `json:"kv"`
}

// snapshotEnvelope wraps the payload with a domain-separated checksum
// over its canonical JSON form, so bit rot in durable storage is detected
// at load rather than silently replayed.
type snapshotEnvelope struct {
	Checksum string          `json:"checksum"`
	State    snapshotPayload `json:"state"`
}

// MarshalSnapshot serializes the complete state as one blob suitable for
// the durable key-value store.
func (s *State) MarshalSnapshot() ([]byte, error) {
	payload := snapshotPayload{
		Node:        s.Node,
		Clock:       s.Clock,
		Log:         s.Log,
		Version:     s.Version,
		LastUpdated: s.LastUpdated,
		Devices:     s.Devices,
		Contexts:    s.Contexts,
		Documents:   s.Documents,
		KV:          s.KV,
	}

	sum, err := model.Checksum(model.DomainSnapshot, payload)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	blob, err := json.Marshal(snapshotEnvelope{Checksum: sum, State: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return blob, nil
}

// UnmarshalSnapshot restores a state from a persisted blob, verifying the
// checksum before accepting anything. Round-trip is exact: clock, log,
// version, and all materialized maps.
func UnmarshalSnapshot(data []byte) (*State, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedSnapshot, err)
	}

	sum, err := model.Checksum(model.DomainSnapshot, env.State)
	if err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if sum != env.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptedSnapshot)
	}

	s := &State{
		Node:        env.State.Node,
		Clock:       env.State.Clock,
		Log:         env.State.Log,
		Version:     env.State.Version,
		LastUpdated: env.State.LastUpdated,
		Devices:     env.State.Devices,
		Contexts:    env.State.Contexts,
		Documents:   env.State.Documents,
		KV:          env.State.KV,
	}
	if s.Clock == nil {
		s.Clock = model.VectorClock{}
	}
	if s.Devices == nil {
		s.Devices = map[string]string{}
	}
	if s.Contexts == nil {
		s.Contexts = map[string]string{}
	}
	if s.Documents == nil {
		s.Documents = map[string]string{}
	}
	if s.KV == nil {
		s.KV = map[string]string{}
	}
	return s, nil
}
