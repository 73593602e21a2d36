package state

import (
	"sort"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

// State is one immutable version of the replicated state. Fields are
// exported for serialization and inspection but must be treated as
// read-only; all mutation goes through Apply/Merge/Compact, which return
// new values.
type State struct {
	Node        model.NodeID
	Clock       model.VectorClock
	Log         []model.Operation // canonical order: (timestamp, node, id) ascending
	Version     int64
	LastUpdated int64 // wall-clock ms of the newest applied operation

	Devices   map[string]string
	Contexts  map[string]string
	Documents map[string]string
	KV        map[string]string
}

// New creates the initial state for a node: empty log and maps, clock
// seeded with the node's own entry at zero.
func New(node model.NodeID) *State {
	return &State{
		Node:      node,
		Clock:     model.NewVectorClock(node),
		Devices:   map[string]string{},
		Contexts:  map[string]string{},
		Documents: map[string]string{},
		KV:        map[string]string{},
	}
}

// ContainsOp reports whether an operation with the given id is in the log.
func (s *State) ContainsOp(id string) bool {
	for _, op := range s.Log {
		if op.ID == id {
			return true
		}
	}
	return false
}

// Get returns the materialized value for a key-value entry.
func (s *State) Get(key string) (string, bool) {
	v, ok := s.KV[key]
	return v, ok
}

// clone returns a deep copy of the state's own containers. Operations and
// clocks inside the log are immutable by convention and are shared.
func (s *State) clone() *State {
	n := &State{
		Node:        s.Node,
		Clock:       s.Clock.Copy(),
		Log:         make([]model.Operation, len(s.Log)),
		Version:     s.Version,
		LastUpdated: s.LastUpdated,
		Devices:     copyMap(s.Devices),
		Contexts:    copyMap(s.Contexts),
		Documents:   copyMap(s.Documents),
		KV:          copyMap(s.KV),
	}
	copy(n.Log, s.Log)
	return n
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// insertCanonical returns the log with op inserted at its canonical
// position, and the index it was placed at.
func insertCanonical(log []model.Operation, op model.Operation) ([]model.Operation, int) {
	idx := sort.Search(len(log), func(i int) bool {
		return op.Before(log[i])
	})
	log = append(log, model.Operation{})
	copy(log[idx+1:], log[idx:])
	log[idx] = op
	return log, idx
}
