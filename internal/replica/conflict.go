package replica

import (
	"github.com/fabn3ez/omnisyncra/internal/model"
	"github.com/fabn3ez/omnisyncra/internal/state"
)

// findConflict returns an already-logged operation that conflicts with
// the incoming one: same target key, identical wall-clock timestamp,
// different origin node. StateSync operations target no entity and never
// conflict.
//
// Operations with the same target key but different timestamps are NOT
// conflicts; the canonical log order already resolves them, newest last.
func findConflict(s *state.State, incoming model.Operation) (model.Operation, bool) {
	key := incoming.TargetKey()
	if key == "" {
		return model.Operation{}, false
	}
	for _, logged := range s.Log {
		if logged.Timestamp == incoming.Timestamp &&
			logged.Node != incoming.Node &&
			logged.TargetKey() == key {
			return logged, true
		}
	}
	return model.Operation{}, false
}

// resolveConflict applies last-write-wins with the canonical tie-break:
// the greater (timestamp, node) pair wins. Both sides of a conflict share
// a timestamp, so in practice the greater node id decides, and every
// replica that observes the pair picks the same winner regardless of
// arrival order.
func resolveConflict(existing, incoming model.Operation, recordID string, now int64) model.ConflictResolution {
	winner := existing
	result := model.ResolutionReject
	if existing.Before(incoming) {
		winner = incoming
		result = model.ResolutionAccept
	}
	return model.ConflictResolution{
		ID:        recordID,
		Competing: []string{existing.ID, incoming.ID},
		Winner:    winner.ID,
		Result:    result,
		Timestamp: now,
	}
}
