package state

import (
	"fmt"
	"strconv"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

// Apply folds one operation into the state and returns the successor
// state. Redelivery is harmless: if an operation with the same id is
// already logged, the receiver is returned unchanged. Otherwise the
// state's clock is merged with the operation's clock (pointwise max), the
// operation is inserted at its canonical log position, the version is
// incremented, and exactly one materialized map is updated per the
// operation's tag.
//
// Invalid operations leave the state untouched and return an error.
func (s *State) Apply(op model.Operation) (*State, error) {
	if err := op.Validate(); err != nil {
		return s, fmt.Errorf("apply: %w", err)
	}
	if s.ContainsOp(op.ID) {
		return s, nil
	}

	n := s.clone()
	n.Clock = n.Clock.Merge(op.Clock)
	n.Version++
	if op.Timestamp > n.LastUpdated {
		n.LastUpdated = op.Timestamp
	}

	var idx int
	n.Log, idx = insertCanonical(n.Log, op)

	if idx == len(n.Log)-1 {
		// In-order arrival: fold just this operation.
		applyToMaps(n, op)
	} else {
		// Out-of-order arrival: the canonical fold changed mid-stream,
		// so re-derive the maps from the full log.
		n.Devices, n.Contexts, n.Documents, n.KV = foldLog(n.Log)
	}
	return n, nil
}

// Materialized holds the four derived maps reconstructed from a log.
type Materialized struct {
	Devices   map[string]string
	Contexts  map[string]string
	Documents map[string]string
	KV        map[string]string
}

// Materialize recomputes the materialized view as the canonical fold of
// the operation log. Apply keeps the stored maps equal to this at all
// times; Materialize exists for the compaction contract and for repair.
func (s *State) Materialize() Materialized {
	devices, contexts, documents, kv := foldLog(s.Log)
	return Materialized{Devices: devices, Contexts: contexts, Documents: documents, KV: kv}
}

// foldLog replays a canonically ordered log into fresh maps.
func foldLog(log []model.Operation) (devices, contexts, documents, kv map[string]string) {
	devices = map[string]string{}
	contexts = map[string]string{}
	documents = map[string]string{}
	kv = map[string]string{}
	shell := &State{Devices: devices, Contexts: contexts, Documents: documents, KV: kv}
	for _, op := range log {
		applyToMaps(shell, op)
	}
	return devices, contexts, documents, kv
}

// applyToMaps performs the materialized update for one operation. The
// operation has already passed Validate, so the switch is exhaustive over
// the closed variant set.
func applyToMaps(s *State, op model.Operation) {
	switch op.Type {
	case model.OpDevice:
		p := op.Device
		if p.Kind == model.DeviceRemove {
			delete(s.Devices, p.DeviceID)
		} else {
			s.Devices[p.DeviceID] = p.Data
		}

	case model.OpContext:
		p := op.Context
		if p.Kind == model.ContextDelete {
			delete(s.Contexts, p.ContextID)
		} else {
			s.Contexts[p.ContextID] = p.Data
		}

	case model.OpDocument:
		p := op.Document
		switch p.Kind {
		case model.DocInsert:
			s.Documents[p.DocumentID] = spliceInsert(s.Documents[p.DocumentID], p.Position, p.Content)
		case model.DocDelete:
			s.Documents[p.DocumentID] = spliceDelete(s.Documents[p.DocumentID], p.Position, len([]rune(p.Content)))
		case model.DocRetain, model.DocFormat:
			// Format-only operations never alter text.
		}

	case model.OpKeyValue:
		p := op.KeyValue
		switch p.Kind {
		case model.KVSet:
			if p.Value != nil {
				s.KV[p.Key] = *p.Value
			}
		case model.KVDelete:
			delete(s.KV, p.Key)
		case model.KVIncrement:
			s.KV[p.Key] = strconv.Itoa(parseCounter(s.KV[p.Key]) + 1)
		case model.KVDecrement:
			s.KV[p.Key] = strconv.Itoa(parseCounter(s.KV[p.Key]) - 1)
		}

	case model.OpStateSync:
		// Logged and folded into clock/version bookkeeping only; the
		// snapshot payload is opaque at this layer.
	}
}

// parseCounter reads a stored value as an integer, defaulting to zero
// when absent or unparseable.
func parseCounter(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// spliceInsert inserts content at a character position, clamped to the
// document length (appending when the position runs past the end).
func spliceInsert(doc string, pos int, content string) string {
	runes := []rune(doc)
	if pos < 0 {
		pos = 0
	}
	if pos > len(runes) {
		pos = len(runes)
	}
	out := make([]rune, 0, len(runes)+len([]rune(content)))
	out = append(out, runes[:pos]...)
	out = append(out, []rune(content)...)
	out = append(out, runes[pos:]...)
	return string(out)
}

// spliceDelete removes length characters starting at pos, clamped to the
// document bounds.
func spliceDelete(doc string, pos, length int) string {
	runes := []rune(doc)
	if pos < 0 {
		pos = 0
	}
	if pos > len(runes) {
		pos = len(runes)
	}
	end := pos + length
	if end > len(runes) {
		end = len(runes)
	}
	return string(append(runes[:pos:pos], runes[end:]...))
}
