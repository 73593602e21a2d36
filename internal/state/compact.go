package state

import "github.com/fabn3ez/omnisyncra/internal/model"

// Compact shortens the operation log: scanning in reverse-chronological
// order, only the newest operation per distinct compaction key survives.
// Operations with no compaction key (StateSync, counter increments and
// decrements, document splices) are retained unconditionally; their
// effect depends on the entries before them, so the log would no longer
// fold to the current maps without them.
//
// Contract: compaction never changes any materialized map, the clock, or
// the version, and the compacted log still folds to the same maps, so
// later out-of-order arrivals refold correctly. It only reduces the
// history kept for future delta computation; a compacted replica may
// resend less than a peer is missing, and the peer converges on the next
// full merge.
func (s *State) Compact() *State {
	keep := make([]bool, len(s.Log))
	newest := make(map[string]bool)

	for i := len(s.Log) - 1; i >= 0; i-- {
		key := s.Log[i].CompactionKey()
		if key == "" {
			// No compaction key: the entry must survive for the log to
			// keep folding to the current maps.
			keep[i] = true
			continue
		}
		if !newest[key] {
			newest[key] = true
			keep[i] = true
		}
	}

	compacted := make([]model.Operation, 0, len(s.Log))
	for i, op := range s.Log {
		if keep[i] {
			compacted = append(compacted, op)
		}
	}

	n := s.clone()
	n.Log = compacted
	return n
}
