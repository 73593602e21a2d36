package state

import (
	"fmt"
	"sort"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

// Merge reconciles two states into one converged state: the clocks merge
// pointwise, the logs union (deduplicated by operation id), and the union
// is replayed through Apply in canonical order starting from an empty log
// with the merged clock pre-seeded. Version becomes the maximum of both
// inputs.
//
// Because the replay order is a total order derived only from operation
// content, Merge is commutative and associative in its materialized
// result.
func (s *State) Merge(other *State) (*State, error) {
	union := make([]model.Operation, 0, len(s.Log)+len(other.Log))
	seen := make(map[string]bool, len(s.Log)+len(other.Log))
	for _, log := range [][]model.Operation{s.Log, other.Log} {
		for _, op := range log {
			if seen[op.ID] {
				continue
			}
			seen[op.ID] = true
			union = append(union, op)
		}
	}
	sort.Slice(union, func(i, j int) bool { return union[i].Before(union[j]) })

	merged := New(s.Node)
	merged.Clock = s.Clock.Merge(other.Clock)

	for _, op := range union {
		next, err := merged.Apply(op)
		if err != nil {
			return nil, fmt.Errorf("merge: replay %s: %w", op.ID, err)
		}
		merged = next
	}

	merged.Version = maxInt64(s.Version, other.Version)
	merged.LastUpdated = maxInt64(s.LastUpdated, other.LastUpdated)
	return merged, nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
