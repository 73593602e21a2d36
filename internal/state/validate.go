package state

import (
	"fmt"
	"sort"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

// IssueKind categorizes problems found in a loaded state.
type IssueKind string

const (
	IssueEmptyVectorClock    IssueKind = "EMPTY_VECTOR_CLOCK"
	IssueOperationOrdering   IssueKind = "OPERATION_ORDERING_VIOLATION"
	IssueDuplicateOperations IssueKind = "DUPLICATE_OPERATIONS"
	IssueCorruptedOperation  IssueKind = "CORRUPTED_OPERATION_DATA"
	IssueMissingFields       IssueKind = "MISSING_REQUIRED_FIELDS"
)

// Recoverable reports whether Repair can fix this category in place.
// Corrupted or incomplete operation data cannot be reconstructed; the
// only safe response is discarding the persisted state and starting
// fresh, which is user-visible data loss and must be surfaced.
func (k IssueKind) Recoverable() bool {
	switch k {
	case IssueEmptyVectorClock, IssueOperationOrdering, IssueDuplicateOperations:
		return true
	default:
		return false
	}
}

// Issue is one validation finding.
type Issue struct {
	Kind   IssueKind
	Detail string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
}

// Validate inspects a loaded state for structural problems. A clean state
// returns nil.
func (s *State) Validate() []Issue {
	var issues []Issue

	if len(s.Clock) == 0 {
		issues = append(issues, Issue{
			Kind:   IssueEmptyVectorClock,
			Detail: "vector clock has no entries",
		})
	}

	for i := 1; i < len(s.Log); i++ {
		if s.Log[i].Before(s.Log[i-1]) {
			issues = append(issues, Issue{
				Kind:   IssueOperationOrdering,
				Detail: fmt.Sprintf("log position %d precedes position %d in canonical order", i, i-1),
			})
			break
		}
	}

	seen := make(map[string]bool, len(s.Log))
	for _, op := range s.Log {
		if op.ID != "" && seen[op.ID] {
			issues = append(issues, Issue{
				Kind:   IssueDuplicateOperations,
				Detail: fmt.Sprintf("operation %s appears more than once", op.ID),
			})
		}
		seen[op.ID] = true
	}

	for i, op := range s.Log {
		if op.ID == "" || op.Node == "" || op.Clock == nil || missingPayload(op) {
			issues = append(issues, Issue{
				Kind:   IssueMissingFields,
				Detail: fmt.Sprintf("log position %d is missing required fields", i),
			})
			continue
		}
		if err := op.Validate(); err != nil {
			issues = append(issues, Issue{
				Kind:   IssueCorruptedOperation,
				Detail: err.Error(),
			})
		}
	}

	return issues
}

// missingPayload reports whether the payload slot demanded by the type
// tag is absent (or the tag itself is).
func missingPayload(op model.Operation) bool {
	switch op.Type {
	case model.OpDevice:
		return op.Device == nil
	case model.OpContext:
		return op.Context == nil
	case model.OpDocument:
		return op.Document == nil
	case model.OpKeyValue:
		return op.KeyValue == nil
	case model.OpStateSync:
		return op.StateSync == nil
	default:
		return true
	}
}

// Repair fixes every recoverable issue and returns the repaired state
// plus the issues it could not fix. When unrecoverable issues remain the
// caller must discard the state and reinitialize; Repair never does that
// silently on its own.
//
// Recoverable fixes:
//   - empty vector clock: rebuilt as the per-node maximum observed across
//     the operation log, plus the node's own zero entry
//   - ordering violation: log re-sorted into canonical order
//   - duplicates: deduplicated by id, first occurrence wins
//
// After any log change the materialized maps are re-derived by folding
// the repaired log.
func (s *State) Repair(issues []Issue) (*State, []Issue) {
	var unrecoverable []Issue
	needsClock, needsSort, needsDedup := false, false, false

	for _, issue := range issues {
		switch issue.Kind {
		case IssueEmptyVectorClock:
			needsClock = true
		case IssueOperationOrdering:
			needsSort = true
		case IssueDuplicateOperations:
			needsDedup = true
		default:
			unrecoverable = append(unrecoverable, issue)
		}
	}

	if len(unrecoverable) > 0 {
		return s, unrecoverable
	}
	if !needsClock && !needsSort && !needsDedup {
		return s, nil
	}

	n := s.clone()

	if needsDedup {
		seen := make(map[string]bool, len(n.Log))
		deduped := n.Log[:0:0]
		for _, op := range n.Log {
			if seen[op.ID] {
				continue
			}
			seen[op.ID] = true
			deduped = append(deduped, op)
		}
		n.Log = deduped
	}

	if needsSort || needsDedup {
		sort.Slice(n.Log, func(i, j int) bool { return n.Log[i].Before(n.Log[j]) })
	}

	if needsClock {
		clock := model.NewVectorClock(n.Node)
		for _, op := range n.Log {
			clock = clock.Merge(op.Clock)
		}
		n.Clock = clock
	}

	n.Devices, n.Contexts, n.Documents, n.KV = foldLog(n.Log)
	return n, nil
}
