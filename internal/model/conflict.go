package model

// Resolution is the deterministic outcome of conflict resolution for the
// incoming (remote) operation: accepted into the log, or rejected in
// favor of an operation already applied.
type Resolution string

const (
	ResolutionAccept Resolution = "accept"
	ResolutionReject Resolution = "reject"
)

// ConflictResolution records one resolved conflict. A record is created
// only when two or more operations are judged to conflict: same target
// key, identical timestamp, different origin nodes.
//
// Winner always names the operation that holds the materialized value
// after resolution. Resolution describes what happened to the incoming
// operation, so every replica that observes the same pair produces the
// same Winner regardless of which side arrived first.
type ConflictResolution struct {
	ID        string     `json:"id"`
	Competing []string   `json:"competing"` // ids of all conflicting operations
	Winner    string     `json:"winner"`    // id of the winning operation
	Result    Resolution `json:"result"`    // outcome for the incoming operation
	Timestamp int64      `json:"timestamp"` // wall-clock ms at resolution time
}
