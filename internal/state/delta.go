package state

import "github.com/fabn3ez/omnisyncra/internal/model"

// OperationsSince returns every logged operation whose own clock is not
// dominated by the given clock, in canonical order. This is the primitive
// behind sync delta computation: a peer presenting its clock receives
// exactly the operations that clock cannot account for.
//
// An operation is excluded only when the peer's clock is >= the
// operation's clock in every coordinate. Operations concurrent with the
// peer's clock are deliberately included; a duplicate on the receiving
// side is absorbed by Apply's idempotency check, so over-inclusion costs
// bandwidth, never correctness.
func (s *State) OperationsSince(clock model.VectorClock) []model.Operation {
	var missing []model.Operation
	for _, op := range s.Log {
		if !clock.Dominates(op.Clock) {
			missing = append(missing, op)
		}
	}
	return missing
}
