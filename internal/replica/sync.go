package replica

import (
	"context"
	"fmt"

	"github.com/fabn3ez/omnisyncra/internal/model"
	"github.com/fabn3ez/omnisyncra/internal/state"
)

// RemoteResult summarizes one committed remote batch.
type RemoteResult struct {
	Applied   int // operations folded into the state
	Skipped   int // duplicates and rejected conflict losers
	Conflicts []model.ConflictResolution
}

// SyncResult summarizes one sync round with a peer.
type SyncResult struct {
	Sent      []model.Operation // what the peer is missing, canonical order
	Applied   int
	Skipped   int
	Conflicts []model.ConflictResolution
}

// ApplyRemoteOperations folds a batch of peer-authored operations into
// the state, all-or-nothing: the batch is staged against a scratch state
// and only committed (swapped in and persisted) when every operation
// validated and the snapshot write succeeded. A failed batch leaves the
// replica exactly where it was, including its conflict records.
//
// Duplicates are skipped without error. Conflicting operations are
// resolved by last-write-wins; losers are skipped and the resolution is
// recorded either way.
func (m *Manager) ApplyRemoteOperations(ctx context.Context, ops []model.Operation) (RemoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyRemoteLocked(ctx, ops)
}

func (m *Manager) applyRemoteLocked(ctx context.Context, ops []model.Operation) (RemoteResult, error) {
	staged := m.current
	var res RemoteResult
	for _, op := range ops {
		// Validate before anything touches the payload; TargetKey assumes
		// a well-formed operation.
		if err := op.Validate(); err != nil {
			return RemoteResult{}, fmt.Errorf("remote operation rejected: %w", err)
		}
		if staged.ContainsOp(op.ID) {
			res.Skipped++
			continue
		}
		if existing, ok := findConflict(staged, op); ok {
			rec := resolveConflict(existing, op, m.ids.NewID(), m.wall.NowMillis())
			res.Conflicts = append(res.Conflicts, rec)
			if rec.Result == model.ResolutionReject {
				res.Skipped++
				continue
			}
		}
		next, err := staged.Apply(op)
		if err != nil {
			return RemoteResult{}, fmt.Errorf("remote operation %s rejected: %w", op.ID, err)
		}
		staged = next
		res.Applied++
	}

	if staged != m.current {
		if err := m.persistState(ctx, staged); err != nil {
			return RemoteResult{}, fmt.Errorf("remote batch not committed: %w", err)
		}
		m.current = staged
		m.notifyLocked("")
	}
	m.conflicts = append(m.conflicts, res.Conflicts...)
	return res, nil
}

// SyncWithPeer performs one round of bidirectional reconciliation:
// compute the operations the peer's clock does not dominate (for the
// caller to send), then fold the peer's batch in. The round is bounded
// by ctx; transport sits above this layer, so cancellation here covers
// only the local fold and persist.
func (m *Manager) SyncWithPeer(ctx context.Context, peerClock model.VectorClock, peerOps []model.Operation) (SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return SyncResult{}, err
	}

	sent := m.current.OperationsSince(peerClock)
	res, err := m.applyRemoteLocked(ctx, peerOps)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync round failed: %w", err)
	}
	return SyncResult{
		Sent:      sent,
		Applied:   res.Applied,
		Skipped:   res.Skipped,
		Conflicts: res.Conflicts,
	}, nil
}

// MergeState folds an entire foreign state in, commutatively and
// all-or-nothing, and returns how many operations were gained. Used for
// bulk reconciliation when a per-operation exchange would be wasteful,
// such as a node returning after a long partition.
func (m *Manager) MergeState(ctx context.Context, other *state.State) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	merged, err := m.current.Merge(other)
	if err != nil {
		return 0, fmt.Errorf("merge: %w", err)
	}
	gained := len(merged.Log) - len(m.current.Log)

	if err := m.persistState(ctx, merged); err != nil {
		return 0, fmt.Errorf("merge not committed: %w", err)
	}
	m.current = merged
	if gained > 0 {
		m.notifyLocked("")
	}
	return gained, nil
}
