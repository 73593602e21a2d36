package replica

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fabn3ez/omnisyncra/internal/model"
	"github.com/fabn3ez/omnisyncra/internal/state"
	"github.com/fabn3ez/omnisyncra/internal/store"
)

// DefaultStoreKey is the durable store key the full snapshot is written
// under after every committed transition.
const DefaultStoreKey = "state"

// Manager owns the current replicated state for one node. All
// transitions, local and remote, are serialized under one mutex; the
// held *state.State is immutable and may be handed out freely.
type Manager struct {
	mu        sync.Mutex
	node      model.NodeID
	current   *state.State
	store     store.Store
	storeKey  string
	ids       IDGenerator
	wall      WallClock
	logger    *slog.Logger
	conflicts []model.ConflictResolution
	subs      []chan Event
}

// Option configures a Manager at Open time.
type Option func(*Manager)

// WithIDGenerator replaces the default UUIDv7 generator, typically with
// FixedIDs in tests.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Manager) { m.ids = g }
}

// WithWallClock replaces the system clock, typically with a scripted
// clock in tests.
func WithWallClock(c WallClock) Option {
	return func(m *Manager) { m.wall = c }
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithStoreKey overrides the snapshot key, letting several replicas
// share one store file in tests and tools.
func WithStoreKey(key string) Option {
	return func(m *Manager) { m.storeKey = key }
}

// RecoveryReport describes what Open found in the durable store and what
// it did about it. Callers surface it to operators; an all-zero report
// with Loaded set means a clean restart.
type RecoveryReport struct {
	Loaded        bool          // a snapshot existed in the store
	Repaired      []state.Issue // issues found and repaired on load
	Unrecoverable []state.Issue // issues that forced reinitialization
	Reinitialized bool          // state was reset to empty
	LoadError     error         // snapshot existed but could not be decoded
}

// Open loads the node's state from the durable store, repairing or
// reinitializing as needed, and returns a ready Manager. The Manager
// does not own the store; the caller closes it after Close.
func Open(ctx context.Context, node model.NodeID, st store.Store, opts ...Option) (*Manager, RecoveryReport, error) {
	if node == "" {
		return nil, RecoveryReport{}, fmt.Errorf("open replica: empty node id")
	}

	m := &Manager{
		node:     node,
		store:    st,
		storeKey: DefaultStoreKey,
		ids:      UUIDv7Generator{},
		wall:     SystemClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	report, err := m.recover(ctx)
	if err != nil {
		return nil, RecoveryReport{}, err
	}
	return m, report, nil
}

// recover loads, verifies, and if necessary repairs the persisted
// snapshot. Corrupted or unrecoverable snapshots reinitialize the node
// rather than failing startup; store errors do fail startup, since a
// broken store would also break every later persist.
func (m *Manager) recover(ctx context.Context) (RecoveryReport, error) {
	var report RecoveryReport

	blob, found, err := m.store.Get(ctx, m.storeKey)
	if err != nil {
		return report, fmt.Errorf("load snapshot: %w", err)
	}
	if !found {
		m.current = state.New(m.node)
		return report, nil
	}
	report.Loaded = true

	loaded, err := state.UnmarshalSnapshot(blob)
	if err != nil {
		m.logger.Error("persisted snapshot is corrupted; reinitializing",
			"node", m.node, "error", err)
		report.LoadError = err
		report.Reinitialized = true
		m.current = state.New(m.node)
		return report, m.persistState(ctx, m.current)
	}

	if loaded.Node != m.node {
		return report, fmt.Errorf("load snapshot: store belongs to node %q, not %q", loaded.Node, m.node)
	}

	issues := loaded.Validate()
	if len(issues) == 0 {
		m.current = loaded
		return report, nil
	}

	repaired, unrecoverable := loaded.Repair(issues)
	if len(unrecoverable) > 0 {
		m.logger.Error("persisted state is unrecoverable; reinitializing",
			"node", m.node, "issues", len(unrecoverable))
		report.Unrecoverable = unrecoverable
		report.Reinitialized = true
		m.current = state.New(m.node)
		return report, m.persistState(ctx, m.current)
	}

	m.logger.Warn("persisted state repaired on load",
		"node", m.node, "issues", len(issues))
	report.Repaired = issues
	m.current = repaired
	return report, m.persistState(ctx, m.current)
}

// Node returns the node id this manager stamps onto local operations.
func (m *Manager) Node() model.NodeID {
	return m.node
}

// Snapshot returns the current state. The value is immutable; callers
// may read it without coordination for as long as they like.
func (m *Manager) Snapshot() *state.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Conflicts returns every conflict resolution recorded since Open, in
// the order they were resolved.
func (m *Manager) Conflicts() []model.ConflictResolution {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.ConflictResolution, len(m.conflicts))
	copy(out, m.conflicts)
	return out
}

// Submit stamps a locally authored operation and commits it. The
// template carries the type and payload; id, node, timestamp, and clock
// are assigned here, under the lock, so concurrent submitters can never
// observe the same clock value.
//
// Persistence failure does not fail a local submit: the advanced state is
// kept in memory, the failure is logged at ERROR, and a later successful
// persist writes the full snapshot anyway.
func (m *Manager) Submit(ctx context.Context, template model.Operation) (model.Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op := template
	op.ID = m.ids.NewID()
	op.Node = m.node
	op.Timestamp = m.wall.NowMillis()
	op.Clock = m.current.Clock.Increment(m.node)

	next, err := m.current.Apply(op)
	if err != nil {
		return model.Operation{}, fmt.Errorf("submit: %w", err)
	}

	if err := m.persistState(ctx, next); err != nil {
		m.logger.Error("snapshot persistence failed; continuing in memory",
			"node", m.node, "op_id", op.ID, "error", err)
	}
	m.current = next
	m.notifyLocked(op.ID)
	return op, nil
}

// Compact drops every log entry superseded by a newer operation on the
// same compaction key and persists the result. Returns how many entries
// were removed. Materialized values are untouched.
func (m *Manager) Compact(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	compacted := m.current.Compact()
	removed := len(m.current.Log) - len(compacted.Log)
	if removed == 0 {
		return 0, nil
	}

	if err := m.persistState(ctx, compacted); err != nil {
		return 0, fmt.Errorf("compact not committed: %w", err)
	}
	m.current = compacted
	m.notifyLocked("")
	return removed, nil
}

// Repair validates the current state and repairs what it can, persisting
// the result. Unlike startup recovery it never reinitializes; it returns
// the unrecoverable issues for the caller to act on.
func (m *Manager) Repair(ctx context.Context) ([]state.Issue, []state.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	issues := m.current.Validate()
	if len(issues) == 0 {
		return nil, nil, nil
	}

	repaired, unrecoverable := m.current.Repair(issues)
	if len(unrecoverable) > 0 {
		return issues, unrecoverable, nil
	}

	if err := m.persistState(ctx, repaired); err != nil {
		return issues, nil, fmt.Errorf("repair not committed: %w", err)
	}
	m.current = repaired
	m.notifyLocked("")
	return issues, nil, nil
}

// Close persists the final snapshot. It does not close the store.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.persistState(ctx, m.current); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	for _, sub := range m.subs {
		close(sub)
	}
	m.subs = nil
	return nil
}

// persistState writes a snapshot blob under the store key. Callers hold
// m.mu and decide whether failure aborts the transition.
func (m *Manager) persistState(ctx context.Context, s *state.State) error {
	blob, err := s.MarshalSnapshot()
	if err != nil {
		return err
	}
	return m.store.Put(ctx, m.storeKey, blob)
}
