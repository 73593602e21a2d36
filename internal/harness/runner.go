package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fabn3ez/omnisyncra/internal/model"
	"github.com/fabn3ez/omnisyncra/internal/replica"
	"github.com/fabn3ez/omnisyncra/internal/state"
	"github.com/fabn3ez/omnisyncra/internal/store"
	"github.com/fabn3ez/omnisyncra/internal/testutil"
)

// Result is the outcome of one scenario run.
type Result struct {
	Pass   bool
	Errors []string

	// Final per-node snapshots, for golden comparison and debugging.
	Final map[string]*state.State

	// Conflicts resolved per node over the whole run.
	Conflicts map[string]int
}

// AddError records a failed expectation.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// node is one live replica under the runner's control.
type node struct {
	mgr   *replica.Manager
	clock *testutil.TickingClock
	st    store.Store
}

// Run executes a scenario against fresh in-memory replicas and checks
// its expectations. A non-nil error means the scenario itself could not
// run; expectation failures land in Result.Errors instead.
func Run(sc *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	nodes := make(map[string]*node, len(sc.Nodes))
	defer func() {
		for _, n := range nodes {
			n.st.Close()
		}
	}()

	for _, spec := range sc.Nodes {
		st, err := store.OpenSQLite(":memory:")
		if err != nil {
			return nil, fmt.Errorf("open store for %s: %w", spec.ID, err)
		}
		clock := testutil.NewTickingClock(1, 0)
		mgr, _, err := replica.Open(ctx, model.NodeID(spec.ID), st,
			replica.WithIDGenerator(testutil.NewSequenceIDs(spec.ID+"-op")),
			replica.WithWallClock(clock),
			replica.WithLogger(logger),
		)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open replica %s: %w", spec.ID, err)
		}
		nodes[spec.ID] = &node{mgr: mgr, clock: clock, st: st}
	}

	for i, step := range sc.Steps {
		if err := runStep(ctx, nodes, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	result := &Result{
		Pass:      true,
		Final:     make(map[string]*state.State, len(nodes)),
		Conflicts: make(map[string]int, len(nodes)),
	}
	for id, n := range nodes {
		result.Final[id] = n.mgr.Snapshot()
		result.Conflicts[id] = len(n.mgr.Conflicts())
	}
	checkExpectations(result, sc)
	return result, nil
}

func runStep(ctx context.Context, nodes map[string]*node, step Step) error {
	switch {
	case step.Op != nil:
		return runOpStep(ctx, nodes[step.Op.Node], step.Op)

	case step.Sync != nil:
		from, to := nodes[step.Sync.From], nodes[step.Sync.To]
		ops := from.mgr.Snapshot().OperationsSince(to.mgr.Snapshot().Clock)
		res, err := to.mgr.SyncWithPeer(ctx, from.mgr.Snapshot().Clock, ops)
		if err != nil {
			return fmt.Errorf("sync %s->%s: %w", step.Sync.From, step.Sync.To, err)
		}
		if _, err := from.mgr.ApplyRemoteOperations(ctx, res.Sent); err != nil {
			return fmt.Errorf("sync %s<-%s: %w", step.Sync.From, step.Sync.To, err)
		}
		return nil

	case step.Merge != nil:
		from, to := nodes[step.Merge.From], nodes[step.Merge.To]
		if _, err := to.mgr.MergeState(ctx, from.mgr.Snapshot()); err != nil {
			return fmt.Errorf("merge %s->%s: %w", step.Merge.From, step.Merge.To, err)
		}
		return nil

	case step.Compact != nil:
		if _, err := nodes[step.Compact.Node].mgr.Compact(ctx); err != nil {
			return fmt.Errorf("compact %s: %w", step.Compact.Node, err)
		}
		return nil
	}
	return fmt.Errorf("empty step")
}

func runOpStep(ctx context.Context, n *node, op *OpStep) error {
	n.clock.Set(op.At)

	var err error
	switch op.Type {
	case "kv_set":
		_, err = n.mgr.SetKey(ctx, op.Key, op.Value)
	case "kv_delete":
		_, err = n.mgr.DeleteKey(ctx, op.Key)
	case "kv_increment":
		_, err = n.mgr.IncrementKey(ctx, op.Key)
	case "kv_decrement":
		_, err = n.mgr.DecrementKey(ctx, op.Key)
	case "device_add":
		_, err = n.mgr.AddDevice(ctx, op.ID, op.Data)
	case "device_update":
		_, err = n.mgr.UpdateDevice(ctx, op.ID, op.Data)
	case "device_remove":
		_, err = n.mgr.RemoveDevice(ctx, op.ID)
	case "context_create":
		_, err = n.mgr.CreateContext(ctx, op.ID, op.Data)
	case "context_update":
		_, err = n.mgr.UpdateContext(ctx, op.ID, op.Data)
	case "context_delete":
		_, err = n.mgr.DeleteContext(ctx, op.ID)
	case "doc_insert":
		_, err = n.mgr.InsertText(ctx, op.ID, op.Position, op.Content)
	case "doc_delete":
		_, err = n.mgr.DeleteText(ctx, op.ID, op.Position, op.Content)
	default:
		return fmt.Errorf("unknown op type %q", op.Type)
	}
	if err != nil {
		return fmt.Errorf("%s on %s: %w", op.Type, op.Node, err)
	}
	return nil
}
