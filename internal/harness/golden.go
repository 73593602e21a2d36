package harness

import (
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

// snapshotDocument builds the canonical-JSON-friendly view of a run's
// final states: one entry per node with its clock, materialized maps,
// log length, and version. Operation ids and wall timestamps stay out of
// it so goldens capture convergence, not id bookkeeping.
func snapshotDocument(sc *Scenario, result *Result) map[string]any {
	nodes := make(map[string]any, len(result.Final))

	ids := make([]string, 0, len(result.Final))
	for id := range result.Final {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		snap := result.Final[id]
		nodes[id] = map[string]any{
			"clock":      snap.Clock,
			"devices":    snap.Devices,
			"contexts":   snap.Contexts,
			"documents":  snap.Documents,
			"kv":         snap.KV,
			"log_length": len(snap.Log),
			"version":    snap.Version,
		}
	}

	return map[string]any{
		"scenario": sc.Name,
		"nodes":    nodes,
	}
}

// RunWithGolden executes a scenario, requires its expectations to hold,
// and compares the converged states against testdata/golden/<name>.golden.
//
// Regenerate goldens with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario) {
	t.Helper()

	result, err := Run(sc)
	if err != nil {
		t.Fatalf("scenario %s failed to run: %v", sc.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", sc.Name, msg)
	}

	blob, err := model.MarshalCanonical(snapshotDocument(sc, result))
	if err != nil {
		t.Fatalf("scenario %s: canonical snapshot: %v", sc.Name, err)
	}
	blob = append(blob, '\n')

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, sc.Name, blob)
}
