package harness

import (
	"reflect"

	"github.com/fabn3ez/omnisyncra/internal/state"
)

// checkExpectations evaluates a scenario's Expect block against the
// final snapshots, recording every failure.
func checkExpectations(result *Result, sc *Scenario) {
	for _, group := range sc.Expect.Converged {
		checkConverged(result, group)
	}

	checkMapSubset(result, "kv", sc.Expect.KV, func(s *state.State) map[string]string { return s.KV })
	checkMapSubset(result, "devices", sc.Expect.Devices, func(s *state.State) map[string]string { return s.Devices })
	checkMapSubset(result, "contexts", sc.Expect.Contexts, func(s *state.State) map[string]string { return s.Contexts })
	checkMapSubset(result, "documents", sc.Expect.Documents, func(s *state.State) map[string]string { return s.Documents })

	for nodeID, want := range sc.Expect.Conflicts {
		if got := result.Conflicts[nodeID]; got != want {
			result.AddError("%s: expected %d conflict(s), got %d", nodeID, want, got)
		}
	}

	for nodeID, want := range sc.Expect.LogLength {
		snap, ok := result.Final[nodeID]
		if !ok {
			result.AddError("log_length: unknown node %q", nodeID)
			continue
		}
		if got := len(snap.Log); got != want {
			result.AddError("%s: expected log length %d, got %d", nodeID, want, got)
		}
	}
}

// checkConverged requires identical materialized maps across a group.
// Clocks and logs may legitimately differ (a rejected conflict loser
// never reaches the winner's replica), so convergence is judged on what
// users observe.
func checkConverged(result *Result, group []string) {
	if len(group) < 2 {
		return
	}
	base, ok := result.Final[group[0]]
	if !ok {
		result.AddError("converged: unknown node %q", group[0])
		return
	}
	for _, nodeID := range group[1:] {
		other, ok := result.Final[nodeID]
		if !ok {
			result.AddError("converged: unknown node %q", nodeID)
			continue
		}
		if !reflect.DeepEqual(base.KV, other.KV) {
			result.AddError("converged: kv differs between %s and %s: %v vs %v", group[0], nodeID, base.KV, other.KV)
		}
		if !reflect.DeepEqual(base.Devices, other.Devices) {
			result.AddError("converged: devices differ between %s and %s", group[0], nodeID)
		}
		if !reflect.DeepEqual(base.Contexts, other.Contexts) {
			result.AddError("converged: contexts differ between %s and %s", group[0], nodeID)
		}
		if !reflect.DeepEqual(base.Documents, other.Documents) {
			result.AddError("converged: documents differ between %s and %s", group[0], nodeID)
		}
	}
}

func checkMapSubset(result *Result, label string, want map[string]map[string]string, pick func(*state.State) map[string]string) {
	for nodeID, entries := range want {
		snap, ok := result.Final[nodeID]
		if !ok {
			result.AddError("%s: unknown node %q", label, nodeID)
			continue
		}
		got := pick(snap)
		for key, value := range entries {
			actual, present := got[key]
			if !present {
				result.AddError("%s: %s missing %q", nodeID, label, key)
				continue
			}
			if actual != value {
				result.AddError("%s: %s[%q] = %q, want %q", nodeID, label, key, actual, value)
			}
		}
	}
}
