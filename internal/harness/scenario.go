package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is one scripted multi-node replication run.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Nodes lists the replicas taking part. Order is irrelevant; node ids
	// must be unique.
	Nodes []NodeSpec `yaml:"nodes"`

	// Steps run in order against the named nodes.
	Steps []Step `yaml:"steps"`

	// Expect is checked after the last step.
	Expect Expect `yaml:"expect"`
}

// NodeSpec declares one replica.
type NodeSpec struct {
	ID string `yaml:"id"`
}

// Step is a tagged union: exactly one field is set.
type Step struct {
	Op      *OpStep      `yaml:"op,omitempty"`
	Sync    *SyncStep    `yaml:"sync,omitempty"`
	Merge   *MergeStep   `yaml:"merge,omitempty"`
	Compact *CompactStep `yaml:"compact,omitempty"`
}

// OpStep submits one local operation on a node at a scripted wall time.
type OpStep struct {
	Node string `yaml:"node"`
	At   int64  `yaml:"at"` // wall-clock ms stamped onto the operation
	Type string `yaml:"type"`

	Key      string `yaml:"key,omitempty"`
	Value    string `yaml:"value,omitempty"`
	ID       string `yaml:"id,omitempty"`   // device/context/document id
	Data     string `yaml:"data,omitempty"` // device/context record
	Position int    `yaml:"position,omitempty"`
	Content  string `yaml:"content,omitempty"`
}

// OpTypes lists the operation step types a scenario may script.
var OpTypes = []string{
	"kv_set", "kv_delete", "kv_increment", "kv_decrement",
	"device_add", "device_update", "device_remove",
	"context_create", "context_update", "context_delete",
	"doc_insert", "doc_delete",
}

// SyncStep runs one bidirectional reconciliation round between two nodes.
type SyncStep struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// MergeStep folds From's entire state into To.
type MergeStep struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// CompactStep compacts one node's log.
type CompactStep struct {
	Node string `yaml:"node"`
}

// Expect declares the post-run assertions.
type Expect struct {
	// Converged lists groups of nodes whose materialized maps must be
	// identical.
	Converged [][]string `yaml:"converged,omitempty"`

	// Per-node subset expectations on the materialized maps.
	KV        map[string]map[string]string `yaml:"kv,omitempty"`
	Devices   map[string]map[string]string `yaml:"devices,omitempty"`
	Contexts  map[string]map[string]string `yaml:"contexts,omitempty"`
	Documents map[string]map[string]string `yaml:"documents,omitempty"`

	// Conflicts is the exact number of conflict resolutions per node.
	Conflicts map[string]int `yaml:"conflicts,omitempty"`

	// LogLength is the exact log length per node, for compaction checks.
	LogLength map[string]int `yaml:"log_length,omitempty"`
}

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// LoadScenarios reads every *.yaml scenario in a directory, sorted by
// filename.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("missing name")
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}

	nodes := map[string]bool{}
	for _, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if nodes[n.ID] {
			return fmt.Errorf("duplicate node %q", n.ID)
		}
		nodes[n.ID] = true
	}

	knownOp := map[string]bool{}
	for _, t := range OpTypes {
		knownOp[t] = true
	}

	for i, step := range s.Steps {
		set := 0
		if step.Op != nil {
			set++
			if !nodes[step.Op.Node] {
				return fmt.Errorf("step %d: unknown node %q", i, step.Op.Node)
			}
			if !knownOp[step.Op.Type] {
				return fmt.Errorf("step %d: unknown op type %q", i, step.Op.Type)
			}
			if step.Op.At <= 0 {
				return fmt.Errorf("step %d: op needs a positive 'at' timestamp", i)
			}
		}
		if step.Sync != nil {
			set++
			if !nodes[step.Sync.From] || !nodes[step.Sync.To] {
				return fmt.Errorf("step %d: sync references unknown node", i)
			}
		}
		if step.Merge != nil {
			set++
			if !nodes[step.Merge.From] || !nodes[step.Merge.To] {
				return fmt.Errorf("step %d: merge references unknown node", i)
			}
		}
		if step.Compact != nil {
			set++
			if !nodes[step.Compact.Node] {
				return fmt.Errorf("step %d: unknown node %q", i, step.Compact.Node)
			}
		}
		if set != 1 {
			return fmt.Errorf("step %d: exactly one of op/sync/merge/compact required", i)
		}
	}
	return nil
}
