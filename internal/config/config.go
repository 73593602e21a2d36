package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/fabn3ez/omnisyncra/internal/model"
	"github.com/fabn3ez/omnisyncra/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// Config is one node's validated configuration.
type Config struct {
	Node  string      `json:"node"`
	Store StoreConfig `json:"store"`
	Sync  SyncConfig  `json:"sync"`
	Peers []Peer      `json:"peers,omitempty"`
}

// StoreConfig selects and locates the durable snapshot store.
type StoreConfig struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// SyncConfig holds reconciliation tuning.
type SyncConfig struct {
	RoundTimeoutMillis int64 `json:"round_timeout_ms"`
}

// Peer names another replica and the filesystem location its exported
// deltas or snapshots appear at.
type Peer struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// NodeID returns the node id as the model type.
func (c *Config) NodeID() model.NodeID {
	return model.NodeID(c.Node)
}

// RoundTimeout returns the sync round bound as a duration.
func (c *Config) RoundTimeout() time.Duration {
	return time.Duration(c.Sync.RoundTimeoutMillis) * time.Millisecond
}

// Open opens the configured store backend.
func (sc StoreConfig) Open() (store.Store, error) {
	switch sc.Backend {
	case "sqlite":
		return store.OpenSQLite(sc.Path)
	case "bolt":
		return store.OpenBolt(sc.Path)
	default:
		// The schema closes the backend set; this is unreachable for
		// configs that came through Load.
		return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}

// Load reads a CUE config file, unifies it with the embedded schema, and
// decodes the result. Schema violations are reported with file positions.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(string(data), path)
}

// Parse validates and decodes CUE config source. The filename is used
// only for error positions.
func Parse(source, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	user := ctx.CompileString(source, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	merged := schema.Unify(user)
	if err := merged.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := merged.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	return &cfg, nil
}

// ParseError is a config schema violation with the position in the
// user's file, when one is available.
type ParseError struct {
	Message string
	Pos     token.Pos
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("invalid config: %s: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("invalid config: %s", e.Message)
}

// formatCUEError surfaces the first CUE error with its position. CUE
// errors may contain several; the first one is where the user should
// start reading.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("invalid config: %w", err)
	}

	first := errs[0]
	perr := &ParseError{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		perr.Pos = positions[0]
	}
	return perr
}
