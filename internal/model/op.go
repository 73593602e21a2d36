package model

import (
	"fmt"
)

// OpType tags the operation variant. The set is closed: every switch over
// OpType in this module handles all five cases and treats anything else as
// an error, so a new variant cannot silently skip a code path.
type OpType string

const (
	OpDevice    OpType = "device"
	OpContext   OpType = "context"
	OpDocument  OpType = "document"
	OpKeyValue  OpType = "key_value"
	OpStateSync OpType = "state_sync"
)

// DeviceKind is the sub-kind of a device update.
type DeviceKind string

const (
	DeviceAdd          DeviceKind = "add"
	DeviceUpdate       DeviceKind = "update"
	DeviceRemove       DeviceKind = "remove"
	DeviceConnect      DeviceKind = "connect"
	DeviceDisconnect   DeviceKind = "disconnect"
	DeviceCapabilities DeviceKind = "capabilities"
	DeviceStatus       DeviceKind = "status"
)

// ContextKind is the sub-kind of a context update.
type ContextKind string

const (
	ContextCreate     ContextKind = "create"
	ContextUpdate     ContextKind = "update"
	ContextDelete     ContextKind = "delete"
	ContextActivate   ContextKind = "activate"
	ContextDeactivate ContextKind = "deactivate"
	ContextMerge      ContextKind = "merge"
	ContextSplit      ContextKind = "split"
)

// DocumentKind is the sub-kind of a document update.
type DocumentKind string

const (
	DocInsert DocumentKind = "insert"
	DocDelete DocumentKind = "delete"
	DocRetain DocumentKind = "retain"
	DocFormat DocumentKind = "format"
)

// KeyValueKind is the sub-kind of a key-value update.
type KeyValueKind string

const (
	KVSet       KeyValueKind = "set"
	KVDelete    KeyValueKind = "delete"
	KVIncrement KeyValueKind = "increment"
	KVDecrement KeyValueKind = "decrement"
)

// DevicePayload targets a device entry in the materialized device map.
type DevicePayload struct {
	DeviceID string     `json:"device_id"`
	Data     string     `json:"data,omitempty"` // serialized device record
	Kind     DeviceKind `json:"kind"`
}

// ContextPayload targets a logical context entry.
type ContextPayload struct {
	ContextID string      `json:"context_id"`
	Data      string      `json:"data,omitempty"` // serialized context record
	Kind      ContextKind `json:"kind"`
}

// DocumentPayload targets a document. Position is a character (rune)
// offset; positions past the end of the document are clamped on apply.
type DocumentPayload struct {
	DocumentID string       `json:"document_id"`
	Position   int          `json:"position"`
	Content    string       `json:"content,omitempty"`
	Kind       DocumentKind `json:"kind"`
}

// KeyValuePayload targets a key in the materialized key-value map.
// Value is a pointer so that "set with absent value" (a no-op on apply)
// is distinguishable from setting an empty string.
type KeyValuePayload struct {
	Key   string       `json:"key"`
	Value *string      `json:"value,omitempty"`
	Kind  KeyValueKind `json:"kind"`
}

// StateSyncPayload carries an opaque full-state snapshot for bulk
// reconciliation. The engine records it in the log and folds it into
// clock/version bookkeeping; interpreting the snapshot is a higher
// layer's business.
type StateSyncPayload struct {
	Snapshot []byte `json:"snapshot"`
}

// Operation is one immutable mutation intent. Exactly one payload field
// matching Type is non-nil.
//
// The envelope fields (ID, Node, Timestamp, Clock) are uniform across all
// variants so transport and storage code never inspect payloads.
type Operation struct {
	ID        string      `json:"id"`
	Node      NodeID      `json:"node"`
	Timestamp int64       `json:"timestamp"` // wall-clock milliseconds
	Clock     VectorClock `json:"clock"`
	Type      OpType      `json:"type"`

	Device    *DevicePayload    `json:"device,omitempty"`
	Context   *ContextPayload   `json:"context,omitempty"`
	Document  *DocumentPayload  `json:"document,omitempty"`
	KeyValue  *KeyValuePayload  `json:"key_value,omitempty"`
	StateSync *StateSyncPayload `json:"state_sync,omitempty"`
}

// TargetKey returns the entity key two operations must share to be
// conflict candidates: device id, context id, document id plus position,
// or key. StateSync operations target no entity and return "".
func (o Operation) TargetKey() string {
	switch o.Type {
	case OpDevice:
		return "device/" + o.Device.DeviceID
	case OpContext:
		return "context/" + o.Context.ContextID
	case OpDocument:
		return fmt.Sprintf("document/%s@%d", o.Document.DocumentID, o.Document.Position)
	case OpKeyValue:
		return "kv/" + o.KeyValue.Key
	case OpStateSync:
		return ""
	default:
		return ""
	}
}

// CompactionKey returns the key used by log compaction: the newest
// operation per compaction key is retained, and operations returning ""
// are never compacted away.
//
// Only operations whose effect fully determines their entity's final
// value get a key. Counter increments, document splices, and set
// operations without a value all depend on the log entries before them,
// so dropping anything older than them would change what the log folds
// to; they return "", as does StateSync.
func (o Operation) CompactionKey() string {
	switch o.Type {
	case OpDocument:
		return ""
	case OpKeyValue:
		switch {
		case o.KeyValue.Kind == KVIncrement, o.KeyValue.Kind == KVDecrement:
			return ""
		case o.KeyValue.Kind == KVSet && o.KeyValue.Value == nil:
			return ""
		}
	}
	return o.TargetKey()
}

// Before reports whether o precedes other in canonical log order:
// timestamp ascending, ties broken by node, then by id. The order is
// total for distinct operations, which is what makes replay-based merge
// commutative.
func (o Operation) Before(other Operation) bool {
	if o.Timestamp != other.Timestamp {
		return o.Timestamp < other.Timestamp
	}
	if o.Node != other.Node {
		return o.Node < other.Node
	}
	return o.ID < other.ID
}

// Validate checks that the envelope and the payload matching the type tag
// are present and well formed. Operations failing validation are treated
// as corrupted by startup repair.
func (o Operation) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("operation missing id")
	}
	if o.Node == "" {
		return fmt.Errorf("operation %s: missing node", o.ID)
	}
	if o.Clock == nil {
		return fmt.Errorf("operation %s: missing vector clock", o.ID)
	}

	switch o.Type {
	case OpDevice:
		if o.Device == nil {
			return fmt.Errorf("operation %s: device payload missing", o.ID)
		}
		if o.Device.DeviceID == "" {
			return fmt.Errorf("operation %s: device payload missing device_id", o.ID)
		}
		if !validDeviceKind(o.Device.Kind) {
			return fmt.Errorf("operation %s: unknown device kind %q", o.ID, o.Device.Kind)
		}
	case OpContext:
		if o.Context == nil {
			return fmt.Errorf("operation %s: context payload missing", o.ID)
		}
		if o.Context.ContextID == "" {
			return fmt.Errorf("operation %s: context payload missing context_id", o.ID)
		}
		if !validContextKind(o.Context.Kind) {
			return fmt.Errorf("operation %s: unknown context kind %q", o.ID, o.Context.Kind)
		}
	case OpDocument:
		if o.Document == nil {
			return fmt.Errorf("operation %s: document payload missing", o.ID)
		}
		if o.Document.DocumentID == "" {
			return fmt.Errorf("operation %s: document payload missing document_id", o.ID)
		}
		if o.Document.Position < 0 {
			return fmt.Errorf("operation %s: negative document position %d", o.ID, o.Document.Position)
		}
		if !validDocumentKind(o.Document.Kind) {
			return fmt.Errorf("operation %s: unknown document kind %q", o.ID, o.Document.Kind)
		}
	case OpKeyValue:
		if o.KeyValue == nil {
			return fmt.Errorf("operation %s: key_value payload missing", o.ID)
		}
		if o.KeyValue.Key == "" {
			return fmt.Errorf("operation %s: key_value payload missing key", o.ID)
		}
		if !validKeyValueKind(o.KeyValue.Kind) {
			return fmt.Errorf("operation %s: unknown key_value kind %q", o.ID, o.KeyValue.Kind)
		}
	case OpStateSync:
		if o.StateSync == nil {
			return fmt.Errorf("operation %s: state_sync payload missing", o.ID)
		}
	default:
		return fmt.Errorf("operation %s: unknown type %q", o.ID, o.Type)
	}
	return nil
}

func validDeviceKind(k DeviceKind) bool {
	switch k {
	case DeviceAdd, DeviceUpdate, DeviceRemove, DeviceConnect,
		DeviceDisconnect, DeviceCapabilities, DeviceStatus:
		return true
	}
	return false
}

func validContextKind(k ContextKind) bool {
	switch k {
	case ContextCreate, ContextUpdate, ContextDelete, ContextActivate,
		ContextDeactivate, ContextMerge, ContextSplit:
		return true
	}
	return false
}

func validDocumentKind(k DocumentKind) bool {
	switch k {
	case DocInsert, DocDelete, DocRetain, DocFormat:
		return true
	}
	return false
}

func validKeyValueKind(k KeyValueKind) bool {
	switch k {
	case KVSet, KVDelete, KVIncrement, KVDecrement:
		return true
	}
	return false
}
