package replica

import (
	"context"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

// Typed mutators wrapping Submit. Each builds the payload for one
// operation variant; stamping and application happen in Submit.

// AddDevice registers a device record.
func (m *Manager) AddDevice(ctx context.Context, deviceID, data string) (model.Operation, error) {
	return m.submitDevice(ctx, deviceID, data, model.DeviceAdd)
}

// UpdateDevice replaces a device record.
func (m *Manager) UpdateDevice(ctx context.Context, deviceID, data string) (model.Operation, error) {
	return m.submitDevice(ctx, deviceID, data, model.DeviceUpdate)
}

// RemoveDevice removes a device record.
func (m *Manager) RemoveDevice(ctx context.Context, deviceID string) (model.Operation, error) {
	return m.submitDevice(ctx, deviceID, "", model.DeviceRemove)
}

// ConnectDevice marks a device as connected.
func (m *Manager) ConnectDevice(ctx context.Context, deviceID, data string) (model.Operation, error) {
	return m.submitDevice(ctx, deviceID, data, model.DeviceConnect)
}

// DisconnectDevice marks a device as disconnected.
func (m *Manager) DisconnectDevice(ctx context.Context, deviceID, data string) (model.Operation, error) {
	return m.submitDevice(ctx, deviceID, data, model.DeviceDisconnect)
}

// SetDeviceCapabilities records a device capability change.
func (m *Manager) SetDeviceCapabilities(ctx context.Context, deviceID, data string) (model.Operation, error) {
	return m.submitDevice(ctx, deviceID, data, model.DeviceCapabilities)
}

// SetDeviceStatus records a device status change without replacing the
// rest of the record.
func (m *Manager) SetDeviceStatus(ctx context.Context, deviceID, status string) (model.Operation, error) {
	return m.submitDevice(ctx, deviceID, status, model.DeviceStatus)
}

func (m *Manager) submitDevice(ctx context.Context, deviceID, data string, kind model.DeviceKind) (model.Operation, error) {
	return m.Submit(ctx, model.Operation{
		Type:   model.OpDevice,
		Device: &model.DevicePayload{DeviceID: deviceID, Data: data, Kind: kind},
	})
}

// CreateContext creates a logical context.
func (m *Manager) CreateContext(ctx context.Context, contextID, data string) (model.Operation, error) {
	return m.submitContext(ctx, contextID, data, model.ContextCreate)
}

// UpdateContext replaces a context record.
func (m *Manager) UpdateContext(ctx context.Context, contextID, data string) (model.Operation, error) {
	return m.submitContext(ctx, contextID, data, model.ContextUpdate)
}

// DeleteContext removes a context.
func (m *Manager) DeleteContext(ctx context.Context, contextID string) (model.Operation, error) {
	return m.submitContext(ctx, contextID, "", model.ContextDelete)
}

// ActivateContext marks a context active.
func (m *Manager) ActivateContext(ctx context.Context, contextID, data string) (model.Operation, error) {
	return m.submitContext(ctx, contextID, data, model.ContextActivate)
}

// DeactivateContext marks a context inactive.
func (m *Manager) DeactivateContext(ctx context.Context, contextID, data string) (model.Operation, error) {
	return m.submitContext(ctx, contextID, data, model.ContextDeactivate)
}

func (m *Manager) submitContext(ctx context.Context, contextID, data string, kind model.ContextKind) (model.Operation, error) {
	return m.Submit(ctx, model.Operation{
		Type:    model.OpContext,
		Context: &model.ContextPayload{ContextID: contextID, Data: data, Kind: kind},
	})
}

// InsertText inserts content into a document at a character position.
// Positions past the end are clamped on apply.
func (m *Manager) InsertText(ctx context.Context, documentID string, position int, content string) (model.Operation, error) {
	return m.Submit(ctx, model.Operation{
		Type: model.OpDocument,
		Document: &model.DocumentPayload{
			DocumentID: documentID,
			Position:   position,
			Content:    content,
			Kind:       model.DocInsert,
		},
	})
}

// DeleteText removes a span from a document starting at a character
// position. Content identifies the removed span; only its length is used
// on apply, and ranges past the end are clamped.
func (m *Manager) DeleteText(ctx context.Context, documentID string, position int, content string) (model.Operation, error) {
	return m.Submit(ctx, model.Operation{
		Type: model.OpDocument,
		Document: &model.DocumentPayload{
			DocumentID: documentID,
			Position:   position,
			Content:    content,
			Kind:       model.DocDelete,
		},
	})
}

// SetKey writes a key-value entry.
func (m *Manager) SetKey(ctx context.Context, key, value string) (model.Operation, error) {
	return m.Submit(ctx, model.Operation{
		Type:     model.OpKeyValue,
		KeyValue: &model.KeyValuePayload{Key: key, Value: &value, Kind: model.KVSet},
	})
}

// DeleteKey removes a key-value entry.
func (m *Manager) DeleteKey(ctx context.Context, key string) (model.Operation, error) {
	return m.Submit(ctx, model.Operation{
		Type:     model.OpKeyValue,
		KeyValue: &model.KeyValuePayload{Key: key, Kind: model.KVDelete},
	})
}

// IncrementKey increments a numeric key-value entry. Absent or
// unparseable values count from zero.
func (m *Manager) IncrementKey(ctx context.Context, key string) (model.Operation, error) {
	return m.Submit(ctx, model.Operation{
		Type:     model.OpKeyValue,
		KeyValue: &model.KeyValuePayload{Key: key, Kind: model.KVIncrement},
	})
}

// DecrementKey decrements a numeric key-value entry.
func (m *Manager) DecrementKey(ctx context.Context, key string) (model.Operation, error) {
	return m.Submit(ctx, model.Operation{
		Type:     model.OpKeyValue,
		KeyValue: &model.KeyValuePayload{Key: key, Kind: model.KVDecrement},
	})
}

// SubmitStateSync records a bulk reconciliation marker carrying an
// opaque snapshot blob.
func (m *Manager) SubmitStateSync(ctx context.Context, snapshot []byte) (model.Operation, error) {
	return m.Submit(ctx, model.Operation{
		Type:      model.OpStateSync,
		StateSync: &model.StateSyncPayload{Snapshot: snapshot},
	})
}
