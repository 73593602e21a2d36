package replica

// Event announces that the manager committed a new state version.
// OpID names the operation for single-operation transitions and is empty
// for bulk transitions (remote batches, merges, compaction, recovery).
type Event struct {
	Version int64
	OpID    string
}

// Subscribe registers a listener for state transitions. The returned
// channel is buffered; if a listener falls behind, events are dropped
// rather than blocking the manager, so subscribers must treat an event as
// "state changed, read the snapshot", not as a complete change feed.
func (m *Manager) Subscribe() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	m.subs = append(m.subs, ch)
	return ch
}

// Unsubscribe removes a listener and closes its channel. Unknown channels
// are ignored.
func (m *Manager) Unsubscribe(ch <-chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subs {
		if sub == ch {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

const subscriberBuffer = 16

// notifyLocked fans an event out to all subscribers without blocking.
// Callers hold m.mu.
func (m *Manager) notifyLocked(opID string) {
	ev := Event{Version: m.current.Version, OpID: opID}
	for _, sub := range m.subs {
		select {
		case sub <- ev:
		default:
			// Listener is behind; it will catch up from the snapshot.
		}
	}
}
