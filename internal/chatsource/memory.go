package chatsource

import "sync"

// MemorySource is an in-process fake Source for tests: events pushed via
// Inject are delivered on the Events channel, mirroring the
// register/guarded-map idiom the teacher uses for its client registry,
// here applied to a single injectable event stream instead of
// per-connection state.
type MemorySource struct {
	mu     sync.Mutex
	events chan Event
	closed bool
}

// NewMemorySource builds a MemorySource with the given channel capacity.
func NewMemorySource(buffer int) *MemorySource {
	return &MemorySource{events: make(chan Event, buffer)}
}

// Inject pushes an Event as if received from the chat platform. Returns
// false if the source has been closed.
func (m *MemorySource) Inject(ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.events <- ev
	return true
}

// Events implements Source.
func (m *MemorySource) Events() <-chan Event {
	return m.events
}

// Close implements Source.
func (m *MemorySource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.events)
	return nil
}
