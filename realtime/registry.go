package realtime

import "sync"

// EventSink is one live connection able to receive named events. Send never
// blocks; a failure means the payload was dropped for that sink only.
type EventSink interface {
	Send(event string, payload any) error
}

// Registry maps user ids to their single live connection. A reconnect
// overwrites the previous handle (last connected wins). Goroutines serving
// connections run in parallel, hence the lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]EventSink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]EventSink)}
}

// Register inserts or overwrites the handle for a user.
func (r *Registry) Register(userID string, sink EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = sink
}

// Unregister removes the mapping only when sink is still the registered
// handle. A disconnect arriving after a reconnect must not evict the newer
// connection.
func (r *Registry) Unregister(userID string, sink EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[userID]; ok && current == sink {
		delete(r.sessions, userID)
	}
}

// Resolve returns the handles of the given users that are currently
// connected. Absent ids are silently omitted.
func (r *Registry) Resolve(userIDs []string) []EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sinks := make([]EventSink, 0, len(userIDs))
	for _, id := range userIDs {
		if sink, ok := r.sessions[id]; ok {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// All returns a snapshot of every registered handle.
func (r *Registry) All() []EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sinks := make([]EventSink, 0, len(r.sessions))
	for _, sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Count reports the number of live connections, for the admin dashboard.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
