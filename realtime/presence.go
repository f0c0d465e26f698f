package realtime

import "sync"

// Presence tracks which users have announced themselves as actively viewing
// a chat. Membership is driven only by explicit join/leave events and by
// disconnects; a user can be connected without being present here.
type Presence struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{online: make(map[string]struct{})}
}

func (p *Presence) MarkOnline(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = struct{}{}
}

// MarkOffline is idempotent, a double leave is a no-op.
func (p *Presence) MarkOffline(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
}

// Snapshot returns the online user ids in arbitrary order.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.online))
	for id := range p.online {
		ids = append(ids, id)
	}
	return ids
}
