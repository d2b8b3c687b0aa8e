package client

import "sync"

// PresenceTracker maintains the set of currently-online users. It is mutated
// only by inbound presence events; there is no heartbeat or TTL, so a missing
// offline event leaves a stale entry until the next event for that user.
type PresenceTracker struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{online: make(map[string]struct{})}
}

// MarkOnline adds userID to the online set. Idempotent.
func (p *PresenceTracker) MarkOnline(userID string) {
	if userID == "" {
		return
	}
	p.mu.Lock()
	p.online[userID] = struct{}{}
	p.mu.Unlock()
}

// MarkOffline removes userID from the online set. Idempotent.
func (p *PresenceTracker) MarkOffline(userID string) {
	p.mu.Lock()
	delete(p.online, userID)
	p.mu.Unlock()
}

// Replace swaps the whole set, used when the gateway sends its presence
// snapshot on connect.
func (p *PresenceTracker) Replace(userIDs []string) {
	next := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			next[id] = struct{}{}
		}
	}
	p.mu.Lock()
	p.online = next
	p.mu.Unlock()
}

// IsOnline reports whether userID was last seen online.
func (p *PresenceTracker) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[userID]
	return ok
}

// Reset clears the set. Presence is session-scoped, not persistent.
func (p *PresenceTracker) Reset() {
	p.mu.Lock()
	p.online = make(map[string]struct{})
	p.mu.Unlock()
}
