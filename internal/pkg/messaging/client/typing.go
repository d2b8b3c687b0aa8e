package client

import (
	"sort"
	"sync"
	"time"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/event"
)

// DefaultTypingExpiry is how long an inbound typing entry survives without a
// refresh before it is removed as if a stop had been received.
const DefaultTypingExpiry = 3 * time.Second

// emitFunc matches Manager.Emit; injected so the coordinator is testable
// without a transport.
type emitFunc func(eventType string, payload any) bool

// TypingCoordinator tracks transient per-conversation typing state.
//
// Inbound entries carry a single expiry timer slot per (conversation, user)
// key: the previous timer is always canceled before a new one is armed, so
// two overlapping timers can never race to delete an active entry.
//
// Outbound intents are not debounced here; the caller owns the keystroke
// debounce and is expected to send stop after one unit of inactivity.
type TypingCoordinator struct {
	mu     sync.Mutex
	emit   emitFunc
	expiry time.Duration

	entries map[string]map[string]string // conversation id -> user id -> display name
	timers  map[string]*time.Timer       // conversation id + "/" + user id -> expiry slot
}

func NewTypingCoordinator(emit emitFunc, expiry time.Duration) *TypingCoordinator {
	if expiry <= 0 {
		expiry = DefaultTypingExpiry
	}
	return &TypingCoordinator{
		emit:    emit,
		expiry:  expiry,
		entries: make(map[string]map[string]string),
		timers:  make(map[string]*time.Timer),
	}
}

// StartTyping emits the typing intent for the local user.
func (t *TypingCoordinator) StartTyping(conversationID string, self messaging.UserIdentity) bool {
	return t.emit(event.Typing, event.TypingPayload{
		ConversationID: conversationID,
		UserID:         self.ID,
		DisplayName:    self.DisplayName,
		IsTyping:       true,
	})
}

// StopTyping emits the stop intent. Idempotent: repeating it leaves the same
// end state on every peer.
func (t *TypingCoordinator) StopTyping(conversationID string, self messaging.UserIdentity) bool {
	return t.emit(event.StopTyping, event.TypingPayload{
		ConversationID: conversationID,
		UserID:         self.ID,
		IsTyping:       false,
	})
}

// HandlePeerTyping applies an inbound typing event. A start sets the entry
// and re-arms its expiry timer; a stop removes the entry and cancels any
// pending timer immediately.
func (t *TypingCoordinator) HandlePeerTyping(conversationID, userID, displayName string, isTyping bool) {
	if conversationID == "" || userID == "" {
		return
	}
	key := conversationID + "/" + userID

	t.mu.Lock()
	defer t.mu.Unlock()

	if !isTyping {
		t.removeLocked(conversationID, userID, key)
		return
	}

	users := t.entries[conversationID]
	if users == nil {
		users = make(map[string]string)
		t.entries[conversationID] = users
	}
	if displayName == "" {
		displayName = userID
	}
	users[userID] = displayName

	if prev, ok := t.timers[key]; ok {
		prev.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(t.expiry, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		// Only the current slot may remove the entry; a replaced timer that
		// already fired finds a different pointer here and backs off.
		if t.timers[key] != timer {
			return
		}
		t.removeLocked(conversationID, userID, key)
	})
	t.timers[key] = timer
}

// TypingUsers returns the display names currently typing in the conversation,
// sorted for stable rendering.
func (t *TypingCoordinator) TypingUsers(conversationID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	users := t.entries[conversationID]
	out := make([]string, 0, len(users))
	for _, name := range users {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ResetConversation cancels the pending timers of one conversation and drops
// its entries. Called when a chat view is torn down, so nothing stays armed
// against a view no one observes.
func (t *TypingCoordinator) ResetConversation(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for userID := range t.entries[conversationID] {
		t.removeLocked(conversationID, userID, conversationID+"/"+userID)
	}
	delete(t.entries, conversationID)
}

// Reset cancels every pending timer and clears all entries. Called on session
// teardown so no callback fires against a discarded view.
func (t *TypingCoordinator) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
	t.entries = make(map[string]map[string]string)
}

func (t *TypingCoordinator) removeLocked(conversationID, userID, key string) {
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
	if users := t.entries[conversationID]; users != nil {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.entries, conversationID)
		}
	}
}
