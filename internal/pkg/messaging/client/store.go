package client

import (
	"sync"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
)

// MessageStore is the append-only, conversation-keyed log rendered by chat
// views. Entries keep arrival order and are never reordered or truncated;
// only the status field mutates, and only forward.
//
// An id-presence check runs before every insert so duplicate delivery of the
// same inbound event (reconnect-and-replay transports) cannot duplicate a
// rendered entry.
type MessageStore struct {
	mu   sync.RWMutex
	logs map[string][]messaging.Message
	// byID maps message id -> conversation id. Status updates arrive without
	// a conversation id in some event shapes, and the same index backs the
	// idempotency check.
	byID map[string]string
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		logs: make(map[string][]messaging.Message),
		byID: make(map[string]string),
	}
}

// Append inserts msg at the tail of its conversation log. It reports false
// when a message with the same id is already present.
func (s *MessageStore) Append(msg messaging.Message) bool {
	if msg.ID == "" || msg.ConversationID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byID[msg.ID]; dup {
		return false
	}
	s.logs[msg.ConversationID] = append(s.logs[msg.ConversationID], msg)
	s.byID[msg.ID] = msg.ConversationID
	return true
}

// Merge seeds a conversation from persisted history, skipping entries whose
// ids already arrived over the live connection. Returns how many were added.
func (s *MessageStore) Merge(conversationID string, history []messaging.Message) int {
	added := 0
	for _, msg := range history {
		if msg.ConversationID == "" {
			msg.ConversationID = conversationID
		}
		if s.Append(msg) {
			added++
		}
	}
	return added
}

// UpdateStatus applies the monotonic transition rule to the message with the
// given id, wherever its conversation is. No-op when the id is unknown or the
// transition would move backward.
func (s *MessageStore) UpdateStatus(messageID string, next messaging.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	convID, ok := s.byID[messageID]
	if !ok {
		return false
	}
	entries := s.logs[convID]
	for i := range entries {
		if entries[i].ID != messageID {
			continue
		}
		if !entries[i].Status.CanAdvanceTo(next) {
			return false
		}
		entries[i].Status = next
		return true
	}
	return false
}

// Messages returns a copy of the conversation log in arrival order. Unknown
// conversation ids yield an empty slice; that is the steady state for a
// brand-new conversation, not an error.
func (s *MessageStore) Messages(conversationID string) []messaging.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.logs[conversationID]
	out := make([]messaging.Message, len(entries))
	copy(out, entries)
	return out
}

// Reset drops all logs. The store is a session-scoped cache rebuilt from the
// history collaborator after a reconnect.
func (s *MessageStore) Reset() {
	s.mu.Lock()
	s.logs = make(map[string][]messaging.Message)
	s.byID = make(map[string]string)
	s.mu.Unlock()
}
