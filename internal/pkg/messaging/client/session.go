package client

import (
	"context"
	"log"
	"sync"
	"time"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/event"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/identity"
)

// Session is the public surface chat views consume. It composes the
// connection manager, presence tracker, message store, typing coordinator and
// delivery tracker, and owns the fixed inbound dispatch table.
//
// The local identity is held here and passed explicitly into every handler;
// nothing reads the current user from ambient state.
type Session struct {
	self    messaging.UserIdentity
	manager *Manager

	presence *PresenceTracker
	store    *MessageStore
	typing   *TypingCoordinator
	delivery *DeliveryTracker
	history  HistoryClient

	mu     sync.Mutex
	active string // conversation currently on screen; "" when none
}

// SessionConfig carries the optional collaborators and tunables.
type SessionConfig struct {
	History      HistoryClient
	Receipts     ReceiptSink
	TypingExpiry time.Duration
}

// NewSession builds the messaging core for one authenticated user and
// installs the inbound event table on the manager. Each event name routes to
// exactly one tracker.
func NewSession(self messaging.UserIdentity, manager *Manager, cfg SessionConfig) *Session {
	s := &Session{
		self:     self,
		manager:  manager,
		presence: NewPresenceTracker(),
		store:    NewMessageStore(),
		history:  cfg.History,
	}
	s.typing = NewTypingCoordinator(manager.Emit, cfg.TypingExpiry)
	s.delivery = NewDeliveryTracker(s.store, manager.Emit, cfg.Receipts)

	manager.Subscribe(map[string]Handler{
		event.NewMessage:       s.handleNewMessage,
		event.MessageDelivered: s.handleDelivered,
		event.MessagesRead:     s.handleRead,
		event.Typing:           s.handleTyping,
		event.UserOnline:       s.handleUserOnline,
		event.UserOffline:      s.handleUserOffline,
		event.PresenceState:    s.handlePresenceState,
	})
	manager.OnDown(s.resetState)

	return s
}

// Self returns the immutable local identity.
func (s *Session) Self() messaging.UserIdentity { return s.self }

// ConversationID derives the canonical id for a thread with otherID.
func (s *Session) ConversationID(otherID string) (string, error) {
	return identity.DeriveConversationID(s.self.ID, otherID)
}

// Connect opens the singleton connection for the local user.
func (s *Session) Connect(token string) error {
	return s.manager.Connect(s.self.ID, token)
}

// IsConnected mirrors the manager's observable flag.
func (s *Session) IsConnected() bool { return s.manager.IsConnected() }

// Open joins the conversation with other, merges persisted history into the
// log and makes it the active view. Returns the conversation id.
func (s *Session) Open(ctx context.Context, other messaging.UserIdentity) (string, error) {
	convID, err := identity.DeriveConversationID(s.self.ID, other.ID)
	if err != nil {
		return "", err
	}

	s.manager.Emit(event.Join, event.JoinPayload{ConversationID: convID})
	s.mu.Lock()
	s.active = convID
	s.mu.Unlock()

	if s.history != nil {
		msgs, err := s.history.History(ctx, s.self.ID, other.ID)
		if err != nil {
			// A missing transcript is not fatal; the live feed still works.
			log.Printf("client: history for %s: %v", convID, err)
		} else {
			for i := range msgs {
				// History rows may carry ids written by an older scheme; a
				// malformed one is re-derived, never trusted verbatim.
				msgs[i].ConversationID, _ = identity.Resolve(msgs[i].ConversationID, s.self.ID, other.ID)
			}
			s.store.Merge(convID, msgs)
		}
	}

	return convID, nil
}

// SetActive marks the conversation currently on screen; inbound messages for
// it do not count as unread.
func (s *Session) SetActive(conversationID string) {
	s.mu.Lock()
	s.active = conversationID
	s.mu.Unlock()
}

// LeaveActive clears the active view and cancels its typing timers, so no
// expiry callback fires against a discarded view.
func (s *Session) LeaveActive() {
	s.mu.Lock()
	convID := s.active
	s.active = ""
	s.mu.Unlock()
	if convID != "" {
		s.manager.Emit(event.Leave, event.JoinPayload{ConversationID: convID})
		s.typing.StopTyping(convID, s.self)
		s.typing.ResetConversation(convID)
	}
}

// SendMessage issues a send intent. The message enters the store only when
// the confirmed new_message event comes back, including for the sender's own
// copy; there is no optimistic local echo. Returns false when disconnected.
func (s *Session) SendMessage(receiverID, body, conversationID string) bool {
	convID, err := identity.Resolve(conversationID, s.self.ID, receiverID)
	if err != nil {
		return false
	}
	return s.manager.Emit(event.SendMessage, event.SendMessagePayload{
		ConversationID: convID,
		ReceiverID:     receiverID,
		Body:           body,
	})
}

// StartTyping signals the local user is composing. The caller owns the
// keystroke debounce and the stop-after-inactivity contract.
func (s *Session) StartTyping(conversationID, peerID string) bool {
	_ = peerID // routing is by conversation room; kept for the view contract
	return s.typing.StartTyping(conversationID, s.self)
}

// StopTyping signals composing stopped. Idempotent.
func (s *Session) StopTyping(conversationID, peerID string) bool {
	_ = peerID
	return s.typing.StopTyping(conversationID, s.self)
}

// MarkRead reports a set of visible messages as read and resets the unread
// counter for the conversation.
func (s *Session) MarkRead(ctx context.Context, conversationID string, messageIDs []string) bool {
	return s.delivery.RequestRead(ctx, conversationID, s.self.ID, messageIDs)
}

// Messages returns the conversation log in arrival order.
func (s *Session) Messages(conversationID string) []messaging.Message {
	return s.store.Messages(conversationID)
}

// TypingUsers returns display names currently typing in the conversation.
func (s *Session) TypingUsers(conversationID string) []string {
	return s.typing.TypingUsers(conversationID)
}

// IsUserOnline reports the last known presence of userID.
func (s *Session) IsUserOnline(userID string) bool {
	return s.presence.IsOnline(userID)
}

// UnreadCount returns the unread counter for a conversation.
func (s *Session) UnreadCount(conversationID string) int {
	return s.delivery.UnreadCount(conversationID)
}

// Close tears the session down: leaves the active view, disconnects the
// transport and clears every session-scoped cache exactly once.
func (s *Session) Close() {
	s.LeaveActive()
	s.manager.Disconnect()
}

func (s *Session) resetState() {
	s.typing.Reset()
	s.presence.Reset()
	s.store.Reset()
	s.delivery.Reset()
	s.mu.Lock()
	s.active = ""
	s.mu.Unlock()
}

func (s *Session) handleNewMessage(f event.Frame) {
	var msg messaging.Message
	if err := f.Payload(&msg); err != nil {
		log.Printf("client: new_message payload: %v", err)
		return
	}
	msg.ConversationID, _ = identity.Resolve(msg.ConversationID, msg.SenderID, msg.ReceiverID)
	if msg.ConversationID == "" {
		return
	}
	if !s.store.Append(msg) {
		return // duplicate delivery, already in the log
	}

	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	s.delivery.RecordInbound(msg, s.self.ID, active)

	// The receiving side acknowledges delivery so the sender's copy advances.
	if msg.ReceiverID == s.self.ID {
		s.manager.Emit(event.MessageDelivered, event.DeliveredPayload{
			MessageID:      msg.ID,
			ConversationID: msg.ConversationID,
		})
	}
}

func (s *Session) handleDelivered(f event.Frame) {
	var p event.DeliveredPayload
	if err := f.Payload(&p); err != nil {
		return
	}
	s.delivery.MarkDelivered(p.MessageID)
}

func (s *Session) handleRead(f event.Frame) {
	var p event.ReadPayload
	if err := f.Payload(&p); err != nil {
		return
	}
	s.delivery.MarkRead(p.MessageIDs)
}

func (s *Session) handleTyping(f event.Frame) {
	var p event.TypingPayload
	if err := f.Payload(&p); err != nil {
		return
	}
	if p.UserID == s.self.ID {
		return // a relayed echo of our own intent is not peer typing
	}
	s.typing.HandlePeerTyping(p.ConversationID, p.UserID, p.DisplayName, p.IsTyping)
}

func (s *Session) handleUserOnline(f event.Frame) {
	var p event.PresencePayload
	if err := f.Payload(&p); err != nil {
		return
	}
	s.presence.MarkOnline(p.UserID)
}

func (s *Session) handleUserOffline(f event.Frame) {
	var p event.PresencePayload
	if err := f.Payload(&p); err != nil {
		return
	}
	s.presence.MarkOffline(p.UserID)
}

func (s *Session) handlePresenceState(f event.Frame) {
	var p event.PresenceStatePayload
	if err := f.Payload(&p); err != nil {
		return
	}
	s.presence.Replace(p.Online)
}
