package messaging

import (
	"errors"
	"strings"
	"time"
)

// Status is the delivery lifecycle stage of a message.
// Transitions are monotonic: sent -> delivered -> read, never backward.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// rank orders statuses so appliers can reject backward transitions.
func (s Status) rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is one of the known lifecycle stages.
func (s Status) Valid() bool { return s.rank() >= 0 }

// CanAdvanceTo reports whether moving from s to next is a forward transition.
// A message already read ignores a late delivered event.
func (s Status) CanAdvanceTo(next Status) bool {
	return next.Valid() && next.rank() > s.rank()
}

// UserIdentity identifies a marketplace user for the duration of a session.
// Immutable once issued by the auth collaborator.
type UserIdentity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Message is an append-only log entry in a 1:1 conversation.
// Only Status is mutable after creation.
type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	SenderID       string    `json:"sender_id" db:"sender_id"`
	ReceiverID     string    `json:"receiver_id" db:"receiver_id"`
	Body           string    `json:"body" db:"body"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	Status         Status    `json:"status" db:"status"`
}

var (
	ErrMissingParticipants = errors.New("messaging: conversation_id, sender_id and receiver_id are required")
	ErrEmptyBody           = errors.New("messaging: message body is empty")
)

// NewMessage validates and normalizes a message before it enters the system.
// A zero CreatedAt is set to now; a zero Status defaults to sent.
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID == "" || m.SenderID == "" || m.ReceiverID == "" {
		return nil, ErrMissingParticipants
	}

	m.Body = strings.TrimSpace(m.Body)
	if m.Body == "" {
		return nil, ErrEmptyBody
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.Status == "" {
		m.Status = StatusSent
	}
	if !m.Status.Valid() {
		m.Status = StatusSent
	}

	return &m, nil
}
