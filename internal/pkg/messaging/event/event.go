// Package event defines the realtime wire contract between the messaging
// client core and the gateway: event names and their JSON payload shapes.
// The transport delivers structured frames; no byte-exact protocol is implied.
package event

import (
	"encoding/json"
	"errors"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
)

// Client -> gateway intents.
const (
	Join             = "join"
	Leave            = "leave"
	SendMessage      = "send_message"
	Typing           = "typing"
	StopTyping       = "stop_typing"
	MessageDelivered = "message_delivered"
	MarkRead         = "mark_read"
)

// Gateway -> client events.
const (
	Connected     = "connected"
	PresenceState = "presence_state"
	UserOnline    = "user_online"
	UserOffline   = "user_offline"
	NewMessage    = "new_message"
	MessagesRead  = "messages_read"
	Error         = "error"
	// MessageDelivered and Typing are relayed back under their intent names.
)

// Frame is the envelope every event travels in.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

var ErrMissingType = errors.New("event: frame has no type")

// Encode wraps payload into a frame of the given type and marshals it.
func Encode(eventType string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(Frame{Type: eventType, Data: data})
}

// Decode parses a raw frame and checks it carries a type discriminator.
func Decode(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, err
	}
	if f.Type == "" {
		return Frame{}, ErrMissingType
	}
	return f, nil
}

// Payload decodes the frame data into dst.
func (f Frame) Payload(dst any) error {
	if len(f.Data) == 0 {
		return errors.New("event: frame has no data")
	}
	return json.Unmarshal(f.Data, dst)
}

type JoinPayload struct {
	ConversationID string `json:"conversation_id"`
}

type SendMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	ReceiverID     string `json:"receiver_id"`
	Body           string `json:"body"`
}

// TypingPayload serves both the outbound typing/stop_typing intents and the
// relayed gateway event; IsTyping distinguishes start from stop on the way in.
type TypingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name,omitempty"`
	IsTyping       bool   `json:"is_typing"`
}

type DeliveredPayload struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type ReadPayload struct {
	ConversationID string   `json:"conversation_id"`
	ReaderID       string   `json:"reader_id,omitempty"`
	MessageIDs     []string `json:"message_ids"`
}

type ConnectedPayload struct {
	SessionID string `json:"session_id"`
}

type PresencePayload struct {
	UserID string `json:"user_id"`
}

type PresenceStatePayload struct {
	Online []string `json:"online"`
}

// NewMessagePayload is the confirmed message as appended to the log.
type NewMessagePayload = messaging.Message

type ErrorPayload struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
