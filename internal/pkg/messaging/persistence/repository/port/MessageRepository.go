package repository

import (
	"context"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
)

// MessageRepository defines persistence for the conversation log and the
// delivery lifecycle. Status writes must preserve the monotonic rule at the
// storage layer too, so a replayed event cannot regress a row.
type MessageRepository interface {
	SaveMessage(ctx context.Context, m messaging.Message) error
	GetMessagesByConversation(ctx context.Context, conversationID string, limit int) ([]messaging.Message, error)
	MarkDelivered(ctx context.Context, messageID string) error
	MarkRead(ctx context.Context, conversationID string, messageIDs []string) error
}
