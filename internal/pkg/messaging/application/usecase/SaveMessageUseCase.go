package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/identity"
	repository "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/persistence/repository/port"
)

// SaveMessageInput carries an accepted send intent ready to enter the log.
type SaveMessageInput struct {
	ConversationID string
	SenderID       string
	ReceiverID     string
	Body           string
}

// SaveMessageUseCase validates a message, assigns its id and persists it.
// The returned message is what the gateway fans out as the confirmed entry.
type SaveMessageUseCase struct {
	Repo repository.MessageRepository
}

func NewSaveMessageUseCase(repo repository.MessageRepository) *SaveMessageUseCase {
	return &SaveMessageUseCase{Repo: repo}
}

func (uc *SaveMessageUseCase) Execute(ctx context.Context, in SaveMessageInput) (*messaging.Message, error) {
	// A malformed conversation id from a peer is recomputed, not trusted.
	convID, err := identity.Resolve(in.ConversationID, in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	msg, err := messaging.NewMessage(messaging.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		Body:           in.Body,
	})
	if err != nil {
		return nil, err
	}

	if err := uc.Repo.SaveMessage(ctx, *msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msg, nil
}
