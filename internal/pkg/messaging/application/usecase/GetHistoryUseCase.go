package usecase

import (
	"context"
	"fmt"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/identity"
	repository "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/persistence/repository/port"
)

// GetHistoryInput identifies a 1:1 thread by its two participants. The
// conversation id is derived here so the lookup API never takes one verbatim.
type GetHistoryInput struct {
	SelfID  string
	OtherID string
	Limit   int
}

// GetHistoryUseCase returns the persisted log for a conversation, oldest
// first, matching client-side arrival order.
type GetHistoryUseCase struct {
	Repo repository.MessageRepository
}

func NewGetHistoryUseCase(repo repository.MessageRepository) *GetHistoryUseCase {
	return &GetHistoryUseCase{Repo: repo}
}

func (uc *GetHistoryUseCase) Execute(ctx context.Context, in GetHistoryInput) ([]messaging.Message, error) {
	convID, err := identity.DeriveConversationID(in.SelfID, in.OtherID)
	if err != nil {
		return nil, err
	}
	msgs, err := uc.Repo.GetMessagesByConversation(ctx, convID, in.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
