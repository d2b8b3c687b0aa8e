package usecase

import (
	"context"
	"fmt"

	repository "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/persistence/repository/port"
)

// MarkDeliveredInput carries a single delivery acknowledgment.
type MarkDeliveredInput struct {
	MessageID string
}

// MarkDeliveredUseCase persists a delivery acknowledgment; a row already
// read is left alone by the repository's monotonic guard.
type MarkDeliveredUseCase struct {
	Repo repository.MessageRepository
}

func NewMarkDeliveredUseCase(repo repository.MessageRepository) *MarkDeliveredUseCase {
	return &MarkDeliveredUseCase{Repo: repo}
}

func (uc *MarkDeliveredUseCase) Execute(ctx context.Context, in MarkDeliveredInput) error {
	if in.MessageID == "" {
		return fmt.Errorf("message_id is required")
	}
	if err := uc.Repo.MarkDelivered(ctx, in.MessageID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
