package usecase

import (
	"context"
	"fmt"

	repository "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/persistence/repository/port"
)

// MarkReadInput carries a read receipt to persist. ReaderID is kept for
// auditability even though the UPDATE is keyed by conversation and ids.
type MarkReadInput struct {
	ConversationID string
	ReaderID       string
	MessageIDs     []string
}

// MarkReadUseCase persists a batch read receipt. Handlers must be idempotent:
// the storage-level monotonic guard makes replays harmless.
type MarkReadUseCase struct {
	Repo repository.MessageRepository
}

func NewMarkReadUseCase(repo repository.MessageRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) error {
	if in.ConversationID == "" {
		return fmt.Errorf("conversation_id is required")
	}
	if len(in.MessageIDs) == 0 {
		return nil
	}
	if err := uc.Repo.MarkRead(ctx, in.ConversationID, in.MessageIDs); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
