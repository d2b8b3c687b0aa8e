package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	qport "github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/queue/port"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/persistence/repository/adapter"
)

// PersistReadReceiptTaskType is the queue task name for persisting read receipts.
const PersistReadReceiptTaskType = "messaging:persist_read_receipt"

// PersistReadReceiptPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type PersistReadReceiptPayload struct {
	ConversationID string   `json:"conversationId"`
	ReaderID       string   `json:"readerId"`
	MessageIDs     []string `json:"messageIds"`
}

// RegisterPersistReadReceiptTask binds the task handler to the provided
// server. The handler executes MarkReadUseCase using the provided DB pool;
// replays are harmless because the status update is monotonic.
func RegisterPersistReadReceiptTask(srv qport.Server, pool *pgxpool.Pool) {
	srv.Register(PersistReadReceiptTaskType, func(ctx context.Context, t qport.Task) error {
		var p PersistReadReceiptPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}

		repo := repoAdapter.NewPgMessageRepository(pool)
		uc := usecase.NewMarkReadUseCase(repo)

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		return uc.Execute(ctx, usecase.MarkReadInput{
			ConversationID: p.ConversationID,
			ReaderID:       p.ReaderID,
			MessageIDs:     p.MessageIDs,
		})
	})
}
