package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
)

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) SaveMessage(ctx context.Context, m messaging.Message) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMessageRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messaging.message (
			id, conversation_id, sender_id, receiver_id, body, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, m.ID, m.ConversationID, m.SenderID, m.ReceiverID, m.Body, string(m.Status), m.CreatedAt)
	return err
}

func (r *PgMessageRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int) ([]messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessageRepository: nil pool")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, receiver_id, body, status, created_at
		FROM messaging.message
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []messaging.Message
	for rows.Next() {
		var (
			msg    messaging.Message
			status string
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.ReceiverID, &msg.Body, &status, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Status = messaging.Status(status)
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

// MarkDelivered advances a sent row to delivered. Rows already delivered or
// read are left untouched; the WHERE clause is the monotonic guard.
func (r *PgMessageRepository) MarkDelivered(ctx context.Context, messageID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMessageRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE messaging.message
		SET status = 'delivered'
		WHERE id = $1 AND status = 'sent'
	`, messageID)
	return err
}

// MarkRead advances a batch of rows to read. A read row never regresses, so
// only the non-read ones match.
func (r *PgMessageRepository) MarkRead(ctx context.Context, conversationID string, messageIDs []string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMessageRepository: nil pool")
	}
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE messaging.message
		SET status = 'read'
		WHERE conversation_id = $1 AND id = ANY($2) AND status <> 'read'
	`, conversationID, messageIDs)
	return err
}
