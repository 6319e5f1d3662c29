package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-portal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = `id, conversation_id, sender_id, text, read, reactions, reply_to,
	is_edited, is_forwarded, is_deleted, created_at`

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, text, read, reactions,
			reply_to, is_edited, is_forwarded, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Text, msg.Read, msg.Reactions,
		msg.ReplyTo, msg.IsEdited, msg.IsForwarded, msg.IsDeleted, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	err := row.Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Text, &msg.Read,
		&msg.Reactions, &msg.ReplyTo, &msg.IsEdited, &msg.IsForwarded,
		&msg.IsDeleted, &msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	msg, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// ListByConversation returns the conversation's messages in ascending
// creation order
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags a batch of messages as read
func (r *MessageRepository) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `UPDATE messages SET read = true WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// UpdateReactions overwrites the message's reactions map
func (r *MessageRepository) UpdateReactions(ctx context.Context, id string, reactions models.Reactions) error {
	_, err := r.db.Exec(ctx, `UPDATE messages SET reactions = $2 WHERE id = $1`, id, reactions)
	if err != nil {
		return fmt.Errorf("failed to update reactions: %w", err)
	}
	return nil
}

// Edit replaces the message text and flags it edited
func (r *MessageRepository) Edit(ctx context.Context, id, text string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE messages SET text = $2, is_edited = true WHERE id = $1 AND NOT is_deleted`, id, text)
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Tombstone clears the message text and marks it deleted; the row stays
func (r *MessageRepository) Tombstone(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE messages SET text = '', is_deleted = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to tombstone message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBatch permanently removes up to limit messages of a conversation and
// reports how many were removed. Callers loop until it returns 0 to stay
// within the store's per-batch operation bound.
func (r *MessageRepository) DeleteBatch(ctx context.Context, conversationID string, limit int) (int64, error) {
	query := `
		DELETE FROM messages
		WHERE id IN (
			SELECT id FROM messages WHERE conversation_id = $1 ORDER BY created_at LIMIT $2
		)
	`
	result, err := r.db.Exec(ctx, query, conversationID, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to delete message batch: %w", err)
	}
	return result.RowsAffected(), nil
}
