package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-portal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const conversationColumns = `id, participants, last_message, last_message_at, unread,
	pinned_by, blocked_by, deleted_by, cleared_history_at, pinned_message_id, theme,
	bookmarked_messages, created_at`

// Set-valued per-user columns that may be mutated with array union/remove.
const (
	SetPinnedBy           = "pinned_by"
	SetBlockedBy          = "blocked_by"
	SetDeletedBy          = "deleted_by"
	SetBookmarkedMessages = "bookmarked_messages"
)

var conversationSetColumns = map[string]bool{
	SetPinnedBy:           true,
	SetBlockedBy:          true,
	SetDeletedBy:          true,
	SetBookmarkedMessages: true,
}

// ConversationRepository handles database operations for conversations
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var conv models.Conversation
	err := row.Scan(
		&conv.ID, &conv.Participants, &conv.LastMessage, &conv.LastMessageTimestamp,
		&conv.Unread, &conv.PinnedBy, &conv.BlockedBy, &conv.DeletedBy,
		&conv.ClearedHistoryAt, &conv.PinnedMessageID, &conv.Theme,
		&conv.BookmarkedMessages, &conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// GetByID retrieves a conversation by its pair id
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	conv, err := scanConversation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// ListForUser returns the conversations the user participates in and has not
// soft-deleted. Ordering is left to the caller, which re-sorts by pin state
// and recency rather than trusting row order.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE $1 = ANY(participants) AND NOT ($1 = ANY(deleted_by))
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}
	return conversations, nil
}

// UpsertOnSend creates or updates the conversation summary after a message
// insert: denormalized last message fields, the recipient's unread counter
// bumped, and deleted_by reset so a hidden conversation resurfaces for
// everyone. Field-level updates keep concurrent senders commutative.
func (r *ConversationRepository) UpsertOnSend(ctx context.Context, id string, participants []string, lastMessage string, at time.Time, recipientID string) error {
	query := `
		INSERT INTO conversations (id, participants, last_message, last_message_at, unread, created_at)
		VALUES ($1, $2, $3, $4, jsonb_build_object($5::text, 1), $4)
		ON CONFLICT (id) DO UPDATE SET
			participants = EXCLUDED.participants,
			last_message = EXCLUDED.last_message,
			last_message_at = EXCLUDED.last_message_at,
			unread = jsonb_set(conversations.unread, ARRAY[$5::text],
				to_jsonb(COALESCE((conversations.unread->>$5)::int, 0) + 1)),
			deleted_by = '{}'
	`
	_, err := r.db.Exec(ctx, query, id, participants, lastMessage, at, recipientID)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation summary: %w", err)
	}
	return nil
}

// AddToSet appends the user id to one of the set-valued columns if absent
func (r *ConversationRepository) AddToSet(ctx context.Context, id, column, value string) error {
	if !conversationSetColumns[column] {
		return fmt.Errorf("not a set column: %s", column)
	}
	query := fmt.Sprintf(
		`UPDATE conversations SET %s = array_append(%s, $2) WHERE id = $1 AND NOT ($2 = ANY(%s))`,
		column, column, column)
	_, err := r.db.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("failed to add to %s: %w", column, err)
	}
	return nil
}

// RemoveFromSet removes the user id from one of the set-valued columns
func (r *ConversationRepository) RemoveFromSet(ctx context.Context, id, column, value string) error {
	if !conversationSetColumns[column] {
		return fmt.Errorf("not a set column: %s", column)
	}
	query := fmt.Sprintf(`UPDATE conversations SET %s = array_remove(%s, $2) WHERE id = $1`,
		column, column)
	_, err := r.db.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("failed to remove from %s: %w", column, err)
	}
	return nil
}

// SoftDelete hides the conversation for one user and stamps that user's
// history-clear watermark
func (r *ConversationRepository) SoftDelete(ctx context.Context, id, userID string, at time.Time) error {
	query := `
		UPDATE conversations SET
			deleted_by = CASE WHEN $2 = ANY(deleted_by) THEN deleted_by ELSE array_append(deleted_by, $2) END,
			cleared_history_at = jsonb_set(cleared_history_at, ARRAY[$2::text], to_jsonb($3::timestamptz))
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, userID, at)
	if err != nil {
		return fmt.Errorf("failed to soft delete conversation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the conversation row (messages cascade)
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearUnread zeroes the user's unread counter
func (r *ConversationRepository) ClearUnread(ctx context.Context, id, userID string) error {
	query := `UPDATE conversations SET unread = jsonb_set(unread, ARRAY[$2::text], '0'::jsonb) WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to clear unread counter: %w", err)
	}
	return nil
}

// SetPinnedMessage sets or clears the pinned message
func (r *ConversationRepository) SetPinnedMessage(ctx context.Context, id string, messageID *string) error {
	_, err := r.db.Exec(ctx, `UPDATE conversations SET pinned_message_id = $2 WHERE id = $1`, id, messageID)
	if err != nil {
		return fmt.Errorf("failed to set pinned message: %w", err)
	}
	return nil
}

// SetTheme sets the conversation theme
func (r *ConversationRepository) SetTheme(ctx context.Context, id, theme string) error {
	_, err := r.db.Exec(ctx, `UPDATE conversations SET theme = $2 WHERE id = $1`, id, theme)
	if err != nil {
		return fmt.Errorf("failed to set theme: %w", err)
	}
	return nil
}

// RecomputeSummaries re-derives last_message/last_message_at from the message
// table for every conversation whose summary drifted. Returns the number of
// rows corrected.
func (r *ConversationRepository) RecomputeSummaries(ctx context.Context) (int64, error) {
	query := `
		UPDATE conversations c SET
			last_message = latest.text,
			last_message_at = latest.created_at
		FROM (
			SELECT DISTINCT ON (conversation_id) conversation_id, text, created_at
			FROM messages
			ORDER BY conversation_id, created_at DESC
		) latest
		WHERE latest.conversation_id = c.id
			AND (c.last_message <> latest.text OR c.last_message_at <> latest.created_at)
	`
	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute conversation summaries: %w", err)
	}
	return result.RowsAffected(), nil
}
