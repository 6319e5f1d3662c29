package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-portal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = `id, post_id, user_id, content, parent_id, reactions, is_edited, created_at`

// CommentRepository handles database operations for comments
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, user_id, content, parent_id, reactions, is_edited, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		comment.ID, comment.PostID, comment.UserID, comment.Content,
		comment.ParentID, comment.Reactions, comment.IsEdited, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	var comment models.Comment
	err := row.Scan(
		&comment.ID, &comment.PostID, &comment.UserID, &comment.Content,
		&comment.ParentID, &comment.Reactions, &comment.IsEdited, &comment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	comment, err := scanComment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return comment, nil
}

// ListByPost returns all comments of a post in ascending creation order
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}

// Edit replaces the comment text and flags it edited
func (r *CommentRepository) Edit(ctx context.Context, id, content string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE comments SET content = $2, is_edited = true WHERE id = $1`, id, content)
	if err != nil {
		return fmt.Errorf("failed to edit comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateReactions overwrites the comment's reactions map
func (r *CommentRepository) UpdateReactions(ctx context.Context, id string, reactions models.Reactions) error {
	_, err := r.db.Exec(ctx, `UPDATE comments SET reactions = $2 WHERE id = $1`, id, reactions)
	if err != nil {
		return fmt.Errorf("failed to update comment reactions: %w", err)
	}
	return nil
}

// DeleteWithReplies hard-deletes a comment and, when it is a root, its direct
// replies. Returns the number of rows removed so the caller can decrement the
// post's denormalized counter by the same amount.
func (r *CommentRepository) DeleteWithReplies(ctx context.Context, id string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1 OR parent_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comment: %w", err)
	}
	return result.RowsAffected(), nil
}
