package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-portal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = `id, user_id, content, image_url, reactions, likes, reply_count,
	privacy, allow_share, vibe, created_at`

// PostRepository handles database operations for feed posts
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, content, image_url, reactions, likes,
			reply_count, privacy, allow_share, vibe, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		post.ID, post.UserID, post.Content, post.ImageURL, post.Reactions, post.Likes,
		post.ReplyCount, post.Privacy, post.AllowShare, post.Vibe, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID, &post.UserID, &post.Content, &post.ImageURL, &post.Reactions,
		&post.Likes, &post.ReplyCount, &post.Privacy, &post.AllowShare,
		&post.Vibe, &post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

func (r *PostRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

// List returns posts newest first, before privacy filtering
func (r *PostRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

// ListByAuthor returns one author's posts newest first
func (r *PostRepository) ListByAuthor(ctx context.Context, userID string, limit, offset int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, offset)
}

// UpdateReactions overwrites the post's reactions map and keeps the legacy
// likes array mirroring the ❤️ bucket
func (r *PostRepository) UpdateReactions(ctx context.Context, id string, reactions models.Reactions, likes []string) error {
	if likes == nil {
		likes = []string{}
	}
	_, err := r.db.Exec(ctx, `UPDATE posts SET reactions = $2, likes = $3 WHERE id = $1`,
		id, reactions, likes)
	if err != nil {
		return fmt.Errorf("failed to update post reactions: %w", err)
	}
	return nil
}

// BumpReplyCount adjusts the denormalized comment counter
func (r *PostRepository) BumpReplyCount(ctx context.Context, id string, delta int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE posts SET reply_count = GREATEST(reply_count + $2, 0) WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to bump reply count: %w", err)
	}
	return nil
}

// Delete removes a post
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecomputeReplyCounts re-derives reply_count from the comments table and
// returns the number of rows corrected
func (r *PostRepository) RecomputeReplyCounts(ctx context.Context) (int64, error) {
	var corrected int64

	query := `
		UPDATE posts p SET reply_count = counted.n
		FROM (SELECT post_id, COUNT(*) AS n FROM comments GROUP BY post_id) counted
		WHERE counted.post_id = p.id AND p.reply_count <> counted.n
	`
	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute reply counts: %w", err)
	}
	corrected += result.RowsAffected()

	result, err = r.db.Exec(ctx, `
		UPDATE posts SET reply_count = 0
		WHERE reply_count <> 0 AND id NOT IN (SELECT DISTINCT post_id FROM comments)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to zero orphaned reply counts: %w", err)
	}
	corrected += result.RowsAffected()

	return corrected, nil
}
