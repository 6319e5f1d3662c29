package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-portal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const friendshipColumns = `id, requester_id, recipient_id, status, created_at`

// FriendshipRepository handles database operations for friend requests
type FriendshipRepository struct {
	db *pgxpool.Pool
}

// NewFriendshipRepository creates a new friendship repository
func NewFriendshipRepository(db *pgxpool.Pool) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create inserts a new friend request
func (r *FriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	query := `
		INSERT INTO friendships (id, requester_id, recipient_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, f.ID, f.RequesterID, f.RecipientID, f.Status, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

func scanFriendship(row pgx.Row) (*models.Friendship, error) {
	var f models.Friendship
	err := row.Scan(&f.ID, &f.RequesterID, &f.RecipientID, &f.Status, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetBetween returns the relationship record between two users, checking both
// directions; whichever exists wins.
func (r *FriendshipRepository) GetBetween(ctx context.Context, a, b string) (*models.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (requester_id = $1 AND recipient_id = $2)
			OR (requester_id = $2 AND recipient_id = $1)
		LIMIT 1
	`
	f, err := scanFriendship(r.db.QueryRow(ctx, query, a, b))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	return f, nil
}

// Accept marks a pending request accepted; only the recipient may accept
func (r *FriendshipRepository) Accept(ctx context.Context, id, recipientID string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE friendships SET status = 'accepted' WHERE id = $1 AND recipient_id = $2 AND status = 'pending'`,
		id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to accept friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a request or friendship
func (r *FriendshipRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FriendIDs returns the user's accepted friends as a set: the union of
// accepted rows in either direction
func (r *FriendshipRepository) FriendIDs(ctx context.Context, userID string) (map[string]bool, error) {
	query := `
		SELECT requester_id, recipient_id
		FROM friendships
		WHERE status = 'accepted' AND (requester_id = $1 OR recipient_id = $1)
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend ids: %w", err)
	}
	defer rows.Close()

	friends := make(map[string]bool)
	for rows.Next() {
		var requester, recipient string
		if err := rows.Scan(&requester, &recipient); err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		if requester == userID {
			friends[recipient] = true
		} else {
			friends[requester] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friendships: %w", err)
	}
	return friends, nil
}

// ListPendingFor returns requests awaiting the user's response
func (r *FriendshipRepository) ListPendingFor(ctx context.Context, userID string) ([]*models.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE recipient_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		requests = append(requests, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending requests: %w", err)
	}
	return requests, nil
}
