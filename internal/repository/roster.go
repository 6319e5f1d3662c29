package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-portal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RosterRepository reads the pre-seeded registration roster
type RosterRepository struct {
	db *pgxpool.Pool
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(db *pgxpool.Pool) *RosterRepository {
	return &RosterRepository{db: db}
}

// GetByStudentID looks up a roster entry, matching the student id
// case-insensitively
func (r *RosterRepository) GetByStudentID(ctx context.Context, studentID string) (*models.RosterEntry, error) {
	query := `
		SELECT student_id, full_name, role, is_registered
		FROM roster
		WHERE LOWER(student_id) = LOWER($1)
	`
	var entry models.RosterEntry
	err := r.db.QueryRow(ctx, query, studentID).Scan(
		&entry.StudentID, &entry.FullName, &entry.Role, &entry.IsRegistered,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get roster entry: %w", err)
	}
	return &entry, nil
}

// MarkRegistered marks a roster entry as consumed
func (r *RosterRepository) MarkRegistered(ctx context.Context, studentID string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE roster SET is_registered = true WHERE LOWER(student_id) = LOWER($1)`, studentID)
	if err != nil {
		return fmt.Errorf("failed to mark roster entry registered: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
