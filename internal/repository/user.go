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

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

const userColumns = `id, full_name, email, student_id, role, avatar_url, cover_photo_url, bio,
	email_privacy, student_id_privacy, last_seen_privacy, last_seen, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user with its password hash
func (r *UserRepository) Create(ctx context.Context, user *models.User, passwordHash string) error {
	query := `
		INSERT INTO users (id, full_name, email, password_hash, student_id, role,
			email_privacy, student_id_privacy, last_seen_privacy, last_seen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.FullName, user.Email, passwordHash, user.StudentID, user.Role,
		user.EmailPrivacy, user.StudentIDPrivacy, user.LastSeenPrivacy,
		user.LastSeen, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.StudentID, &user.Role,
		&user.AvatarURL, &user.CoverPhotoURL, &user.Bio,
		&user.EmailPrivacy, &user.StudentIDPrivacy, &user.LastSeenPrivacy,
		&user.LastSeen, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetPasswordHash returns the stored password hash for an email login
func (r *UserRepository) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	var hash string
	err := r.db.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, userID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}
	return hash, nil
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// UpdateProfile updates the owner-editable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET full_name = $2, avatar_url = $3, cover_photo_url = $4, bio = $5,
			email_privacy = $6, student_id_privacy = $7, last_seen_privacy = $8
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		user.ID, user.FullName, user.AvatarURL, user.CoverPhotoURL, user.Bio,
		user.EmailPrivacy, user.StudentIDPrivacy, user.LastSeenPrivacy,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLastSeen stamps the user's last-seen time
func (r *UserRepository) SetLastSeen(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_seen = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("failed to set last seen: %w", err)
	}
	return nil
}

// SetResetToken stores a password-recovery token with its expiry
func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expires time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET reset_token = $2, reset_expires = $3 WHERE id = $1`,
		userID, token, expires)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

// GetByResetToken resolves an unexpired recovery token to a user
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1 AND reset_expires > now()`
	user, err := scanUser(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}
	return user, nil
}

// UpdatePassword replaces the password hash and clears any recovery token
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, reset_token = NULL, reset_expires = NULL WHERE id = $1`,
		userID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// SetTermsAccepted records the terms-acceptance timestamp
func (r *UserRepository) SetTermsAccepted(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET terms_accepted_at = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("failed to set terms accepted: %w", err)
	}
	return nil
}

// Directory returns every user's id and full name, for mention matching
func (r *UserRepository) Directory(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id, full_name FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to load user directory: %w", err)
	}
	defer rows.Close()

	directory := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan directory entry: %w", err)
		}
		directory[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating directory: %w", err)
	}
	return directory, nil
}
