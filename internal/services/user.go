package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-portal-backend/internal/models"
	"campus-portal-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpDays      = 30
	resetTokenValid = time.Hour
)

// Mailer dispatches provider-sent mail. The portal has no SMTP integration;
// the default implementation logs the message for the operator.
type Mailer interface {
	SendPasswordReset(email, token string) error
}

// LogMailer writes outgoing mail to the log instead of sending it
type LogMailer struct{}

// SendPasswordReset logs the reset token for the operator to relay
func (LogMailer) SendPasswordReset(email, token string) error {
	log.Info().Str("email", email).Str("token", token).Msg("Password reset requested")
	return nil
}

// userStore is the slice of the user repository the account flows consume.
type userStore interface {
	Create(ctx context.Context, user *models.User, passwordHash string) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetPasswordHash(ctx context.Context, userID string) (string, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetResetToken(ctx context.Context, userID, token string, expires time.Time) error
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetTermsAccepted(ctx context.Context, userID string, at time.Time) error
}

// rosterStore gates registration on the pre-seeded roster.
type rosterStore interface {
	GetByStudentID(ctx context.Context, studentID string) (*models.RosterEntry, error)
	MarkRegistered(ctx context.Context, studentID string) error
}

// UserService handles accounts, sessions, and the roster-gated registration
type UserService struct {
	userRepo   userStore
	rosterRepo rosterStore
	mailer     Mailer
	jwtSecret  string
}

// NewUserService creates a new user service
func NewUserService(userRepo userStore, rosterRepo rosterStore, mailer Mailer, jwtSecret string) *UserService {
	return &UserService{
		userRepo:   userRepo,
		rosterRepo: rosterRepo,
		mailer:     mailer,
		jwtSecret:  jwtSecret,
	}
}

// RegisterRequest carries the registration form fields
type RegisterRequest struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	StudentID string `json:"student_id"`
}

// Register creates an account gated by the pre-seeded roster. The roster
// entry must exist (case-insensitive student id match) and must not already
// be consumed; on a consumed entry no account is created. Marking the entry
// consumed and recording terms acceptance are secondary writes: failures are
// logged and retried opportunistically later, never rolled back.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.StudentID == "" {
		return nil, fmt.Errorf("all fields are required")
	}

	entry, err := s.rosterRepo.GetByStudentID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPinNotRecognized
		}
		return nil, err
	}
	if entry.IsRegistered {
		return nil, ErrAlreadyRegistered
	}

	taken, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:               uuid.New().String(),
		FullName:         req.FullName,
		Email:            req.Email,
		StudentID:        entry.StudentID,
		Role:             entry.Role,
		EmailPrivacy:     models.PrivacyOnlyMe,
		StudentIDPrivacy: models.PrivacyOnlyMe,
		LastSeenPrivacy:  models.PrivacyPublic,
		LastSeen:         now,
		CreatedAt:        now,
	}
	if err := s.userRepo.Create(ctx, user, string(hash)); err != nil {
		return nil, err
	}

	// Secondary effects: the account is the primary effect and is kept even
	// if these fail.
	if err := s.rosterRepo.MarkRegistered(ctx, entry.StudentID); err != nil {
		log.Error().Err(err).Str("student_id", entry.StudentID).Msg("Account created but roster entry not marked consumed")
	}
	if err := s.userRepo.SetTermsAccepted(ctx, user.ID, now); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Account created but terms acceptance not recorded")
	}

	return user, nil
}

// Login verifies credentials and returns the user with a session token
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	hash, err := s.userRepo.GetPasswordHash(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// RequestPasswordReset issues a recovery token and dispatches it. An unknown
// email is logged but reported as success, so the form cannot be used to
// enumerate accounts.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info().Str("email", email).Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}
	token := uuid.New().String()
	if err := s.userRepo.SetResetToken(ctx, user.ID, token, time.Now().Add(resetTokenValid)); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(user.Email, token); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	return nil
}

// ResetPassword consumes an unexpired recovery token
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("password is required")
	}
	user, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("invalid or expired reset token")
		}
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, string(hash))
}

// GenerateJWT generates a session token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a session token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// GetUser returns a user by id
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
