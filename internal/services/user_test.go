package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"campus-portal-backend/internal/models"
	"campus-portal-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserStore struct {
	users   map[string]*models.User
	hashes  map[string]string
	byEmail map[string]string
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		users:   make(map[string]*models.User),
		hashes:  make(map[string]string),
		byEmail: make(map[string]string),
	}
}

func (s *memUserStore) Create(_ context.Context, user *models.User, passwordHash string) error {
	s.users[user.ID] = user
	s.hashes[user.ID] = passwordHash
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.users[id], nil
}

func (s *memUserStore) GetPasswordHash(_ context.Context, userID string) (string, error) {
	hash, ok := s.hashes[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return hash, nil
}

func (s *memUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *memUserStore) SetResetToken(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

func (s *memUserStore) GetByResetToken(_ context.Context, _ string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (s *memUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.hashes[userID] = passwordHash
	return nil
}

func (s *memUserStore) SetTermsAccepted(_ context.Context, _ string, _ time.Time) error {
	return nil
}

type memRosterStore struct {
	entries []*models.RosterEntry
}

func (s *memRosterStore) GetByStudentID(_ context.Context, studentID string) (*models.RosterEntry, error) {
	for _, entry := range s.entries {
		if strings.EqualFold(entry.StudentID, studentID) {
			return entry, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memRosterStore) MarkRegistered(_ context.Context, studentID string) error {
	for _, entry := range s.entries {
		if strings.EqualFold(entry.StudentID, studentID) {
			entry.IsRegistered = true
		}
	}
	return nil
}

func newUserServiceForTest(entries ...*models.RosterEntry) (*UserService, *memUserStore, *memRosterStore) {
	users := newMemUserStore()
	roster := &memRosterStore{entries: entries}
	return NewUserService(users, roster, LogMailer{}, "test-secret"), users, roster
}

func TestRegisterConsumesRosterEntry(t *testing.T) {
	svc, users, roster := newUserServiceForTest(
		&models.RosterEntry{StudentID: "STU-100", FullName: "Ada Ray", Role: "student"},
	)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		FullName:  "Ada Ray",
		Email:     "ada@example.edu",
		Password:  "hunter22",
		StudentID: "stu-100",
	})
	require.NoError(t, err, "the student id match is case-insensitive")
	assert.Equal(t, "STU-100", user.StudentID)
	assert.Equal(t, "student", user.Role)
	assert.True(t, roster.entries[0].IsRegistered)
	assert.Len(t, users.users, 1)
}

func TestRegisterRejectsConsumedRosterEntry(t *testing.T) {
	svc, users, _ := newUserServiceForTest(
		&models.RosterEntry{StudentID: "STU-100", FullName: "Ada Ray", Role: "student", IsRegistered: true},
	)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		FullName:  "Impostor",
		Email:     "other@example.edu",
		Password:  "hunter22",
		StudentID: "STU-100",
	})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Empty(t, users.users, "a consumed pin must not leave a half-created account")
}

func TestRegisterRejectsUnknownPin(t *testing.T) {
	svc, users, _ := newUserServiceForTest()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		FullName:  "Nobody",
		Email:     "nobody@example.edu",
		Password:  "hunter22",
		StudentID: "STU-999",
	})
	assert.ErrorIs(t, err, ErrPinNotRecognized)
	assert.Empty(t, users.users)
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	svc, _, _ := newUserServiceForTest(
		&models.RosterEntry{StudentID: "STU-100", Role: "student"},
		&models.RosterEntry{StudentID: "STU-101", Role: "student"},
	)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		FullName: "Ada Ray", Email: "shared@example.edu", Password: "hunter22", StudentID: "STU-100",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{
		FullName: "Ben Ray", Email: "shared@example.edu", Password: "hunter22", StudentID: "STU-101",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestJWTRoundTrip(t *testing.T) {
	svc := &UserService{jwtSecret: "test-secret"}

	token, err := svc.GenerateJWT("u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := &UserService{jwtSecret: "secret-a"}
	verifier := &UserService{jwtSecret: "secret-b"}

	token, err := issuer.GenerateJWT("u1")
	require.NoError(t, err)

	_, err = verifier.ValidateJWT(token)
	assert.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	svc := &UserService{jwtSecret: "test-secret"}

	_, err := svc.ValidateJWT("not-a-token")
	assert.Error(t, err)

	_, err = svc.ValidateJWT("")
	assert.Error(t, err)
}
