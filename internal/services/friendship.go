package services

import (
	"context"
	"errors"
	"time"

	"campus-portal-backend/internal/models"
	"campus-portal-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FriendshipService handles friend requests and relationship resolution
type FriendshipService struct {
	friendRepo *repository.FriendshipRepository
	userRepo   *repository.UserRepository
	notifRepo  *repository.NotificationRepository
	hub        *WSHub
}

// NewFriendshipService creates a new friendship service
func NewFriendshipService(
	friendRepo *repository.FriendshipRepository,
	userRepo *repository.UserRepository,
	notifRepo *repository.NotificationRepository,
	hub *WSHub,
) *FriendshipService {
	return &FriendshipService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		notifRepo:  notifRepo,
		hub:        hub,
	}
}

// Request sends a friend request
func (s *FriendshipService) Request(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error) {
	if requesterID == recipientID {
		return nil, ErrSelfFriendship
	}
	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		return nil, err
	}

	existing, err := s.friendRepo.GetBetween(ctx, requesterID, recipientID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateRequest
	}

	friendship := &models.Friendship{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.FriendshipPending,
		CreatedAt:   time.Now(),
	}
	if err := s.friendRepo.Create(ctx, friendship); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		ID:          uuid.New().String(),
		Type:        "friend_request",
		ActorID:     requesterID,
		RecipientID: recipientID,
		TargetID:    friendship.ID,
		TargetType:  "user",
		CreatedAt:   time.Now(),
	}
	if err := s.notifRepo.Create(ctx, notification); err != nil {
		log.Error().Err(err).Str("recipient_id", recipientID).Msg("Friend request stored but notification failed")
	} else {
		s.hub.Publish(TopicNotifications(recipientID), "notification", notification)
	}

	return friendship, nil
}

// Accept marks a pending request accepted; only its recipient may accept
func (s *FriendshipService) Accept(ctx context.Context, userID, friendshipID string) error {
	return s.friendRepo.Accept(ctx, friendshipID, userID)
}

// Status resolves the relationship between two users, checking both
// directions
func (s *FriendshipService) Status(ctx context.Context, a, b string) (models.FriendshipStatus, error) {
	friendship, err := s.friendRepo.GetBetween(ctx, a, b)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return friendship.Status, nil
}

// ListPending returns requests awaiting the user's response
func (s *FriendshipService) ListPending(ctx context.Context, userID string) ([]*models.Friendship, error) {
	return s.friendRepo.ListPendingFor(ctx, userID)
}

// FriendIDs returns the user's accepted-friend id set
func (s *FriendshipService) FriendIDs(ctx context.Context, userID string) (map[string]bool, error) {
	return s.friendRepo.FriendIDs(ctx, userID)
}
