package services

import (
	"context"
	"errors"
	"time"

	"campus-portal-backend/internal/models"
	"campus-portal-backend/internal/repository"
)

// ProfileView is a profile as one viewer may see it. Redacted fields are nil.
type ProfileView struct {
	ID            string                  `json:"id"`
	FullName      string                  `json:"full_name"`
	Role          string                  `json:"role"`
	AvatarURL     *string                 `json:"avatar_url,omitempty"`
	CoverPhotoURL *string                 `json:"cover_photo_url,omitempty"`
	Bio           *string                 `json:"bio,omitempty"`
	Email         *string                 `json:"email,omitempty"`
	StudentID     *string                 `json:"student_id,omitempty"`
	Online        *bool                   `json:"online,omitempty"`
	LastSeen      *time.Time              `json:"last_seen,omitempty"`
	Friendship    models.FriendshipStatus `json:"friendship,omitempty"`
}

// fieldRevealed applies the per-field policy: the owner always sees their own
// data; unset or only_me hides it; public reveals it; friends reveals it only
// to an accepted friend.
func fieldRevealed(privacy models.Privacy, isOwner, isFriend bool) bool {
	if isOwner {
		return true
	}
	switch privacy {
	case models.PrivacyPublic:
		return true
	case models.PrivacyFriends:
		return isFriend
	default: // only_me or unset
		return false
	}
}

// FilterProfile builds the redacted view of a user for the given relationship.
func FilterProfile(user *models.User, isOwner, isFriend bool) *ProfileView {
	view := &ProfileView{
		ID:            user.ID,
		FullName:      user.FullName,
		Role:          user.Role,
		AvatarURL:     user.AvatarURL,
		CoverPhotoURL: user.CoverPhotoURL,
		Bio:           user.Bio,
	}
	if fieldRevealed(user.EmailPrivacy, isOwner, isFriend) {
		email := user.Email
		view.Email = &email
	}
	if fieldRevealed(user.StudentIDPrivacy, isOwner, isFriend) {
		studentID := user.StudentID
		view.StudentID = &studentID
	}
	if fieldRevealed(user.LastSeenPrivacy, isOwner, isFriend) {
		online := user.Online
		lastSeen := user.LastSeen
		view.Online = &online
		view.LastSeen = &lastSeen
	}
	return view
}

// ProfileService resolves privacy-filtered profile views
type ProfileService struct {
	userRepo   *repository.UserRepository
	friendRepo *repository.FriendshipRepository
	presence   *PresenceService
}

// NewProfileService creates a new profile service
func NewProfileService(userRepo *repository.UserRepository, friendRepo *repository.FriendshipRepository, presence *PresenceService) *ProfileService {
	return &ProfileService{userRepo: userRepo, friendRepo: friendRepo, presence: presence}
}

// View returns the target's profile as the viewer may see it
func (s *ProfileService) View(ctx context.Context, viewerID, targetID string) (*ProfileView, error) {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if s.presence != nil {
		user.Online = s.presence.IsOnline(ctx, targetID)
	}

	isOwner := viewerID == targetID
	var status models.FriendshipStatus
	if !isOwner {
		friendship, err := s.friendRepo.GetBetween(ctx, viewerID, targetID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if friendship != nil {
			status = friendship.Status
		}
	}

	view := FilterProfile(user, isOwner, status == models.FriendshipAccepted)
	view.Friendship = status
	return view, nil
}

// UpdateRequest carries the owner-editable profile fields
type UpdateRequest struct {
	FullName         string         `json:"full_name"`
	AvatarURL        *string        `json:"avatar_url,omitempty"`
	CoverPhotoURL    *string        `json:"cover_photo_url,omitempty"`
	Bio              *string        `json:"bio,omitempty"`
	EmailPrivacy     models.Privacy `json:"email_privacy"`
	StudentIDPrivacy models.Privacy `json:"student_id_privacy"`
	LastSeenPrivacy  models.Privacy `json:"last_seen_privacy"`
}

// Update edits the owner's own profile document
func (s *ProfileService) Update(ctx context.Context, userID string, req UpdateRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	user.AvatarURL = req.AvatarURL
	user.CoverPhotoURL = req.CoverPhotoURL
	user.Bio = req.Bio
	if req.EmailPrivacy != "" {
		user.EmailPrivacy = req.EmailPrivacy
	}
	if req.StudentIDPrivacy != "" {
		user.StudentIDPrivacy = req.StudentIDPrivacy
	}
	if req.LastSeenPrivacy != "" {
		user.LastSeenPrivacy = req.LastSeenPrivacy
	}
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
