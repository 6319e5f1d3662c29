package services

import (
	"context"

	"campus-portal-backend/internal/models"
	"campus-portal-backend/internal/repository"
)

// NotificationService exposes a user's notification tray
type NotificationService struct {
	notifRepo *repository.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(notifRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifRepo: notifRepo}
}

// List returns the user's notifications newest first
func (s *NotificationService) List(ctx context.Context, userID string, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.notifRepo.ListForUser(ctx, userID, limit, offset)
}

// MarkRead flags one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.notifRepo.MarkRead(ctx, notificationID, userID)
}

// MarkAllRead flags every notification as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifRepo.MarkAllRead(ctx, userID)
}
