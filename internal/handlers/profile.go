package handlers

import (
	"encoding/json"
	"net/http"

	"campus-portal-backend/internal/middleware"
	"campus-portal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ProfileHandler handles profile, friendship, and notification HTTP requests
type ProfileHandler struct {
	profileService      *services.ProfileService
	friendshipService   *services.FriendshipService
	notificationService *services.NotificationService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(
	profileService *services.ProfileService,
	friendshipService *services.FriendshipService,
	notificationService *services.NotificationService,
) *ProfileHandler {
	return &ProfileHandler{
		profileService:      profileService,
		friendshipService:   friendshipService,
		notificationService: notificationService,
	}
}

// GetProfile handles GET /api/v1/users/{user_id}, the privacy-filtered view
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "user_id")

	view, err := h.profileService.View(r.Context(), viewerID, targetID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// UpdateProfile handles PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.profileService.Update(r.Context(), userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// RequestFriendship handles POST /api/v1/friends/requests
func (h *ProfileHandler) RequestFriendship(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		RecipientID string `json:"recipient_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecipientID == "" {
		respondError(w, "recipient_id is required", http.StatusBadRequest)
		return
	}

	friendship, err := h.friendshipService.Request(r.Context(), userID, req.RecipientID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, friendship)
}

// AcceptFriendship handles POST /api/v1/friends/requests/{request_id}/accept
func (h *ProfileHandler) AcceptFriendship(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	requestID := chi.URLParam(r, "request_id")

	if err := h.friendshipService.Accept(r.Context(), userID, requestID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ListPendingFriendships handles GET /api/v1/friends/requests
func (h *ProfileHandler) ListPendingFriendships(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	requests, err := h.friendshipService.ListPending(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// ListNotifications handles GET /api/v1/notifications
func (h *ProfileHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, offset := pagination(r)

	notifications, err := h.notificationService.List(r.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// MarkNotificationRead handles POST /api/v1/notifications/{notification_id}/read
func (h *ProfileHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	notificationID := chi.URLParam(r, "notification_id")

	if err := h.notificationService.MarkRead(r.Context(), userID, notificationID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/read-all
func (h *ProfileHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.notificationService.MarkAllRead(r.Context(), userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
