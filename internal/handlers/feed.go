package handlers

import (
	"encoding/json"
	"net/http"

	"campus-portal-backend/internal/middleware"
	"campus-portal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FeedHandler handles post and comment HTTP requests
type FeedHandler struct {
	feedService *services.FeedService
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// CreatePost handles POST /api/v1/posts
func (h *FeedHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" && req.ImageURL == nil {
		respondError(w, "post needs content or an image", http.StatusBadRequest)
		return
	}

	post, err := h.feedService.CreatePost(r.Context(), userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create post")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, post)
}

// ListFeed handles GET /api/v1/posts
func (h *FeedHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, offset := pagination(r)

	posts, err := h.feedService.ListFeed(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list feed")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// ListUserFeed handles GET /api/v1/users/{user_id}/posts
func (h *FeedHandler) ListUserFeed(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	authorID := chi.URLParam(r, "user_id")
	limit, offset := pagination(r)

	posts, err := h.feedService.ListUserFeed(r.Context(), viewerID, authorID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// RenderPost handles POST /api/v1/posts/render, splitting text into plain and
// clickable mention segments
func (h *FeedHandler) RenderPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	segments, err := h.feedService.RenderPost(r.Context(), req.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"segments": segments})
}

// ReactToPost handles POST /api/v1/posts/{post_id}/reactions
func (h *FeedHandler) ReactToPost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID := chi.URLParam(r, "post_id")

	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Emoji == "" {
		respondError(w, "emoji is required", http.StatusBadRequest)
		return
	}

	post, err := h.feedService.ReactToPost(r.Context(), userID, postID, req.Emoji)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/v1/posts/{post_id}
func (h *FeedHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID := chi.URLParam(r, "post_id")

	if err := h.feedService.DeletePost(r.Context(), userID, postID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// AddComment handles POST /api/v1/posts/{post_id}/comments
func (h *FeedHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID := chi.URLParam(r, "post_id")

	var req struct {
		Content  string  `json:"content"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		respondError(w, "content is required", http.StatusBadRequest)
		return
	}

	comment, err := h.feedService.AddComment(r.Context(), userID, postID, req.Content, req.ParentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /api/v1/posts/{post_id}/comments
func (h *FeedHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID := chi.URLParam(r, "post_id")

	threads, err := h.feedService.Comments(r.Context(), userID, postID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"comments": threads})
}

// EditComment handles PATCH /api/v1/comments/{comment_id}
func (h *FeedHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	commentID := chi.URLParam(r, "comment_id")

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		respondError(w, "content is required", http.StatusBadRequest)
		return
	}
	if err := h.feedService.EditComment(r.Context(), userID, commentID, req.Content); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ReactToComment handles POST /api/v1/comments/{comment_id}/reactions
func (h *FeedHandler) ReactToComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	commentID := chi.URLParam(r, "comment_id")

	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Emoji == "" {
		respondError(w, "emoji is required", http.StatusBadRequest)
		return
	}

	comment, err := h.feedService.ReactToComment(r.Context(), userID, commentID, req.Emoji)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/v1/comments/{comment_id}
func (h *FeedHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	commentID := chi.URLParam(r, "comment_id")

	if err := h.feedService.DeleteComment(r.Context(), userID, commentID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
