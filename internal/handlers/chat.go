package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"campus-portal-backend/internal/middleware"
	"campus-portal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ChatHandler handles conversation and message HTTP requests
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListConversations handles GET /api/v1/conversations
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversations, err := h.chatService.ListConversations(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list conversations")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

// GetConversation handles GET /api/v1/conversations/{conversation_id}
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID := chi.URLParam(r, "conversation_id")

	conv, err := h.chatService.GetConversation(r.Context(), userID, conversationID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

// GetThread handles GET /api/v1/conversations/{conversation_id}/messages
func (h *ChatHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID := chi.URLParam(r, "conversation_id")

	messages, err := h.chatService.Thread(r.Context(), userID, conversationID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// SendMessage handles POST /api/v1/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		RecipientID string  `json:"recipient_id"`
		Text        string  `json:"text"`
		ReplyTo     *string `json:"reply_to,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RecipientID == "" {
		respondError(w, "recipient_id is required", http.StatusBadRequest)
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), userID, req.RecipientID, req.Text, req.ReplyTo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// ForwardMessage handles POST /api/v1/messages/{message_id}/forward
func (h *ChatHandler) ForwardMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID := chi.URLParam(r, "message_id")

	var req struct {
		ToUserID string `json:"to_user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.chatService.ForwardMessage(r.Context(), userID, messageID, req.ToUserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// ReactToMessage handles POST /api/v1/messages/{message_id}/reactions
func (h *ChatHandler) ReactToMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID := chi.URLParam(r, "message_id")

	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Emoji == "" {
		respondError(w, "emoji is required", http.StatusBadRequest)
		return
	}

	msg, err := h.chatService.React(r.Context(), userID, messageID, req.Emoji)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

// EditMessage handles PATCH /api/v1/messages/{message_id}
func (h *ChatHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID := chi.URLParam(r, "message_id")

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		respondError(w, "text is required", http.StatusBadRequest)
		return
	}

	if err := h.chatService.EditMessage(r.Context(), userID, messageID, req.Text); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// DeleteMessage handles DELETE /api/v1/messages/{message_id}
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID := chi.URLParam(r, "message_id")

	if err := h.chatService.DeleteMessage(r.Context(), userID, messageID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// DeleteConversation handles DELETE /api/v1/conversations/{conversation_id}
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID := chi.URLParam(r, "conversation_id")

	if err := h.chatService.DeleteConversation(r.Context(), userID, conversationID); err != nil {
		log.Error().Err(err).
			Str("user_id", userID).
			Str("conversation_id", conversationID).
			Msg("Failed to delete conversation")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// flagRequest is the shared body for toggle endpoints
type flagRequest struct {
	Enabled bool `json:"enabled"`
}

// PinConversation handles PUT /api/v1/conversations/{conversation_id}/pin
func (h *ChatHandler) PinConversation(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.chatService.PinConversation)
}

// BlockConversation handles PUT /api/v1/conversations/{conversation_id}/block
func (h *ChatHandler) BlockConversation(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.chatService.BlockConversation)
}

func (h *ChatHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, conversationID string, enabled bool) error) {
	userID := middleware.GetUserID(r.Context())
	conversationID := chi.URLParam(r, "conversation_id")

	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := fn(r.Context(), userID, conversationID, req.Enabled); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// BookmarkMessage handles PUT /api/v1/conversations/{conversation_id}/bookmarks/{message_id}
func (h *ChatHandler) BookmarkMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID := chi.URLParam(r, "conversation_id")
	messageID := chi.URLParam(r, "message_id")

	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.chatService.BookmarkMessage(r.Context(), userID, conversationID, messageID, req.Enabled); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// PinMessage handles PUT /api/v1/conversations/{conversation_id}/pinned-message
func (h *ChatHandler) PinMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID := chi.URLParam(r, "conversation_id")

	var req struct {
		MessageID *string `json:"message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.chatService.PinMessage(r.Context(), userID, conversationID, req.MessageID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// SetTheme handles PUT /api/v1/conversations/{conversation_id}/theme
func (h *ChatHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID := chi.URLParam(r, "conversation_id")

	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Theme == "" {
		respondError(w, "theme is required", http.StatusBadRequest)
		return
	}
	if err := h.chatService.SetTheme(r.Context(), userID, conversationID, req.Theme); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
