package handlers

import (
	"encoding/json"
	"net/http"

	"campus-portal-backend/internal/middleware"
	"campus-portal-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// MediaHandler handles upload HTTP requests
type MediaHandler struct {
	mediaService *services.MediaService
	quotaService *services.QuotaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaService *services.MediaService, quotaService *services.QuotaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, quotaService: quotaService}
}

// PresignUpload handles POST /api/v1/media/upload
func (h *MediaHandler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.mediaService.PresignUpload(r.Context(), userID, req)
	if err != nil {
		log.Error().Err(err).
			Str("user_id", userID).
			Str("filename", req.Filename).
			Msg("Failed to generate pre-signed URL")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("filename", req.Filename).
		Int64("size_bytes", req.SizeBytes).
		Msg("Pre-signed URL generated")
	respondJSON(w, http.StatusOK, response)
}

// Quota handles GET /api/v1/media/quota
func (h *MediaHandler) Quota(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	remaining, err := h.quotaService.Remaining(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"remaining_bytes": remaining})
}
