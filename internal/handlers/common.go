package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"campus-portal-backend/internal/repository"
	"campus-portal-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// respondServiceError maps the service error taxonomy onto status codes:
// validation errors become 4xx with their user-facing text, unknown errors a
// generic 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, "not found", http.StatusNotFound)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrBlocked):
		respondError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrDuplicateRequest):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrPinNotRecognized),
		errors.Is(err, services.ErrInvalidParent),
		errors.Is(err, services.ErrSelfFriendship),
		errors.Is(err, services.ErrQuotaExceeded):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, "something went wrong, please try again", http.StatusInternalServerError)
	}
}

// pagination reads limit/offset query parameters with defaults
func pagination(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			limit = v
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			offset = v
		}
	}
	return limit, offset
}
