package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"campus-portal-backend/internal/middleware"
	"campus-portal-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// presenceRefresh keeps the redis online flag alive while the socket is open.
// It must be shorter than the presence TTL.
const presenceRefresh = 30 * time.Second

var errUnknownAction = errors.New("unknown action")

// clientFrame is one command sent by the browser over the socket.
type clientFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// WebSocketHandler bridges websocket connections to the event hub
type WebSocketHandler struct {
	hub         *services.WSHub
	userService *services.UserService
	presence    *services.PresenceService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	presence *services.PresenceService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		presence:    presence,
	}
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Validate token from query parameter
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// Upgrade connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	sub := h.hub.Register(userID)
	defer h.hub.Unregister(sub)

	// Every connection watches its own conversation list and notifications.
	h.hub.Subscribe(sub, services.TopicConversations(userID))
	h.hub.Subscribe(sub, services.TopicNotifications(userID))

	h.presence.Online(r.Context(), userID)
	// Request context is gone by the time the deferred teardown runs.
	defer h.presence.Offline(context.Background(), userID)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	done := make(chan struct{})
	go h.writePump(conn, sub, done)
	defer close(done)

	// Read loop: subscribe/unsubscribe commands from the client. Error
	// frames go through the subscriber channel; writePump is the only
	// goroutine allowed to touch the socket.
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var frame clientFrame
		if err := json.Unmarshal(messageBytes, &frame); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(sub, "Invalid message format")
			continue
		}

		if err := h.handleFrame(sub, frame); err != nil {
			log.Warn().Err(err).
				Str("user_id", userID).
				Str("action", frame.Action).
				Str("topic", frame.Topic).
				Msg("Rejected WebSocket command")
			h.sendError(sub, err.Error())
		}
	}
}

// writePump drains the subscriber channel into the socket and refreshes
// presence while the connection lives.
func (h *WebSocketHandler) writePump(conn *websocket.Conn, sub *services.Subscriber, done <-chan struct{}) {
	ticker := time.NewTicker(presenceRefresh)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Error().Err(err).Str("user_id", sub.UserID).Msg("Failed to write WebSocket event")
				return
			}
		case <-ticker.C:
			h.presence.Online(context.Background(), sub.UserID)
		case <-done:
			return
		}
	}
}

// handleFrame processes a subscribe/unsubscribe command
func (h *WebSocketHandler) handleFrame(sub *services.Subscriber, frame clientFrame) error {
	switch frame.Action {
	case "subscribe":
		if err := services.ValidateTopic(frame.Topic, sub.UserID); err != nil {
			return err
		}
		h.hub.Subscribe(sub, frame.Topic)
		return nil
	case "unsubscribe":
		h.hub.Unsubscribe(sub, frame.Topic)
		return nil
	default:
		return errUnknownAction
	}
}

// sendError queues an error event for the subscriber. Writing the socket
// directly here would race writePump; gorilla connections support at most one
// concurrent writer.
func (h *WebSocketHandler) sendError(sub *services.Subscriber, message string) {
	sub.Offer(services.Event{Type: "error", Data: map[string]string{"message": message}})
}
