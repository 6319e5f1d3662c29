package handlers

import (
	"testing"

	"campus-portal-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The read loop must never write the socket itself; errors are queued for
// writePump through the subscriber channel.
func TestSendErrorQueuesOnSubscriberChannel(t *testing.T) {
	hub := services.NewWSHub()
	sub := hub.Register("u1")
	h := &WebSocketHandler{hub: hub}

	h.sendError(sub, "Invalid message format")

	select {
	case event := <-sub.C():
		assert.Equal(t, "error", event.Type)
		assert.Equal(t, map[string]string{"message": "Invalid message format"}, event.Data)
	default:
		t.Fatal("error event must be buffered for the write pump")
	}
}

func TestSendErrorNeverBlocks(t *testing.T) {
	hub := services.NewWSHub()
	sub := hub.Register("u1")
	h := &WebSocketHandler{hub: hub}

	// Well past the channel buffer; a blocked call would hang the read loop.
	for i := 0; i < 100; i++ {
		h.sendError(sub, "overflow")
	}
}

func TestHandleFrameSubscribe(t *testing.T) {
	hub := services.NewWSHub()
	sub := hub.Register("u1")
	h := &WebSocketHandler{hub: hub}

	topic := services.TopicNotifications("u1")
	require.NoError(t, h.handleFrame(sub, clientFrame{Action: "subscribe", Topic: topic}))
	assert.Equal(t, 1, hub.SubscriberCount(topic))

	require.NoError(t, h.handleFrame(sub, clientFrame{Action: "unsubscribe", Topic: topic}))
	assert.Equal(t, 0, hub.SubscriberCount(topic))
}

func TestHandleFrameRejectsForeignTopic(t *testing.T) {
	hub := services.NewWSHub()
	sub := hub.Register("u1")
	h := &WebSocketHandler{hub: hub}

	foreign := services.TopicNotifications("u2")
	assert.Error(t, h.handleFrame(sub, clientFrame{Action: "subscribe", Topic: foreign}))
	assert.Equal(t, 0, hub.SubscriberCount(foreign))
}

func TestHandleFrameRejectsUnknownAction(t *testing.T) {
	hub := services.NewWSHub()
	sub := hub.Register("u1")
	h := &WebSocketHandler{hub: hub}

	assert.ErrorIs(t, h.handleFrame(sub, clientFrame{Action: "shout"}), errUnknownAction)
}
