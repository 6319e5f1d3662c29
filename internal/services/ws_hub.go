package services

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Topic names. Each mutation publishes onto the topics whose subscribers need
// to re-render: a conversation list, an open thread, the feed, or a user's
// notification tray.
func TopicConversations(userID string) string { return "conversations:" + userID }
func TopicMessages(conversationID string) string {
	return "messages:" + conversationID
}
func TopicNotifications(userID string) string { return "notifications:" + userID }

const TopicFeed = "feed"

// Event is one push delivered to the subscribers of a topic.
type Event struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
}

// Subscriber is one consumer of hub events, usually backed by a websocket
// connection. Events arrive on C; a subscriber that falls behind has events
// dropped rather than blocking publishers.
type Subscriber struct {
	UserID string
	send   chan Event
}

// C returns the subscriber's event channel.
func (s *Subscriber) C() <-chan Event { return s.send }

// Offer enqueues an event directly to this subscriber, bypassing topic
// fan-out. Like Publish it drops rather than blocks when the buffer is full.
func (s *Subscriber) Offer(event Event) {
	select {
	case s.send <- event:
	default:
		log.Warn().
			Str("user_id", s.UserID).
			Str("type", event.Type).
			Msg("Dropping direct event for slow subscriber")
	}
}

// WSHub fans mutation events out to topic subscribers. Delivery order across
// topics is not guaranteed; consumers re-sort by timestamps rather than
// trusting arrival order.
type WSHub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]bool
}

// NewWSHub creates a new hub
func NewWSHub() *WSHub {
	return &WSHub{topics: make(map[string]map[*Subscriber]bool)}
}

// Register creates a subscriber for a user
func (h *WSHub) Register(userID string) *Subscriber {
	sub := &Subscriber{UserID: userID, send: make(chan Event, 64)}
	log.Info().Str("user_id", userID).Msg("Hub subscriber registered")
	return sub
}

// Subscribe attaches the subscriber to a topic
func (h *WSHub) Subscribe(sub *Subscriber, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscriber]bool)
		h.topics[topic] = subs
	}
	subs[sub] = true
}

// Unsubscribe detaches the subscriber from a topic
func (h *WSHub) Unsubscribe(sub *Subscriber, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Unregister detaches the subscriber from every topic and closes its channel
func (h *WSHub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, subs := range h.topics {
		if subs[sub] {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	close(sub.send)
	log.Info().Str("user_id", sub.UserID).Msg("Hub subscriber unregistered")
}

// Publish delivers an event to every subscriber of the topic. Slow
// subscribers are skipped; they re-sync from the store on their next read.
func (h *WSHub) Publish(topic, eventType string, data any) {
	event := Event{Topic: topic, Type: eventType, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.send <- event:
		default:
			log.Warn().
				Str("user_id", sub.UserID).
				Str("topic", topic).
				Msg("Dropping event for slow subscriber")
		}
	}
}

// SubscriberCount reports how many subscribers a topic has
func (h *WSHub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// ValidateTopic checks that a client-requested topic is one the user may
// read: their own per-user topics, any conversation they are named in, or
// the shared feed.
func ValidateTopic(topic, userID string) error {
	switch {
	case topic == TopicFeed:
		return nil
	case topic == TopicConversations(userID):
		return nil
	case topic == TopicNotifications(userID):
		return nil
	case len(topic) > len("messages:") && topic[:len("messages:")] == "messages:":
		convID := topic[len("messages:"):]
		if !PairContains(convID, userID) {
			return fmt.Errorf("not a participant of %s", convID)
		}
		return nil
	default:
		return fmt.Errorf("unknown topic %s", topic)
	}
}
