package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"campus-portal-backend/internal/models"
	"campus-portal-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// deleteBatchSize bounds a hard-delete batch to the store's operation limit.
const deleteBatchSize = 400

// ConversationID derives the conversation id for a pair of users: the sorted
// ids joined by an underscore. Both users compute the same id, so the
// conversation can be addressed without a query.
func ConversationID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

// PairContains reports whether a conversation id names the user.
func PairContains(conversationID, userID string) bool {
	for _, id := range strings.Split(conversationID, "_") {
		if id == userID {
			return true
		}
	}
	return false
}

// SortConversations orders a user's conversation list: pinned-by-me first,
// then most recent message. Pinned state dominates recency.
func SortConversations(conversations []*models.Conversation, userID string) {
	sort.SliceStable(conversations, func(i, j int) bool {
		pi := contains(conversations[i].PinnedBy, userID)
		pj := contains(conversations[j].PinnedBy, userID)
		if pi != pj {
			return pi
		}
		return conversations[i].LastMessageTimestamp.After(conversations[j].LastMessageTimestamp)
	})
}

// VisibleMessages filters a thread for one viewer: messages created at or
// before the viewer's history-clear watermark stay hidden even if the
// conversation was later resurrected. Other viewers are unaffected.
func VisibleMessages(messages []*models.Message, conv *models.Conversation, viewerID string) []*models.Message {
	watermark, cleared := conv.ClearedHistoryAt[viewerID]
	if !cleared {
		return messages
	}
	visible := make([]*models.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.CreatedAt.After(watermark) {
			visible = append(visible, msg)
		}
	}
	return visible
}

// unreadIncoming collects ids of messages the viewer has not read and did not
// author, for the best-effort read-receipt batch.
func unreadIncoming(messages []*models.Message, viewerID string) []string {
	var ids []string
	for _, msg := range messages {
		if !msg.Read && msg.SenderID != viewerID {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

func contains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// conversationStore is the slice of the conversation repository the chat
// service consumes.
type conversationStore interface {
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error)
	UpsertOnSend(ctx context.Context, id string, participants []string, lastMessage string, at time.Time, recipientID string) error
	AddToSet(ctx context.Context, id, column, value string) error
	RemoveFromSet(ctx context.Context, id, column, value string) error
	SoftDelete(ctx context.Context, id, userID string, at time.Time) error
	Delete(ctx context.Context, id string) error
	ClearUnread(ctx context.Context, id, userID string) error
	SetPinnedMessage(ctx context.Context, id string, messageID *string) error
	SetTheme(ctx context.Context, id, theme string) error
}

// messageStore is the slice of the message repository the chat service
// consumes.
type messageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
	MarkRead(ctx context.Context, ids []string) error
	UpdateReactions(ctx context.Context, id string, reactions models.Reactions) error
	Edit(ctx context.Context, id, text string) error
	Tombstone(ctx context.Context, id string) error
	DeleteBatch(ctx context.Context, conversationID string, limit int) (int64, error)
}

// ChatService owns conversation and message state
type ChatService struct {
	convRepo conversationStore
	msgRepo  messageStore
	hub      *WSHub
}

// NewChatService creates a new chat service
func NewChatService(convRepo conversationStore, msgRepo messageStore, hub *WSHub) *ChatService {
	return &ChatService{convRepo: convRepo, msgRepo: msgRepo, hub: hub}
}

// ListConversations returns the user's visible conversations, pinned first
// then newest
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	conversations, err := s.convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	SortConversations(conversations, userID)
	return conversations, nil
}

func (s *ChatService) conversationFor(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	if !PairContains(conversationID, userID) {
		return nil, ErrNotParticipant
	}
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !contains(conv.Participants, userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

// GetConversation returns one conversation's metadata for a participant
func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	return s.conversationFor(ctx, userID, conversationID)
}

// Thread returns the messages the viewer may see, oldest first, and kicks off
// the best-effort read-receipt batch for incoming unread messages.
func (s *ChatService) Thread(ctx context.Context, userID, conversationID string) ([]*models.Message, error) {
	conv, err := s.conversationFor(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := s.msgRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	visible := VisibleMessages(messages, conv, userID)

	if unread := unreadIncoming(visible, userID); len(unread) > 0 {
		// fire-and-forget: receipts must never delay or fail the read
		go func() {
			ctx := context.Background()
			if err := s.msgRepo.MarkRead(ctx, unread); err != nil {
				log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to mark messages read")
				return
			}
			if err := s.convRepo.ClearUnread(ctx, conversationID, userID); err != nil {
				log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to clear unread counter")
			}
			s.hub.Publish(TopicMessages(conversationID), "messages_read", map[string]any{
				"reader_id":   userID,
				"message_ids": unread,
			})
		}()
	}

	return visible, nil
}

// SendMessage validates the block state, upserts the conversation, then
// appends the message. The upsert comes first because the message row
// references the conversation row; on the very first send between a pair the
// conversation does not exist yet.
func (s *ChatService) SendMessage(ctx context.Context, senderID, recipientID, text string, replyTo *string) (*models.Message, error) {
	if text == "" {
		return nil, fmt.Errorf("message text is empty")
	}
	conversationID := ConversationID(senderID, recipientID)

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if conv != nil && contains(conv.BlockedBy, recipientID) {
		return nil, ErrBlocked
	}

	return s.deliver(ctx, &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Reactions:      models.Reactions{},
		ReplyTo:        replyTo,
		CreatedAt:      time.Now(),
	}, recipientID)
}

func (s *ChatService) deliver(ctx context.Context, msg *models.Message, recipientID string) (*models.Message, error) {
	// The conversation row must exist before the message row can reference
	// it. The upsert creates it on first contact and resurrects it for
	// anyone who had soft-deleted it.
	participants := []string{msg.SenderID, recipientID}
	if err := s.convRepo.UpsertOnSend(ctx, msg.ConversationID, participants, msg.Text, msg.CreatedAt, recipientID); err != nil {
		return nil, err
	}

	// If this insert fails the summary points at a message that never
	// landed; the periodic repair pass recomputes it.
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.hub.Publish(TopicMessages(msg.ConversationID), "message", msg)
	s.hub.Publish(TopicConversations(msg.SenderID), "conversation_updated", msg.ConversationID)
	s.hub.Publish(TopicConversations(recipientID), "conversation_updated", msg.ConversationID)

	return msg, nil
}

// ForwardMessage copies a message's text into the conversation with another
// user, tagged as forwarded; the summary upsert and resurrection behave like
// a normal send.
func (s *ChatService) ForwardMessage(ctx context.Context, userID, messageID, toUserID string) (*models.Message, error) {
	original, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !PairContains(original.ConversationID, userID) {
		return nil, ErrNotParticipant
	}
	if original.IsDeleted {
		return nil, fmt.Errorf("cannot forward a deleted message")
	}

	conversationID := ConversationID(userID, toUserID)
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if conv != nil && contains(conv.BlockedBy, toUserID) {
		return nil, ErrBlocked
	}

	return s.deliver(ctx, &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       userID,
		Text:           original.Text,
		Reactions:      models.Reactions{},
		IsForwarded:    true,
		CreatedAt:      time.Now(),
	}, toUserID)
}

// React sets, moves, or toggles the user's reaction on a message
func (s *ChatService) React(ctx context.Context, userID, messageID, emoji string) (*models.Message, error) {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !PairContains(msg.ConversationID, userID) {
		return nil, ErrNotParticipant
	}
	if msg.Reactions == nil {
		msg.Reactions = models.Reactions{}
	}
	msg.Reactions.Apply(userID, emoji)
	if err := s.msgRepo.UpdateReactions(ctx, messageID, msg.Reactions); err != nil {
		return nil, err
	}
	s.hub.Publish(TopicMessages(msg.ConversationID), "message_updated", msg)
	return msg, nil
}

// EditMessage replaces the text of the sender's own message
func (s *ChatService) EditMessage(ctx context.Context, userID, messageID, text string) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return ErrNotOwner
	}
	if err := s.msgRepo.Edit(ctx, messageID, text); err != nil {
		return err
	}
	msg.Text = text
	msg.IsEdited = true
	s.hub.Publish(TopicMessages(msg.ConversationID), "message_updated", msg)
	return nil
}

// DeleteMessage tombstones the sender's own message: text cleared, flag set,
// row kept
func (s *ChatService) DeleteMessage(ctx context.Context, userID, messageID string) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return ErrNotOwner
	}
	if err := s.msgRepo.Tombstone(ctx, messageID); err != nil {
		return err
	}
	msg.Text = ""
	msg.IsDeleted = true
	s.hub.Publish(TopicMessages(msg.ConversationID), "message_updated", msg)
	return nil
}

// DeleteConversation applies the asymmetric two-tier policy: once every other
// participant has already soft-deleted the conversation (or there is no one
// else), it is permanently removed together with its messages, in bounded
// batches; otherwise the acting user is added to deleted_by and gets a
// personal history-clear watermark.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	conv, err := s.conversationFor(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	allOthersDeleted := true
	for _, p := range conv.Participants {
		if p != userID && !contains(conv.DeletedBy, p) {
			allOthersDeleted = false
			break
		}
	}

	if allOthersDeleted {
		for {
			removed, err := s.msgRepo.DeleteBatch(ctx, conversationID, deleteBatchSize)
			if err != nil {
				return err
			}
			if removed < deleteBatchSize {
				break
			}
		}
		if err := s.convRepo.Delete(ctx, conversationID); err != nil {
			return err
		}
	} else {
		if err := s.convRepo.SoftDelete(ctx, conversationID, userID, time.Now()); err != nil {
			return err
		}
	}

	s.hub.Publish(TopicConversations(userID), "conversation_deleted", conversationID)
	return nil
}

// PinConversation adds or removes the user from the conversation's pin set
func (s *ChatService) PinConversation(ctx context.Context, userID, conversationID string, pinned bool) error {
	if _, err := s.conversationFor(ctx, userID, conversationID); err != nil {
		return err
	}
	if pinned {
		return s.convRepo.AddToSet(ctx, conversationID, repository.SetPinnedBy, userID)
	}
	return s.convRepo.RemoveFromSet(ctx, conversationID, repository.SetPinnedBy, userID)
}

// BlockConversation adds or removes the user from the conversation's block set
func (s *ChatService) BlockConversation(ctx context.Context, userID, conversationID string, blocked bool) error {
	if _, err := s.conversationFor(ctx, userID, conversationID); err != nil {
		return err
	}
	if blocked {
		return s.convRepo.AddToSet(ctx, conversationID, repository.SetBlockedBy, userID)
	}
	return s.convRepo.RemoveFromSet(ctx, conversationID, repository.SetBlockedBy, userID)
}

// BookmarkMessage adds or removes a message from the conversation's bookmarks
func (s *ChatService) BookmarkMessage(ctx context.Context, userID, conversationID, messageID string, bookmarked bool) error {
	if _, err := s.conversationFor(ctx, userID, conversationID); err != nil {
		return err
	}
	if bookmarked {
		return s.convRepo.AddToSet(ctx, conversationID, repository.SetBookmarkedMessages, messageID)
	}
	return s.convRepo.RemoveFromSet(ctx, conversationID, repository.SetBookmarkedMessages, messageID)
}

// PinMessage sets or clears the conversation's pinned message
func (s *ChatService) PinMessage(ctx context.Context, userID, conversationID string, messageID *string) error {
	if _, err := s.conversationFor(ctx, userID, conversationID); err != nil {
		return err
	}
	if messageID != nil {
		msg, err := s.msgRepo.GetByID(ctx, *messageID)
		if err != nil {
			return err
		}
		if msg.ConversationID != conversationID {
			return fmt.Errorf("message does not belong to this conversation")
		}
	}
	if err := s.convRepo.SetPinnedMessage(ctx, conversationID, messageID); err != nil {
		return err
	}
	s.hub.Publish(TopicMessages(conversationID), "conversation_updated", conversationID)
	return nil
}

// SetTheme sets the conversation theme
func (s *ChatService) SetTheme(ctx context.Context, userID, conversationID, theme string) error {
	if _, err := s.conversationFor(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.convRepo.SetTheme(ctx, conversationID, theme); err != nil {
		return err
	}
	s.hub.Publish(TopicMessages(conversationID), "conversation_updated", conversationID)
	return nil
}
