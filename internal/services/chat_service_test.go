package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"campus-portal-backend/internal/models"
	"campus-portal-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memConversationStore is an in-memory conversationStore for service tests.
type memConversationStore struct {
	conversations map[string]*models.Conversation
}

func newMemConversationStore() *memConversationStore {
	return &memConversationStore{conversations: make(map[string]*models.Conversation)}
}

func (s *memConversationStore) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	conv, ok := s.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return conv, nil
}

func (s *memConversationStore) ListForUser(_ context.Context, userID string) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, conv := range s.conversations {
		if contains(conv.Participants, userID) && !contains(conv.DeletedBy, userID) {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (s *memConversationStore) UpsertOnSend(_ context.Context, id string, participants []string, lastMessage string, at time.Time, recipientID string) error {
	conv, ok := s.conversations[id]
	if !ok {
		conv = &models.Conversation{
			ID:           id,
			Participants: participants,
			Unread:       map[string]int{},
			CreatedAt:    at,
		}
		s.conversations[id] = conv
	}
	conv.LastMessage = lastMessage
	conv.LastMessageTimestamp = at
	conv.DeletedBy = []string{}
	conv.Unread[recipientID]++
	return nil
}

func (s *memConversationStore) AddToSet(_ context.Context, id, column, value string) error {
	conv, ok := s.conversations[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch column {
	case repository.SetPinnedBy:
		conv.PinnedBy = append(conv.PinnedBy, value)
	case repository.SetBlockedBy:
		conv.BlockedBy = append(conv.BlockedBy, value)
	case repository.SetBookmarkedMessages:
		conv.BookmarkedMessages = append(conv.BookmarkedMessages, value)
	}
	return nil
}

func (s *memConversationStore) RemoveFromSet(_ context.Context, id, column, value string) error {
	conv, ok := s.conversations[id]
	if !ok {
		return repository.ErrNotFound
	}
	remove := func(set []string) []string {
		kept := set[:0]
		for _, v := range set {
			if v != value {
				kept = append(kept, v)
			}
		}
		return kept
	}
	switch column {
	case repository.SetPinnedBy:
		conv.PinnedBy = remove(conv.PinnedBy)
	case repository.SetBlockedBy:
		conv.BlockedBy = remove(conv.BlockedBy)
	case repository.SetBookmarkedMessages:
		conv.BookmarkedMessages = remove(conv.BookmarkedMessages)
	}
	return nil
}

func (s *memConversationStore) SoftDelete(_ context.Context, id, userID string, at time.Time) error {
	conv, ok := s.conversations[id]
	if !ok {
		return repository.ErrNotFound
	}
	conv.DeletedBy = append(conv.DeletedBy, userID)
	if conv.ClearedHistoryAt == nil {
		conv.ClearedHistoryAt = map[string]time.Time{}
	}
	conv.ClearedHistoryAt[userID] = at
	return nil
}

func (s *memConversationStore) Delete(_ context.Context, id string) error {
	delete(s.conversations, id)
	return nil
}

func (s *memConversationStore) ClearUnread(_ context.Context, id, userID string) error {
	if conv, ok := s.conversations[id]; ok {
		conv.Unread[userID] = 0
	}
	return nil
}

func (s *memConversationStore) SetPinnedMessage(_ context.Context, id string, messageID *string) error {
	if conv, ok := s.conversations[id]; ok {
		conv.PinnedMessageID = messageID
	}
	return nil
}

func (s *memConversationStore) SetTheme(_ context.Context, id, theme string) error {
	if conv, ok := s.conversations[id]; ok {
		conv.Theme = theme
	}
	return nil
}

// memMessageStore mimics the schema's referential constraint: inserting a
// message whose conversation row does not exist fails, exactly as Postgres
// rejects the orphan row.
type memMessageStore struct {
	convs    *memConversationStore
	messages map[string]*models.Message
	order    []string
}

func newMemMessageStore(convs *memConversationStore) *memMessageStore {
	return &memMessageStore{convs: convs, messages: make(map[string]*models.Message)}
}

func (s *memMessageStore) Create(_ context.Context, msg *models.Message) error {
	if _, ok := s.convs.conversations[msg.ConversationID]; !ok {
		return fmt.Errorf(`insert into messages violates foreign key constraint "messages_conversation_id_fkey"`)
	}
	s.messages[msg.ID] = msg
	s.order = append(s.order, msg.ID)
	return nil
}

func (s *memMessageStore) GetByID(_ context.Context, id string) (*models.Message, error) {
	msg, ok := s.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return msg, nil
}

func (s *memMessageStore) ListByConversation(_ context.Context, conversationID string) ([]*models.Message, error) {
	var out []*models.Message
	for _, id := range s.order {
		if msg, ok := s.messages[id]; ok && msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *memMessageStore) MarkRead(_ context.Context, ids []string) error {
	for _, id := range ids {
		if msg, ok := s.messages[id]; ok {
			msg.Read = true
		}
	}
	return nil
}

func (s *memMessageStore) UpdateReactions(_ context.Context, id string, reactions models.Reactions) error {
	if msg, ok := s.messages[id]; ok {
		msg.Reactions = reactions
	}
	return nil
}

func (s *memMessageStore) Edit(_ context.Context, id, text string) error {
	if msg, ok := s.messages[id]; ok {
		msg.Text = text
		msg.IsEdited = true
	}
	return nil
}

func (s *memMessageStore) Tombstone(_ context.Context, id string) error {
	if msg, ok := s.messages[id]; ok {
		msg.Text = ""
		msg.IsDeleted = true
	}
	return nil
}

func (s *memMessageStore) DeleteBatch(_ context.Context, conversationID string, limit int) (int64, error) {
	var removed int64
	for _, id := range s.order {
		if removed >= int64(limit) {
			break
		}
		if msg, ok := s.messages[id]; ok && msg.ConversationID == conversationID {
			delete(s.messages, id)
			removed++
		}
	}
	return removed, nil
}

func newChatServiceForTest() (*ChatService, *memConversationStore, *memMessageStore) {
	convs := newMemConversationStore()
	msgs := newMemMessageStore(convs)
	return NewChatService(convs, msgs, NewWSHub()), convs, msgs
}

func TestSendMessageFirstContactCreatesConversation(t *testing.T) {
	svc, convs, msgs := newChatServiceForTest()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, "alice", "bob", "hi bob", nil)
	require.NoError(t, err, "the very first message between a pair must create the conversation")
	require.NotNil(t, msg)

	conv, err := convs.GetByID(ctx, ConversationID("alice", "bob"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, conv.Participants)
	assert.Equal(t, "hi bob", conv.LastMessage)
	assert.Equal(t, 1, conv.Unread["bob"])

	thread, err := msgs.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "hi bob", thread[0].Text)
}

func TestSendMessageResurrectsDeletedConversation(t *testing.T) {
	svc, convs, _ := newChatServiceForTest()
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "alice", "bob", "first", nil)
	require.NoError(t, err)

	convID := ConversationID("alice", "bob")
	require.NoError(t, convs.SoftDelete(ctx, convID, "bob", time.Now()))

	_, err = svc.SendMessage(ctx, "alice", "bob", "are you there", nil)
	require.NoError(t, err)

	conv, err := convs.GetByID(ctx, convID)
	require.NoError(t, err)
	assert.Empty(t, conv.DeletedBy, "a new message resurrects the conversation for everyone")
}

func TestSendMessageBlockedRecipient(t *testing.T) {
	svc, convs, msgs := newChatServiceForTest()
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "alice", "bob", "hello", nil)
	require.NoError(t, err)
	convID := ConversationID("alice", "bob")
	require.NoError(t, convs.AddToSet(ctx, convID, repository.SetBlockedBy, "bob"))

	_, err = svc.SendMessage(ctx, "alice", "bob", "please answer", nil)
	assert.ErrorIs(t, err, ErrBlocked)

	thread, err := msgs.ListByConversation(ctx, convID)
	require.NoError(t, err)
	assert.Len(t, thread, 1, "the blocked send must not store a message")
}

func TestForwardMessageIntoNewConversation(t *testing.T) {
	svc, convs, _ := newChatServiceForTest()
	ctx := context.Background()

	original, err := svc.SendMessage(ctx, "alice", "bob", "look at this", nil)
	require.NoError(t, err)

	forwarded, err := svc.ForwardMessage(ctx, "alice", original.ID, "carol")
	require.NoError(t, err, "forwarding into a conversation that does not exist yet must create it")
	assert.True(t, forwarded.IsForwarded)
	assert.Equal(t, "look at this", forwarded.Text)

	_, err = convs.GetByID(ctx, ConversationID("alice", "carol"))
	assert.NoError(t, err)
}

func TestDeleteConversationSoftThenHard(t *testing.T) {
	svc, convs, msgs := newChatServiceForTest()
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "alice", "bob", "one", nil)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, "bob", "alice", "two", nil)
	require.NoError(t, err)
	convID := ConversationID("alice", "bob")

	// First delete is soft: the other participant still has the thread.
	require.NoError(t, svc.DeleteConversation(ctx, "alice", convID))
	conv, err := convs.GetByID(ctx, convID)
	require.NoError(t, err)
	assert.Contains(t, conv.DeletedBy, "alice")
	assert.NotZero(t, conv.ClearedHistoryAt["alice"])

	// Second delete removes the conversation and its messages for good.
	require.NoError(t, svc.DeleteConversation(ctx, "bob", convID))
	_, err = convs.GetByID(ctx, convID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	thread, err := msgs.ListByConversation(ctx, convID)
	require.NoError(t, err)
	assert.Empty(t, thread)
}
