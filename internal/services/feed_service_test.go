package services

import (
	"context"
	"sync"
	"testing"

	"campus-portal-backend/internal/models"
	"campus-portal-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPostStore struct {
	posts map[string]*models.Post
}

func newMemPostStore() *memPostStore {
	return &memPostStore{posts: make(map[string]*models.Post)}
}

func (s *memPostStore) Create(_ context.Context, post *models.Post) error {
	s.posts[post.ID] = post
	return nil
}

func (s *memPostStore) GetByID(_ context.Context, id string) (*models.Post, error) {
	post, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return post, nil
}

func (s *memPostStore) List(_ context.Context, _, _ int) ([]*models.Post, error) {
	var out []*models.Post
	for _, post := range s.posts {
		out = append(out, post)
	}
	return out, nil
}

func (s *memPostStore) ListByAuthor(_ context.Context, userID string, _, _ int) ([]*models.Post, error) {
	var out []*models.Post
	for _, post := range s.posts {
		if post.UserID == userID {
			out = append(out, post)
		}
	}
	return out, nil
}

func (s *memPostStore) UpdateReactions(_ context.Context, id string, reactions models.Reactions, likes []string) error {
	if post, ok := s.posts[id]; ok {
		post.Reactions = reactions
		post.Likes = likes
	}
	return nil
}

func (s *memPostStore) BumpReplyCount(_ context.Context, id string, delta int) error {
	if post, ok := s.posts[id]; ok {
		post.ReplyCount += delta
		if post.ReplyCount < 0 {
			post.ReplyCount = 0
		}
	}
	return nil
}

func (s *memPostStore) Delete(_ context.Context, id string) error {
	delete(s.posts, id)
	return nil
}

type memCommentStore struct {
	comments map[string]*models.Comment
	order    []string
}

func newMemCommentStore() *memCommentStore {
	return &memCommentStore{comments: make(map[string]*models.Comment)}
}

func (s *memCommentStore) Create(_ context.Context, comment *models.Comment) error {
	s.comments[comment.ID] = comment
	s.order = append(s.order, comment.ID)
	return nil
}

func (s *memCommentStore) GetByID(_ context.Context, id string) (*models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return comment, nil
}

func (s *memCommentStore) ListByPost(_ context.Context, postID string) ([]*models.Comment, error) {
	var out []*models.Comment
	for _, id := range s.order {
		if comment, ok := s.comments[id]; ok && comment.PostID == postID {
			out = append(out, comment)
		}
	}
	return out, nil
}

func (s *memCommentStore) Edit(_ context.Context, id, content string) error {
	if comment, ok := s.comments[id]; ok {
		comment.Content = content
		comment.IsEdited = true
	}
	return nil
}

func (s *memCommentStore) UpdateReactions(_ context.Context, id string, reactions models.Reactions) error {
	if comment, ok := s.comments[id]; ok {
		comment.Reactions = reactions
	}
	return nil
}

func (s *memCommentStore) DeleteWithReplies(_ context.Context, id string) (int64, error) {
	var removed int64
	for _, cid := range append([]string(nil), s.order...) {
		comment, ok := s.comments[cid]
		if !ok {
			continue
		}
		if cid == id || (comment.ParentID != nil && *comment.ParentID == id) {
			delete(s.comments, cid)
			removed++
		}
	}
	return removed, nil
}

type memFriendStore struct {
	friends map[string]map[string]bool
}

func (s *memFriendStore) FriendIDs(_ context.Context, userID string) (map[string]bool, error) {
	if set, ok := s.friends[userID]; ok {
		return set, nil
	}
	return map[string]bool{}, nil
}

type memDirectoryStore struct {
	names map[string]string
}

func (s *memDirectoryStore) Directory(_ context.Context) (map[string]string, error) {
	if s.names == nil {
		return map[string]string{}, nil
	}
	return s.names, nil
}

// memNotificationStore takes a mutex because mention fan-out writes from a
// separate goroutine.
type memNotificationStore struct {
	mu            sync.Mutex
	notifications []*models.Notification
}

func (s *memNotificationStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func newFeedServiceForTest(friends map[string]map[string]bool) (*FeedService, *memPostStore, *memCommentStore) {
	posts := newMemPostStore()
	comments := newMemCommentStore()
	svc := NewFeedService(
		posts,
		comments,
		&memFriendStore{friends: friends},
		&memDirectoryStore{},
		&memNotificationStore{},
		NewWSHub(),
	)
	return svc, posts, comments
}

func TestCommentsRespectPostVisibility(t *testing.T) {
	svc, _, _ := newFeedServiceForTest(nil)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "author", CreatePostRequest{Content: "diary entry", Privacy: models.PrivacyOnlyMe})
	require.NoError(t, err)

	_, err = svc.Comments(ctx, "stranger", post.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "an invisible post must read as missing, not as empty")

	_, err = svc.Comments(ctx, "author", post.ID)
	assert.NoError(t, err)
}

func TestAddCommentRequiresVisibility(t *testing.T) {
	friends := map[string]map[string]bool{"friend": {"author": true}}
	svc, _, _ := newFeedServiceForTest(friends)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "author", CreatePostRequest{Content: "small circle", Privacy: models.PrivacyFriends})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, "stranger", post.ID, "let me in", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.AddComment(ctx, "friend", post.ID, "nice one", nil)
	assert.NoError(t, err)
}

func TestReactToPostRequiresVisibility(t *testing.T) {
	svc, _, _ := newFeedServiceForTest(nil)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "author", CreatePostRequest{Content: "private", Privacy: models.PrivacyOnlyMe})
	require.NoError(t, err)

	_, err = svc.ReactToPost(ctx, "stranger", post.ID, "👍")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	reacted, err := svc.ReactToPost(ctx, "author", post.ID, "👍")
	require.NoError(t, err)
	assert.Contains(t, reacted.Reactions["👍"], "author")
}

func TestReactToCommentRequiresVisibility(t *testing.T) {
	friends := map[string]map[string]bool{"friend": {"author": true}}
	svc, _, _ := newFeedServiceForTest(friends)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "author", CreatePostRequest{Content: "friends only", Privacy: models.PrivacyFriends})
	require.NoError(t, err)
	comment, err := svc.AddComment(ctx, "friend", post.ID, "hello", nil)
	require.NoError(t, err)

	_, err = svc.ReactToComment(ctx, "stranger", comment.ID, "😂")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	reacted, err := svc.ReactToComment(ctx, "friend", comment.ID, "😂")
	require.NoError(t, err)
	assert.Contains(t, reacted.Reactions["😂"], "friend")
}

func TestReplyCountTracksCommentLifecycle(t *testing.T) {
	svc, posts, _ := newFeedServiceForTest(nil)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "author", CreatePostRequest{Content: "discuss"})
	require.NoError(t, err)

	root1, err := svc.AddComment(ctx, "author", post.ID, "root one", nil)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, "author", post.ID, "root two", nil)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, "author", post.ID, "reply a", &root1.ID)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, "author", post.ID, "reply b", &root1.ID)
	require.NoError(t, err)

	stored, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.ReplyCount)

	// Deleting a root takes its replies with it and the counter follows the
	// number of removed rows, not just one.
	require.NoError(t, svc.DeleteComment(ctx, "author", root1.ID))
	stored, err = posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ReplyCount)

	threads, err := svc.Comments(ctx, "author", post.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "root two", threads[0].Comment.Content)
}

func TestReactToPostMergesLegacyLikes(t *testing.T) {
	svc, posts, _ := newFeedServiceForTest(nil)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "author", CreatePostRequest{Content: "old post"})
	require.NoError(t, err)
	// Simulate a row written before reaction buckets existed.
	stored := posts.posts[post.ID]
	stored.Likes = []string{"ann", "ben"}
	stored.Reactions = models.Reactions{}

	updated, err := svc.ReactToPost(ctx, "carl", post.ID, "👍")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ann", "ben"}, updated.Reactions[models.HeartEmoji],
		"legacy likes survive an unrelated reaction")
	assert.ElementsMatch(t, []string{"ann", "ben"}, updated.Likes)

	// A legacy liker hearting again toggles off, and the mirror follows.
	updated, err = svc.ReactToPost(ctx, "ann", post.ID, models.HeartEmoji)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ben"}, updated.Reactions[models.HeartEmoji])
	assert.ElementsMatch(t, []string{"ben"}, updated.Likes)
}
