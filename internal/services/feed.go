package services

import (
	"context"
	"time"

	"campus-portal-backend/internal/models"
	"campus-portal-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PostVisible decides whether the viewer may see a post: the author always
// sees their own posts; only_me hides from everyone else; friends requires
// the viewer in the author's accepted-friend set; public and unset are
// visible to all.
func PostVisible(post *models.Post, viewerID string, friends map[string]bool) bool {
	if post.UserID == viewerID {
		return true
	}
	switch post.Privacy {
	case models.PrivacyOnlyMe:
		return false
	case models.PrivacyFriends:
		return friends[post.UserID]
	default:
		return true
	}
}

// FilterVisiblePosts applies PostVisible across a page of posts.
func FilterVisiblePosts(posts []*models.Post, viewerID string, friends map[string]bool) []*models.Post {
	visible := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		if PostVisible(post, viewerID, friends) {
			visible = append(visible, post)
		}
	}
	return visible
}

// CommentThread is a root comment with its direct replies. Nesting is exactly
// two levels; a reply's parent is always a root.
type CommentThread struct {
	Comment *models.Comment   `json:"comment"`
	Replies []*models.Comment `json:"replies"`
}

// BuildThread groups a post's comments into root threads with their replies,
// preserving ascending creation order at both levels. Replies whose parent is
// missing are dropped rather than promoted.
func BuildThread(comments []*models.Comment) []*CommentThread {
	var roots []*CommentThread
	byID := make(map[string]*CommentThread)

	for _, comment := range comments {
		if comment.ParentID == nil {
			thread := &CommentThread{Comment: comment}
			byID[comment.ID] = thread
			roots = append(roots, thread)
		}
	}
	for _, comment := range comments {
		if comment.ParentID == nil {
			continue
		}
		if parent, ok := byID[*comment.ParentID]; ok {
			parent.Replies = append(parent.Replies, comment)
		}
	}
	return roots
}

// postStore is the slice of the post repository the feed service consumes.
type postStore interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, userID string, limit, offset int) ([]*models.Post, error)
	UpdateReactions(ctx context.Context, id string, reactions models.Reactions, likes []string) error
	BumpReplyCount(ctx context.Context, id string, delta int) error
	Delete(ctx context.Context, id string) error
}

// commentStore is the slice of the comment repository the feed service
// consumes.
type commentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	Edit(ctx context.Context, id, content string) error
	UpdateReactions(ctx context.Context, id string, reactions models.Reactions) error
	DeleteWithReplies(ctx context.Context, id string) (int64, error)
}

// friendStore resolves a user's accepted-friend set.
type friendStore interface {
	FriendIDs(ctx context.Context, userID string) (map[string]bool, error)
}

// directoryStore resolves user ids to full names for mention matching.
type directoryStore interface {
	Directory(ctx context.Context) (map[string]string, error)
}

// notificationStore persists fan-out records.
type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// FeedService owns posts, comments, and their notification side effects
type FeedService struct {
	postRepo    postStore
	commentRepo commentStore
	friendRepo  friendStore
	userRepo    directoryStore
	notifRepo   notificationStore
	hub         *WSHub
}

// NewFeedService creates a new feed service
func NewFeedService(
	postRepo postStore,
	commentRepo commentStore,
	friendRepo friendStore,
	userRepo directoryStore,
	notifRepo notificationStore,
	hub *WSHub,
) *FeedService {
	return &FeedService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		friendRepo:  friendRepo,
		userRepo:    userRepo,
		notifRepo:   notifRepo,
		hub:         hub,
	}
}

// CreatePostRequest carries the user-supplied post fields
type CreatePostRequest struct {
	Content    string         `json:"content"`
	ImageURL   *string        `json:"image_url,omitempty"`
	Privacy    models.Privacy `json:"privacy"`
	AllowShare bool           `json:"allow_share"`
	Vibe       *string        `json:"vibe,omitempty"`
}

// CreatePost stores a post and fans out mention notifications
func (s *FeedService) CreatePost(ctx context.Context, userID string, req CreatePostRequest) (*models.Post, error) {
	if req.Privacy == "" {
		req.Privacy = models.PrivacyPublic
	}
	post := &models.Post{
		ID:         uuid.New().String(),
		UserID:     userID,
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		Reactions:  models.Reactions{},
		Likes:      []string{},
		Privacy:    req.Privacy,
		AllowShare: req.AllowShare,
		Vibe:       req.Vibe,
		CreatedAt:  time.Now(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	go s.fanOutMentions(userID, post.ID, "post", post.Content)
	s.hub.Publish(TopicFeed, "post_created", post)

	return post, nil
}

// ListFeed returns the posts the viewer may see, newest first
func (s *FeedService) ListFeed(ctx context.Context, viewerID string, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	friends, err := s.friendRepo.FriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return FilterVisiblePosts(posts, viewerID, friends), nil
}

// ListUserFeed returns one author's posts as the viewer may see them
func (s *FeedService) ListUserFeed(ctx context.Context, viewerID, authorID string, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	posts, err := s.postRepo.ListByAuthor(ctx, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	friends, err := s.friendRepo.FriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return FilterVisiblePosts(posts, viewerID, friends), nil
}

// RenderPost splits a post's text into plain and mention segments
func (s *FeedService) RenderPost(ctx context.Context, content string) ([]Segment, error) {
	directory, err := s.userRepo.Directory(ctx)
	if err != nil {
		return nil, err
	}
	return RenderMentions(content, directory), nil
}

// visiblePost loads a post and verifies the viewer may see it. An invisible
// post reads as not found so the guard does not leak its existence.
func (s *FeedService) visiblePost(ctx context.Context, viewerID, postID string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != viewerID {
		friends, err := s.friendRepo.FriendIDs(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		if !PostVisible(post, viewerID, friends) {
			return nil, repository.ErrNotFound
		}
	}
	return post, nil
}

// ReactToPost sets, moves, or toggles the user's reaction. The legacy likes
// array is pre-merged into the ❤️ bucket through the read-time adapter before
// the update, then kept mirroring it.
func (s *FeedService) ReactToPost(ctx context.Context, userID, postID, emoji string) (*models.Post, error) {
	post, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Reactions == nil {
		post.Reactions = models.Reactions{}
	}
	if hearts := post.HeartReactors(); len(hearts) > 0 {
		post.Reactions[models.HeartEmoji] = append([]string(nil), hearts...)
	}

	added := post.Reactions.Apply(userID, emoji)
	post.Likes = append([]string(nil), post.Reactions[models.HeartEmoji]...)

	if err := s.postRepo.UpdateReactions(ctx, postID, post.Reactions, post.Likes); err != nil {
		return nil, err
	}

	if added && post.UserID != userID {
		s.notify(post.UserID, &models.Notification{
			Type:       "reaction",
			ActorID:    userID,
			TargetID:   postID,
			TargetType: "post",
		})
	}
	s.hub.Publish(TopicFeed, "post_updated", post)
	return post, nil
}

// DeletePost removes the author's own post and its comments
func (s *FeedService) DeletePost(ctx context.Context, userID, postID string) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return ErrNotOwner
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return err
	}
	for _, comment := range comments {
		if comment.ParentID == nil {
			if _, err := s.commentRepo.DeleteWithReplies(ctx, comment.ID); err != nil {
				return err
			}
		}
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	s.hub.Publish(TopicFeed, "post_deleted", postID)
	return nil
}

// AddComment stores a comment or reply and bumps the post's denormalized
// counter. The counter bump is the second, independent write of the pair; a
// failure is logged and left for the repair pass.
func (s *FeedService) AddComment(ctx context.Context, userID, postID, content string, parentID *string) (*models.Comment, error) {
	post, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID || parent.ParentID != nil {
			return nil, ErrInvalidParent
		}
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		ParentID:  parentID,
		Reactions: models.Reactions{},
		CreatedAt: time.Now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.postRepo.BumpReplyCount(ctx, postID, 1); err != nil {
		log.Error().Err(err).Str("post_id", postID).Msg("Comment stored but reply count bump failed")
	}

	go s.fanOutMentions(userID, comment.ID, "comment", content)
	if post.UserID != userID {
		s.notify(post.UserID, &models.Notification{
			Type:       "comment",
			ActorID:    userID,
			TargetID:   postID,
			TargetType: "post",
		})
	}
	s.hub.Publish(TopicFeed, "comment_created", comment)

	return comment, nil
}

// Comments returns the post's two-level comment thread, provided the viewer
// may see the post itself
func (s *FeedService) Comments(ctx context.Context, viewerID, postID string) ([]*CommentThread, error) {
	if _, err := s.visiblePost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return BuildThread(comments), nil
}

// EditComment replaces the author's own comment text
func (s *FeedService) EditComment(ctx context.Context, userID, commentID, content string) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return ErrNotOwner
	}
	return s.commentRepo.Edit(ctx, commentID, content)
}

// ReactToComment sets, moves, or toggles the user's reaction on a comment
func (s *FeedService) ReactToComment(ctx context.Context, userID, commentID, emoji string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.visiblePost(ctx, userID, comment.PostID); err != nil {
		return nil, err
	}
	if comment.Reactions == nil {
		comment.Reactions = models.Reactions{}
	}
	comment.Reactions.Apply(userID, emoji)
	if err := s.commentRepo.UpdateReactions(ctx, commentID, comment.Reactions); err != nil {
		return nil, err
	}
	s.hub.Publish(TopicFeed, "comment_updated", comment)
	return comment, nil
}

// DeleteComment hard-deletes a comment (with replies for a root) and
// decrements the post's counter by the number of removed rows. Allowed for
// the comment author and the post author.
func (s *FeedService) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		post, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post.UserID != userID {
			return ErrNotOwner
		}
	}

	removed, err := s.commentRepo.DeleteWithReplies(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.postRepo.BumpReplyCount(ctx, comment.PostID, -int(removed)); err != nil {
		log.Error().Err(err).Str("post_id", comment.PostID).Msg("Comment deleted but reply count decrement failed")
	}
	s.hub.Publish(TopicFeed, "comment_deleted", commentID)
	return nil
}

// fanOutMentions parses mentions and writes one notification per distinct
// mentioned user other than the author. Best effort: failures are logged.
func (s *FeedService) fanOutMentions(actorID, targetID, targetType, content string) {
	ctx := context.Background()
	directory, err := s.userRepo.Directory(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Mention fan-out: failed to load directory")
		return
	}
	for _, mentionedID := range ParseMentions(content, directory) {
		if mentionedID == actorID {
			continue
		}
		s.notify(mentionedID, &models.Notification{
			Type:       "mention",
			ActorID:    actorID,
			TargetID:   targetID,
			TargetType: targetType,
		})
	}
}

// notify stores and pushes a notification; best effort
func (s *FeedService) notify(recipientID string, n *models.Notification) {
	n.ID = uuid.New().String()
	n.RecipientID = recipientID
	n.CreatedAt = time.Now()
	if err := s.notifRepo.Create(context.Background(), n); err != nil {
		log.Error().Err(err).Str("recipient_id", recipientID).Msg("Failed to store notification")
		return
	}
	s.hub.Publish(TopicNotifications(recipientID), "notification", n)
}
