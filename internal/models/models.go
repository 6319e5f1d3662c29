package models

import "time"

// Privacy is the visibility scope attached to posts and profile fields.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyFriends Privacy = "friends"
	PrivacyOnlyMe  Privacy = "only_me"
)

// FriendshipStatus is the lifecycle state of a friend request.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// User is a registered portal account with its profile document.
type User struct {
	ID            string  `json:"id"`
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	StudentID     string  `json:"student_id"`
	Role          string  `json:"role"`
	AvatarURL     *string `json:"avatar_url,omitempty"`
	CoverPhotoURL *string `json:"cover_photo_url,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	// Per-field privacy flags; an unset value hides the field from non-owners.
	EmailPrivacy     Privacy   `json:"email_privacy"`
	StudentIDPrivacy Privacy   `json:"student_id_privacy"`
	LastSeenPrivacy  Privacy   `json:"last_seen_privacy"`
	Online           bool      `json:"online"`
	LastSeen         time.Time `json:"last_seen"`
	CreatedAt        time.Time `json:"created_at"`
}

// RosterEntry is a pre-seeded registration pin keyed by student id.
type RosterEntry struct {
	StudentID    string `json:"student_id"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	IsRegistered bool   `json:"is_registered"`
}

// Conversation is a 1:1 thread between two users. Its ID is a deterministic
// function of the participant pair, so it can be looked up without a query.
type Conversation struct {
	ID                   string               `json:"id"`
	Participants         []string             `json:"participants"`
	LastMessage          string               `json:"last_message"`
	LastMessageTimestamp time.Time            `json:"last_message_timestamp"`
	Unread               map[string]int       `json:"unread"`
	PinnedBy             []string             `json:"pinned_by"`
	BlockedBy            []string             `json:"blocked_by"`
	DeletedBy            []string             `json:"deleted_by"`
	ClearedHistoryAt     map[string]time.Time `json:"cleared_history_at"`
	PinnedMessageID      *string              `json:"pinned_message_id,omitempty"`
	Theme                string               `json:"theme"`
	BookmarkedMessages   []string             `json:"bookmarked_messages"`
	CreatedAt            time.Time            `json:"created_at"`
}

// Message is one chat message. Deleting a message leaves a tombstone: the text
// is cleared and IsDeleted set, the row stays.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	Read           bool      `json:"read"`
	Reactions      Reactions `json:"reactions"`
	ReplyTo        *string   `json:"reply_to,omitempty"`
	IsEdited       bool      `json:"is_edited"`
	IsForwarded    bool      `json:"is_forwarded"`
	IsDeleted      bool      `json:"is_deleted"`
	CreatedAt      time.Time `json:"created_at"`
}

// Post is a feed entry. Likes is the legacy boolean-array representation kept
// alongside the ❤️ reaction bucket; readers go through Post.HeartReactors.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	ImageURL   *string   `json:"image_url,omitempty"`
	Reactions  Reactions `json:"reactions"`
	Likes      []string  `json:"likes"`
	ReplyCount int       `json:"reply_count"`
	Privacy    Privacy   `json:"privacy"`
	AllowShare bool      `json:"allow_share"`
	Vibe       *string   `json:"vibe,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Comment is a feed comment. ParentID, when set, always points at a root
// comment; nesting is exactly two levels.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Reactions Reactions `json:"reactions"`
	IsEdited  bool      `json:"is_edited"`
	CreatedAt time.Time `json:"created_at"`
}

// Friendship is a directed friend request; the relationship is resolved
// symmetrically (either direction counts once accepted).
type Friendship struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	RecipientID string           `json:"recipient_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Notification is a fan-out record delivered to one recipient.
type Notification struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // mention, reaction, comment, friend_request
	ActorID     string    `json:"actor_id"`
	RecipientID string    `json:"recipient_id"`
	TargetID    string    `json:"target_id"`
	TargetType  string    `json:"target_type"` // post, comment, message, user
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// HeartReactors returns who hearted the post, reconciling the legacy likes
// array with the ❤️ reaction bucket. The legacy array counts only when the
// bucket is absent or empty; this is the single read-time adapter for the
// dual representation.
func (p *Post) HeartReactors() []string {
	if hearts := p.Reactions[HeartEmoji]; len(hearts) > 0 {
		return hearts
	}
	return p.Likes
}

// HeartEmoji is the reaction bucket shadowed by the legacy likes array.
const HeartEmoji = "❤️"
