package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		student_id TEXT UNIQUE NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		avatar_url TEXT,
		cover_photo_url TEXT,
		bio TEXT,
		email_privacy TEXT NOT NULL DEFAULT 'only_me',
		student_id_privacy TEXT NOT NULL DEFAULT 'only_me',
		last_seen_privacy TEXT NOT NULL DEFAULT 'public',
		last_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
		reset_token TEXT,
		reset_expires TIMESTAMPTZ,
		terms_accepted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS roster (
		student_id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		is_registered BOOLEAN NOT NULL DEFAULT false
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		participants TEXT[] NOT NULL,
		last_message TEXT NOT NULL DEFAULT '',
		last_message_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		unread JSONB NOT NULL DEFAULT '{}',
		pinned_by TEXT[] NOT NULL DEFAULT '{}',
		blocked_by TEXT[] NOT NULL DEFAULT '{}',
		deleted_by TEXT[] NOT NULL DEFAULT '{}',
		cleared_history_at JSONB NOT NULL DEFAULT '{}',
		pinned_message_id TEXT,
		theme TEXT NOT NULL DEFAULT 'default',
		bookmarked_messages TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender_id TEXT NOT NULL,
		text TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT false,
		reactions JSONB NOT NULL DEFAULT '{}',
		reply_to TEXT,
		is_edited BOOLEAN NOT NULL DEFAULT false,
		is_forwarded BOOLEAN NOT NULL DEFAULT false,
		is_deleted BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		image_url TEXT,
		reactions JSONB NOT NULL DEFAULT '{}',
		likes TEXT[] NOT NULL DEFAULT '{}',
		reply_count INT NOT NULL DEFAULT 0,
		privacy TEXT NOT NULL DEFAULT 'public',
		allow_share BOOLEAN NOT NULL DEFAULT true,
		vibe TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		parent_id TEXT,
		reactions JSONB NOT NULL DEFAULT '{}',
		is_edited BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS friendships (
		id TEXT PRIMARY KEY,
		requester_id TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (requester_id, recipient_id)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		target_type TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(conversation_id, sender_id, read);
	CREATE INDEX IF NOT EXISTS idx_conversations_participants ON conversations USING GIN (participants);
	CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_friendships_requester ON friendships(requester_id, status);
	CREATE INDEX IF NOT EXISTS idx_friendships_recipient ON friendships(recipient_id, status);
	CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, is_read, created_at DESC);
	`

	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
