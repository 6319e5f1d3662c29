package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionsApplyAdd(t *testing.T) {
	r := Reactions{}

	held := r.Apply("user-1", "👍")

	assert.True(t, held)
	assert.Equal(t, []string{"user-1"}, r["👍"])
}

func TestReactionsApplyToggleOff(t *testing.T) {
	r := Reactions{}

	r.Apply("user-1", "👍")
	held := r.Apply("user-1", "👍")

	assert.False(t, held)
	_, exists := r["👍"]
	assert.False(t, exists, "empty bucket should be deleted, not left as []")
}

func TestReactionsApplyMove(t *testing.T) {
	r := Reactions{}

	r.Apply("user-1", "👍")
	held := r.Apply("user-1", "😂")

	assert.True(t, held)
	assert.Equal(t, []string{"user-1"}, r["😂"])
	_, exists := r["👍"]
	assert.False(t, exists, "moving a reaction must not leave the old bucket")
	assert.Equal(t, 1, r.Count(), "a user holds at most one reaction")
}

func TestReactionsApplyDoubleToggleRestores(t *testing.T) {
	r := Reactions{"🔥": {"user-2"}}

	r.Apply("user-1", "🔥")
	r.Apply("user-1", "🔥")

	assert.Equal(t, []string{"user-2"}, r["🔥"])
}

func TestReactionsByUser(t *testing.T) {
	r := Reactions{"👍": {"a", "b"}, "😂": {"c"}}

	emoji, ok := r.ByUser("c")
	require.True(t, ok)
	assert.Equal(t, "😂", emoji)

	_, ok = r.ByUser("d")
	assert.False(t, ok)
}

func TestReactionsCount(t *testing.T) {
	r := Reactions{"👍": {"a", "b"}, "😂": {"c"}}
	assert.Equal(t, 3, r.Count())
	assert.Equal(t, 0, Reactions{}.Count())
}

func TestHeartReactorsPrefersBucket(t *testing.T) {
	post := &Post{
		Reactions: Reactions{HeartEmoji: {"a", "b"}},
		Likes:     []string{"c"},
	}
	assert.Equal(t, []string{"a", "b"}, post.HeartReactors())
}

func TestHeartReactorsFallsBackToLegacyLikes(t *testing.T) {
	post := &Post{
		Reactions: Reactions{},
		Likes:     []string{"c", "d"},
	}
	assert.Equal(t, []string{"c", "d"}, post.HeartReactors())

	// An empty bucket counts as absent.
	post.Reactions = Reactions{HeartEmoji: {}}
	assert.Equal(t, []string{"c", "d"}, post.HeartReactors())
}
