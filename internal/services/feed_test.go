package services

import (
	"testing"

	"campus-portal-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostVisible(t *testing.T) {
	friends := map[string]bool{"friend": true}

	tests := []struct {
		name    string
		post    *models.Post
		viewer  string
		visible bool
	}{
		{"author sees own only_me post", &models.Post{UserID: "me", Privacy: models.PrivacyOnlyMe}, "me", true},
		{"only_me hidden from everyone else", &models.Post{UserID: "friend", Privacy: models.PrivacyOnlyMe}, "me", false},
		{"friends post visible to friend", &models.Post{UserID: "friend", Privacy: models.PrivacyFriends}, "me", true},
		{"friends post hidden from stranger", &models.Post{UserID: "stranger", Privacy: models.PrivacyFriends}, "me", false},
		{"public visible to all", &models.Post{UserID: "stranger", Privacy: models.PrivacyPublic}, "me", true},
		{"unset privacy treated as visible", &models.Post{UserID: "stranger"}, "me", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, PostVisible(tt.post, tt.viewer, friends))
		})
	}
}

func TestFilterVisiblePosts(t *testing.T) {
	posts := []*models.Post{
		{ID: "p1", UserID: "me", Privacy: models.PrivacyOnlyMe},
		{ID: "p2", UserID: "stranger", Privacy: models.PrivacyOnlyMe},
		{ID: "p3", UserID: "stranger", Privacy: models.PrivacyPublic},
	}

	visible := FilterVisiblePosts(posts, "me", nil)
	require.Len(t, visible, 2)
	assert.Equal(t, "p1", visible[0].ID)
	assert.Equal(t, "p3", visible[1].ID)
}

func TestBuildThread(t *testing.T) {
	root1 := &models.Comment{ID: "c1"}
	root2 := &models.Comment{ID: "c2"}
	reply1 := &models.Comment{ID: "c3", ParentID: strPtr("c1")}
	reply2 := &models.Comment{ID: "c4", ParentID: strPtr("c1")}

	threads := BuildThread([]*models.Comment{root1, root2, reply1, reply2})

	require.Len(t, threads, 2)
	assert.Equal(t, "c1", threads[0].Comment.ID)
	require.Len(t, threads[0].Replies, 2)
	assert.Equal(t, "c3", threads[0].Replies[0].ID)
	assert.Equal(t, "c4", threads[0].Replies[1].ID)
	assert.Empty(t, threads[1].Replies)
}

func TestBuildThreadDropsOrphans(t *testing.T) {
	orphan := &models.Comment{ID: "c2", ParentID: strPtr("gone")}
	threads := BuildThread([]*models.Comment{{ID: "c1"}, orphan})

	require.Len(t, threads, 1)
	assert.Empty(t, threads[0].Replies, "a reply whose parent is missing is dropped, not promoted")
}

func TestBuildThreadEmpty(t *testing.T) {
	assert.Empty(t, BuildThread(nil))
}

func strPtr(s string) *string { return &s }
