package services

import (
	"testing"
	"time"

	"campus-portal-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldRevealed(t *testing.T) {
	tests := []struct {
		name     string
		privacy  models.Privacy
		isOwner  bool
		isFriend bool
		want     bool
	}{
		{"owner always sees", models.PrivacyOnlyMe, true, false, true},
		{"public revealed to stranger", models.PrivacyPublic, false, false, true},
		{"friends revealed to friend", models.PrivacyFriends, false, true, true},
		{"friends hidden from stranger", models.PrivacyFriends, false, false, false},
		{"only_me hidden from friend", models.PrivacyOnlyMe, false, true, false},
		{"unset hidden from everyone but owner", "", false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldRevealed(tt.privacy, tt.isOwner, tt.isFriend))
		})
	}
}

func testUser() *models.User {
	return &models.User{
		ID:               "u1",
		FullName:         "Jane Doe",
		Email:            "jane@example.edu",
		StudentID:        "S-1001",
		Role:             "student",
		EmailPrivacy:     models.PrivacyFriends,
		StudentIDPrivacy: models.PrivacyOnlyMe,
		LastSeenPrivacy:  models.PrivacyPublic,
		Online:           true,
		LastSeen:         time.Now(),
	}
}

func TestFilterProfileOwner(t *testing.T) {
	view := FilterProfile(testUser(), true, false)

	require.NotNil(t, view.Email)
	assert.Equal(t, "jane@example.edu", *view.Email)
	require.NotNil(t, view.StudentID)
	assert.Equal(t, "S-1001", *view.StudentID)
	require.NotNil(t, view.Online)
	assert.True(t, *view.Online)
}

func TestFilterProfileFriend(t *testing.T) {
	view := FilterProfile(testUser(), false, true)

	require.NotNil(t, view.Email, "friends-scoped email is visible to a friend")
	assert.Nil(t, view.StudentID, "only_me field stays hidden from a friend")
	require.NotNil(t, view.Online, "public last-seen is visible")
}

func TestFilterProfileStranger(t *testing.T) {
	view := FilterProfile(testUser(), false, false)

	assert.Nil(t, view.Email)
	assert.Nil(t, view.StudentID)
	require.NotNil(t, view.Online)

	// Identity fields are never redacted.
	assert.Equal(t, "Jane Doe", view.FullName)
	assert.Equal(t, "student", view.Role)
}
