package handler

import (
	"net/http"
	"testing"

	"young_network/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendshipAndMessagingFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "+10000000001")
	bob := env.register(t, "bob", "+10000000002")

	resp := env.call(t, "friends", http.MethodPost, alice.AuthToken, nil, map[string]interface{}{
		"action": "send_request", "user_id": alice.ID, "friend_id": bob.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)

	resp = env.call(t, "friends", http.MethodGet, bob.AuthToken, map[string]string{"type": "pending"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	var pending []model.Friend
	decode(t, resp, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, alice.ID, pending[0].ID)

	resp = env.call(t, "friends", http.MethodPost, bob.AuthToken, nil, map[string]interface{}{
		"action": "accept", "friend_id": alice.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	for _, who := range []registered{alice, bob} {
		resp = env.call(t, "friends", http.MethodGet, who.AuthToken, nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		var friends []model.Friend
		decode(t, resp, &friends)
		require.Len(t, friends, 1)
		assert.NotEqual(t, who.ID, friends[0].ID)
	}

	resp = env.call(t, "friends", http.MethodGet, alice.AuthToken, map[string]string{"type": "status", "friend_id": id(bob.ID)}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.JSONEq(t, `{"is_friend":true}`, resp.Body)

	resp = env.call(t, "messages", http.MethodPost, alice.AuthToken, nil, map[string]interface{}{
		"sender_id": alice.ID, "receiver_id": bob.ID, "content": "hi",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)

	resp = env.call(t, "messages", http.MethodGet, bob.AuthToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	var conversations []model.ConversationSummary
	decode(t, resp, &conversations)
	require.Len(t, conversations, 1)
	assert.Equal(t, alice.ID, conversations[0].UserID)
	assert.Equal(t, "hi", conversations[0].LastMessage)
	assert.EqualValues(t, 1, conversations[0].UnreadCount)

	resp = env.call(t, "messages", http.MethodGet, bob.AuthToken, map[string]string{"with_user_id": id(alice.ID)}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	var thread []model.Message
	decode(t, resp, &thread)
	require.Len(t, thread, 1)
	assert.False(t, thread[0].IsRead)

	resp = env.call(t, "messages", http.MethodPut, bob.AuthToken, nil, map[string]interface{}{
		"action": "mark_read", "message_id": thread[0].ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.JSONEq(t, `{"success":true}`, resp.Body)

	resp = env.call(t, "messages", http.MethodGet, bob.AuthToken, nil, nil)
	decode(t, resp, &conversations)
	require.Len(t, conversations, 1)
	assert.Zero(t, conversations[0].UnreadCount)

	resp = env.call(t, "messages", http.MethodPost, alice.AuthToken, nil, map[string]interface{}{
		"sender_id": alice.ID, "receiver_id": bob.ID, "content": "still there?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)

	resp = env.call(t, "messages", http.MethodPut, bob.AuthToken, nil, map[string]interface{}{
		"action": "mark_thread_read", "with_user_id": alice.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.JSONEq(t, `{"success":true,"marked":1}`, resp.Body)

	resp = env.call(t, "messages", http.MethodGet, bob.AuthToken, nil, nil)
	decode(t, resp, &conversations)
	require.Len(t, conversations, 1)
	assert.Equal(t, "still there?", conversations[0].LastMessage)
	assert.Zero(t, conversations[0].UnreadCount)

	// bob was told about the request; alice about the acceptance.
	resp = env.call(t, "notifications", http.MethodGet, bob.AuthToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	var page model.NotificationPage
	decode(t, resp, &page)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, model.NotificationFriendRequest, page.Notifications[0].Type)

	resp = env.call(t, "notifications", http.MethodGet, alice.AuthToken, nil, nil)
	decode(t, resp, &page)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, model.NotificationFriendAccepted, page.Notifications[0].Type)
	assert.EqualValues(t, 1, page.UnreadCount)

	resp = env.call(t, "notifications", http.MethodPost, alice.AuthToken, nil, map[string]interface{}{"action": "mark_all_read"})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.JSONEq(t, `{"success":true,"marked":1}`, resp.Body)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "+10000000001")

	resp := env.call(t, "friends", http.MethodGet, alice.AuthToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.call(t, "auth", http.MethodPost, alice.AuthToken, nil, map[string]string{"action": "logout"})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	resp = env.call(t, "friends", http.MethodGet, alice.AuthToken, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.call(t, "auth", http.MethodPost, "", nil, map[string]string{
		"phone": "+1 (000) 000-0001", "password": "Passw0rdX",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	var again registered
	decode(t, resp, &again)
	assert.Equal(t, alice.ID, again.ID)
	assert.NotEqual(t, alice.AuthToken, again.AuthToken)
}

func TestLoginWithRevokedTokenStillSent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "+10000000001")

	resp := env.call(t, "auth", http.MethodPost, alice.AuthToken, nil, map[string]string{"action": "logout"})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	resp = env.call(t, "auth", http.MethodPost, alice.AuthToken, nil, map[string]string{
		"action": "login", "username": "alice", "password": "Passw0rdX",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	var again registered
	decode(t, resp, &again)
	assert.Equal(t, alice.ID, again.ID)

	// The stale header is still refused where a caller is required.
	resp = env.call(t, "friends", http.MethodGet, alice.AuthToken, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostsPlaylistsAndCommunities(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "+10000000001")
	bob := env.register(t, "bob", "+10000000002")

	resp := env.call(t, "posts", http.MethodPost, alice.AuthToken, nil, map[string]interface{}{"content": "first post"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	var post model.Post
	decode(t, resp, &post)

	resp = env.call(t, "posts", http.MethodPost, bob.AuthToken, nil, map[string]interface{}{"action": "like", "post_id": post.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.JSONEq(t, `{"liked":true,"likes_count":1}`, resp.Body)

	resp = env.call(t, "posts", http.MethodGet, "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	var feed struct {
		Posts []model.Post `json:"posts"`
	}
	decode(t, resp, &feed)
	require.Len(t, feed.Posts, 1)
	assert.EqualValues(t, 1, feed.Posts[0].LikesCount)

	resp = env.call(t, "posts", http.MethodPost, alice.AuthToken, nil, map[string]interface{}{
		"action": "create_playlist", "name": "Mix",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	var created struct {
		PlaylistID int64 `json:"playlist_id"`
	}
	decode(t, resp, &created)

	resp = env.call(t, "posts", http.MethodPost, bob.AuthToken, nil, map[string]interface{}{
		"action": "add_track", "playlist_id": created.PlaylistID, "title": "Song", "url": "https://example.com/a.mp3",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, resp.Body)

	resp = env.call(t, "communities", http.MethodPost, alice.AuthToken, nil, map[string]interface{}{"name": "Climbers"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	var community model.Community
	decode(t, resp, &community)

	resp = env.call(t, "communities", http.MethodPost, bob.AuthToken, nil, map[string]interface{}{
		"action": "join", "community_id": community.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	var membership model.Membership
	decode(t, resp, &membership)
	assert.EqualValues(t, 2, membership.MembersCount)
	assert.True(t, membership.IsMember)

	resp = env.call(t, "communities", http.MethodPost, bob.AuthToken, nil, map[string]interface{}{
		"action": "join", "community_id": community.ID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMusicBookmarks(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "+10000000001")

	resp := env.call(t, "music", http.MethodPost, alice.AuthToken, nil, map[string]interface{}{
		"platform": "YouTube", "external_id": "dQw4w9WgXcQ", "title": "Song", "url": "https://youtu.be/dQw4w9WgXcQ",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	var saved model.MusicBookmark
	decode(t, resp, &saved)
	assert.Equal(t, model.PlatformYouTube, saved.Platform)

	resp = env.call(t, "music", http.MethodGet, alice.AuthToken, map[string]string{"platform": "yandex"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.JSONEq(t, `[]`, resp.Body)

	resp = env.call(t, "music", http.MethodDelete, alice.AuthToken, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.call(t, "music", http.MethodDelete, alice.AuthToken, map[string]string{"track_id": id(saved.ID)}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	resp = env.call(t, "music", http.MethodGet, alice.AuthToken, nil, nil)
	assert.JSONEq(t, `[]`, resp.Body)
}
