package service

import (
	"context"
	"testing"

	"young_network/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRequestLifecycle(t *testing.T) {
	db, notifSvc, rec := newNotificationService(t)
	svc := NewRelationshipService(db, notifSvc)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	// 1. alice asks bob
	req, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipPending, req.Status)

	pending, err := svc.ListPending(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, alice.ID, pending[0].ID)
	assert.NotNil(t, pending[0].RequestedAt)

	sent, err := svc.ListSent(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, bob.ID, sent[0].ID)

	friends, err := svc.IsFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, friends)

	// 2. bob accepts
	require.NoError(t, svc.Accept(ctx, bob.ID, alice.ID))

	for _, pair := range [][2]int64{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		friends, err := svc.IsFriend(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, friends)

		list, err := svc.ListAccepted(ctx, pair[0])
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, pair[1], list[0].ID)
		assert.Equal(t, model.FriendshipAccepted, list[0].Status)
	}

	pending, err = svc.ListPending(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Equal(t, []string{model.NotificationFriendRequest, model.NotificationFriendAccepted}, rec.types())
	assert.Equal(t, int64(2), countRows(t, db, &model.Friendship{}, "status = ?", model.FriendshipAccepted))
}

func TestSendRequestConflicts(t *testing.T) {
	db, notifSvc, _ := newNotificationService(t)
	svc := NewRelationshipService(db, notifSvc)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	_, err := svc.SendRequest(ctx, alice.ID, alice.ID)
	assertCode(t, err, model.CodeValidation)

	_, err = svc.SendRequest(ctx, alice.ID, 9999)
	assertCode(t, err, model.CodeNotFound)

	_, err = svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.SendRequest(ctx, alice.ID, bob.ID)
	assertCode(t, err, model.CodeConflict)

	// A request in the other direction is answered with accept, not a
	// second pending row.
	_, err = svc.SendRequest(ctx, bob.ID, alice.ID)
	assertCode(t, err, model.CodeConflict)
	assert.Equal(t, int64(1), countRows(t, db, &model.Friendship{}, "1 = 1"))

	require.NoError(t, svc.Accept(ctx, bob.ID, alice.ID))
	_, err = svc.SendRequest(ctx, bob.ID, alice.ID)
	assertCode(t, err, model.CodeConflict)
}

func TestAcceptWithoutRequest(t *testing.T) {
	db, notifSvc, rec := newNotificationService(t)
	svc := NewRelationshipService(db, notifSvc)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	err := svc.Accept(context.Background(), bob.ID, alice.ID)
	assertCode(t, err, model.CodeNotFound)
	assert.Empty(t, rec.types())
	assert.Equal(t, int64(0), countRows(t, db, &model.Friendship{}, "1 = 1"))
}

func TestRejectAndRemove(t *testing.T) {
	db, notifSvc, rec := newNotificationService(t)
	svc := NewRelationshipService(db, notifSvc)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	_, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Reject(ctx, bob.ID, alice.ID))
	require.NoError(t, svc.Reject(ctx, bob.ID, alice.ID))
	assert.Equal(t, int64(0), countRows(t, db, &model.Friendship{}, "1 = 1"))

	require.NoError(t, svc.DirectAdd(ctx, alice.ID, bob.ID))
	require.NoError(t, svc.Remove(ctx, bob.ID, alice.ID))
	assert.Equal(t, int64(0), countRows(t, db, &model.Friendship{}, "1 = 1"))

	// Removing again is a no-op and notifies nobody.
	require.NoError(t, svc.Remove(ctx, bob.ID, alice.ID))
	assert.Equal(t, []string{
		model.NotificationFriendRequest,
		model.NotificationFriendAdded,
		model.NotificationFriendRemoved,
	}, rec.types())
}

func TestDirectAddNotifiesOnce(t *testing.T) {
	db, notifSvc, rec := newNotificationService(t)
	svc := NewRelationshipService(db, notifSvc)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	require.NoError(t, svc.DirectAdd(ctx, alice.ID, bob.ID))
	require.NoError(t, svc.DirectAdd(ctx, alice.ID, bob.ID))

	assert.Equal(t, []string{model.NotificationFriendAdded}, rec.types())
	assert.Equal(t, int64(1), countRows(t, db, &model.Notification{}, "user_id = ?", bob.ID))
	assert.Equal(t, int64(2), countRows(t, db, &model.Friendship{}, "status = ?", model.FriendshipAccepted))

	err := svc.DirectAdd(ctx, alice.ID, 9999)
	assertCode(t, err, model.CodeNotFound)
}

func TestDirectAddCompletesPendingRequest(t *testing.T) {
	db, notifSvc, _ := newNotificationService(t)
	svc := NewRelationshipService(db, notifSvc)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	_, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DirectAdd(ctx, bob.ID, alice.ID))

	assert.Equal(t, int64(2), countRows(t, db, &model.Friendship{}, "status = ?", model.FriendshipAccepted))
	assert.Equal(t, int64(0), countRows(t, db, &model.Friendship{}, "status = ?", model.FriendshipPending))
}
