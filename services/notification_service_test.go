package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/hpp-app/notify"
)

type recordingHub struct {
	messages []notify.Message
	targets  []*uint
}

func (h *recordingHub) Broadcast(orgID uint, userID *uint, msg notify.Message) int {
	h.messages = append(h.messages, msg)
	h.targets = append(h.targets, userID)
	return 1
}

func TestNotificationVisibility(t *testing.T) {
	db := setupTestDB(t)
	org := seedOrg(t, db, "Kedai")
	hub := &recordingHub{}
	svc := NewNotificationService(db, hub)

	alice, bob := uint(1), uint(2)
	broadcast, err := svc.Notify(org.ID, nil, notify.EventMemberJoined, "Anggota baru", "Budi bergabung", map[string]uint{"user_id": 3})
	require.NoError(t, err)
	_, err = svc.Notify(org.ID, &alice, notify.EventIngredientPriceChanged, "Harga", "Khusus Alice", nil)
	require.NoError(t, err)

	require.Len(t, hub.messages, 2)
	assert.Equal(t, notify.EventMemberJoined, hub.messages[0].Event)
	assert.Nil(t, hub.targets[0])
	assert.Equal(t, &alice, hub.targets[1])

	var data map[string]uint
	require.NoError(t, json.Unmarshal(broadcast.Data, &data))
	assert.Equal(t, uint(3), data["user_id"])

	forAlice, err := svc.List(org.ID, alice, false, 0)
	require.NoError(t, err)
	assert.Len(t, forAlice, 2)
	forBob, err := svc.List(org.ID, bob, false, 0)
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.Equal(t, broadcast.ID, forBob[0].ID)

	other := seedOrg(t, db, "Lain")
	none, err := svc.List(other.ID, alice, false, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNotificationReadAndDelete(t *testing.T) {
	db := setupTestDB(t)
	org := seedOrg(t, db, "Kedai")
	svc := NewNotificationService(db, nil)

	alice, bob := uint(1), uint(2)
	private, err := svc.Notify(org.ID, &alice, notify.EventInvitationCreated, "Undangan", "Pribadi", nil)
	require.NoError(t, err)
	_, err = svc.Notify(org.ID, nil, notify.EventInvitationCreated, "Undangan", "Umum", nil)
	require.NoError(t, err)

	count, err := svc.UnreadCount(org.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	read, err := svc.MarkRead(org.ID, alice, private.ID)
	require.NoError(t, err)
	assert.NotNil(t, read.ReadAt)

	unread, err := svc.List(org.ID, alice, true, 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Umum", unread[0].Message)

	_, err = svc.MarkRead(org.ID, bob, private.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(org.ID, bob, private.ID), ErrNotFound)
	require.NoError(t, svc.Delete(org.ID, alice, private.ID))

	count, err = svc.UnreadCount(org.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
