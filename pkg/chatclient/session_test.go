package chatclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modpanel/internal/domain/entity"
)

func inbound(id, from string, at time.Time) *entity.Message {
	return &entity.Message{ID: id, FromUserID: from, ToUserID: "me", Body: id, CreatedAt: at}
}

func TestPendingConfirmReplacesPlaceholder(t *testing.T) {
	s := NewSession("me")

	pending := s.AddPending("admin-a", entity.MessageTypeDirect, "on my way", nil)
	require.True(t, IsTempID(pending.ID))
	require.Len(t, s.Messages("admin-a"), 1)

	confirmed := &entity.Message{
		ID:         "server-1",
		FromUserID: "me",
		ToUserID:   "admin-a",
		Body:       "on my way",
		CreatedAt:  time.Now(),
	}
	s.ConfirmPending(pending.ID, confirmed)

	messages := s.Messages("admin-a")
	require.Len(t, messages, 1)
	assert.Equal(t, "server-1", messages[0].ID)
}

func TestPendingConfirmAfterRealtimeCopyArrived(t *testing.T) {
	s := NewSession("me")

	pending := s.AddPending("admin-a", entity.MessageTypeDirect, "hello", nil)

	// The broadcast beats the HTTP response back to the client.
	confirmed := &entity.Message{
		ID:         "server-1",
		FromUserID: "me",
		ToUserID:   "admin-a",
		Body:       "hello",
		CreatedAt:  time.Now(),
	}
	s.ApplyIncoming(confirmed)
	s.ConfirmPending(pending.ID, confirmed)

	messages := s.Messages("admin-a")
	require.Len(t, messages, 1)
	assert.Equal(t, "server-1", messages[0].ID)
}

func TestPendingConfirmWhileSendingAsAnotherAdmin(t *testing.T) {
	s := NewSession("admin-a")

	pending := s.AddPending("mod-1", entity.MessageTypeDirect, "covering for ben", nil)
	require.Len(t, s.Messages("mod-1"), 1)

	// Sent on behalf of admin-b: the persisted message names neither
	// participant as admin-a, yet the placeholder must still resolve.
	confirmed := &entity.Message{
		ID:         "server-1",
		FromUserID: "admin-b",
		ToUserID:   "mod-1",
		Body:       "covering for ben",
		CreatedAt:  time.Now(),
	}
	s.ConfirmPending(pending.ID, confirmed)

	messages := s.Messages("mod-1")
	require.Len(t, messages, 1)
	assert.Equal(t, "server-1", messages[0].ID)
	assert.False(t, IsTempID(messages[0].ID))
}

func TestFailPendingRemovesPlaceholder(t *testing.T) {
	s := NewSession("me")

	pending := s.AddPending("admin-a", entity.MessageTypeDirect, "rejected", nil)
	s.FailPending("admin-a", pending.ID)

	assert.Empty(t, s.Messages("admin-a"))
}

func TestApplyIncomingDedupesById(t *testing.T) {
	s := NewSession("me")
	msg := inbound("m1", "admin-a", time.Now())

	assert.True(t, s.ApplyIncoming(msg))
	// Redelivery of the same id is not a second unread.
	assert.False(t, s.ApplyIncoming(msg))

	assert.Len(t, s.Messages("admin-a"), 1)
	assert.Equal(t, 1, s.Unread("admin-a"))
}

func TestApplyIncomingIgnoresForeignConversations(t *testing.T) {
	s := NewSession("me")
	foreign := &entity.Message{ID: "m1", FromUserID: "x", ToUserID: "y", CreatedAt: time.Now()}

	assert.False(t, s.ApplyIncoming(foreign))
	assert.Empty(t, s.Messages("x"))
}

func TestOpenChatMarksReadOncePerEpisode(t *testing.T) {
	s := NewSession("me")
	base := time.Now()

	s.ApplyIncoming(inbound("m1", "admin-a", base))
	require.Equal(t, 1, s.Unread("admin-a"))

	// First open fires the mark-read call and clears the badge locally.
	assert.True(t, s.OpenChat("admin-a"))
	assert.Equal(t, 0, s.Unread("admin-a"))

	// Reopening with nothing new stays quiet.
	assert.False(t, s.OpenChat("admin-a"))

	// A fresh unread message re-arms the guard.
	s.ApplyIncoming(inbound("m2", "admin-a", base.Add(time.Minute)))
	require.Equal(t, 1, s.Unread("admin-a"))
	assert.True(t, s.OpenChat("admin-a"))
	assert.False(t, s.OpenChat("admin-a"))
}

func TestOpenChatWithNoUnreadIsQuiet(t *testing.T) {
	s := NewSession("me")
	assert.False(t, s.OpenChat("admin-a"))
}

func TestSnapshotMergePreservesRealtimeArrivals(t *testing.T) {
	s := NewSession("me")
	base := time.Now()

	// Realtime message lands while the snapshot fetch is in flight; the
	// snapshot predates it.
	s.ApplyIncoming(inbound("m3", "admin-a", base.Add(2*time.Minute)))
	s.ApplySnapshot("admin-a", []*entity.Message{
		inbound("m1", "admin-a", base),
		inbound("m2", "admin-a", base.Add(time.Minute)),
	})

	messages := s.Messages("admin-a")
	require.Len(t, messages, 3)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m3", messages[2].ID)
}

func TestSnapshotWithUnreadReArmsMarkRead(t *testing.T) {
	s := NewSession("me")
	base := time.Now()

	s.ApplyIncoming(inbound("m1", "admin-a", base))
	require.True(t, s.OpenChat("admin-a"))

	// A reconnect resync delivers a message missed while offline.
	s.ApplySnapshot("admin-a", []*entity.Message{inbound("m2", "admin-a", base.Add(time.Minute))})

	assert.Equal(t, 1, s.Unread("admin-a"))
	assert.True(t, s.OpenChat("admin-a"))
}

func TestApplyIncomingEditReplacesStoredCopy(t *testing.T) {
	s := NewSession("me")
	base := time.Now()

	s.ApplyIncoming(inbound("m1", "admin-a", base))
	require.True(t, s.OpenChat("admin-a"))

	edited := inbound("m1", "admin-a", base)
	edited.Body = "corrected"
	edited.IsEdited = true
	edited.IsRead = true

	assert.False(t, s.ApplyIncoming(edited))

	messages := s.Messages("admin-a")
	require.Len(t, messages, 1)
	assert.Equal(t, "corrected", messages[0].Body)
	assert.True(t, messages[0].IsEdited)
}

func TestApplyIncomingTombstoneClearsUnread(t *testing.T) {
	s := NewSession("me")
	base := time.Now()

	s.ApplyIncoming(inbound("m1", "admin-a", base))
	require.Equal(t, 1, s.Unread("admin-a"))

	tombstone := inbound("m1", "admin-a", base)
	tombstone.Body = ""
	tombstone.IsDeleted = true
	s.ApplyIncoming(tombstone)

	assert.Equal(t, 0, s.Unread("admin-a"))
	// The row itself survives as a tombstone.
	require.Len(t, s.Messages("admin-a"), 1)
	assert.True(t, s.Messages("admin-a")[0].IsDeleted)
}
