package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modpanel/internal/domain/entity"
	ws "modpanel/internal/infrastructure/websocket"
	"modpanel/pkg/errors"
)

func newInboxFixture(t *testing.T) (*InboxUseCase, *memMessageRepo, *memUserRepo) {
	t.Helper()
	adminA, adminB, moderator, outsider := testUsers()
	userRepo := newMemUserRepo(adminA, adminB, moderator, outsider)
	messageRepo := &memMessageRepo{}
	uc := NewInboxUseCase(messageRepo, userRepo, ws.NewManager())
	return uc, messageRepo, userRepo
}

func seed(t *testing.T, repo *memMessageRepo, from, to, body string, at time.Time, read bool) *entity.Message {
	t.Helper()
	msg := &entity.Message{
		DomainID:   "acme",
		FromUserID: from,
		ToUserID:   to,
		Type:       entity.MessageTypeDirect,
		Body:       body,
		IsRead:     entity.ReadFlag(read),
		CreatedAt:  at,
	}
	require.NoError(t, repo.Create(context.Background(), msg))
	return msg
}

func TestModeratorInboxGroupsByCounterparty(t *testing.T) {
	uc, repo, _ := newInboxFixture(t)
	base := time.Now().Add(-time.Hour)

	seed(t, repo, "admin-a", "mod-1", "from ana", base, false)
	seed(t, repo, "mod-1", "admin-a", "to ana", base.Add(time.Minute), false)
	seed(t, repo, "admin-b", "mod-1", "from ben", base.Add(2*time.Minute), true)

	chats, err := uc.GetModeratorInbox(context.Background(), "mod-1", entity.MessageTypeDirect)
	require.NoError(t, err)
	require.Len(t, chats, 2)

	// Ana's chat has the lone unread, so it sorts first despite Ben's chat
	// being more recent.
	assert.Equal(t, "admin-a", chats[0].User.ID)
	assert.Equal(t, 1, chats[0].UnreadCount)
	assert.Len(t, chats[0].Messages, 2)

	assert.Equal(t, "admin-b", chats[1].User.ID)
	assert.Equal(t, 0, chats[1].UnreadCount)
}

func TestModeratorInboxOrdersByRecencyWhenAllRead(t *testing.T) {
	uc, repo, _ := newInboxFixture(t)
	base := time.Now().Add(-time.Hour)

	seed(t, repo, "admin-a", "mod-1", "older", base, true)
	seed(t, repo, "admin-b", "mod-1", "newer", base.Add(10*time.Minute), true)

	chats, err := uc.GetModeratorInbox(context.Background(), "mod-1", entity.MessageTypeDirect)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "admin-b", chats[0].User.ID)
	assert.Equal(t, "admin-a", chats[1].User.ID)
}

func TestModeratorInboxSkipsDeletedInUnreadCount(t *testing.T) {
	uc, repo, _ := newInboxFixture(t)
	base := time.Now().Add(-time.Hour)

	msg := seed(t, repo, "admin-a", "mod-1", "", base, false)
	msg.IsDeleted = true
	seed(t, repo, "admin-a", "mod-1", "still here", base.Add(time.Minute), false)

	chats, err := uc.GetModeratorInbox(context.Background(), "mod-1", entity.MessageTypeDirect)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, 1, chats[0].UnreadCount)
	// The tombstone itself stays in the transcript.
	assert.Len(t, chats[0].Messages, 2)
}

func TestAdministratorInboxBucketsByCurrentAssignment(t *testing.T) {
	uc, repo, userRepo := newInboxFixture(t)
	base := time.Now().Add(-time.Hour)

	// History written while mod-1 reported to admin-a.
	seed(t, repo, "mod-1", "admin-a", "old question", base, true)
	seed(t, repo, "admin-a", "mod-1", "old answer", base.Add(time.Minute), true)
	seed(t, repo, "mod-1", "admin-a", "fresh unread", base.Add(2*time.Minute), false)

	inbox, err := uc.GetAdministratorInbox(context.Background(), "admin-a", entity.MessageTypeDirect)
	require.NoError(t, err)
	require.Len(t, inbox.Tabs, 1)
	assert.Equal(t, "admin-a", inbox.Tabs[0].Admin.ID)
	require.Len(t, inbox.Tabs[0].Chats, 1)
	assert.Equal(t, 1, inbox.Tabs[0].Chats[0].UnreadCount)

	// Reassign the moderator. The whole history moves to Ben's tab on the
	// next fetch; no message is rewritten.
	mod, err := userRepo.GetByID(context.Background(), "mod-1")
	require.NoError(t, err)
	mod.AdministratorID = "admin-b"
	require.NoError(t, userRepo.Update(context.Background(), mod))

	inbox, err = uc.GetAdministratorInbox(context.Background(), "admin-a", entity.MessageTypeDirect)
	require.NoError(t, err)
	require.Len(t, inbox.Tabs, 1)
	assert.Equal(t, "admin-b", inbox.Tabs[0].Admin.ID)
	require.Len(t, inbox.Tabs[0].Chats, 1)
	assert.Len(t, inbox.Tabs[0].Chats[0].Messages, 3)
	assert.Empty(t, inbox.Unassigned.Chats)
}

func TestAdministratorInboxUnreadScopedToTabIdentity(t *testing.T) {
	uc, repo, userRepo := newInboxFixture(t)
	base := time.Now().Add(-time.Hour)

	// Unread left over from the admin-a era.
	seed(t, repo, "mod-1", "admin-a", "never answered", base, false)

	mod, err := userRepo.GetByID(context.Background(), "mod-1")
	require.NoError(t, err)
	mod.AdministratorID = "admin-b"
	require.NoError(t, userRepo.Update(context.Background(), mod))

	// The chat now lives under Ben's tab, but the stale unread is addressed
	// to Ana and must not badge it.
	inbox, err := uc.GetAdministratorInbox(context.Background(), "admin-b", entity.MessageTypeDirect)
	require.NoError(t, err)
	require.Len(t, inbox.Tabs, 1)
	assert.Equal(t, "admin-b", inbox.Tabs[0].Admin.ID)
	require.Len(t, inbox.Tabs[0].Chats, 1)
	assert.Equal(t, 0, inbox.Tabs[0].Chats[0].UnreadCount)
	assert.Len(t, inbox.Tabs[0].Chats[0].Messages, 1)

	// A fresh message to Ben badges the tab, and Ben's mark-read clears it.
	seed(t, repo, "mod-1", "admin-b", "new question", base.Add(time.Minute), false)

	inbox, err = uc.GetAdministratorInbox(context.Background(), "admin-b", entity.MessageTypeDirect)
	require.NoError(t, err)
	assert.Equal(t, 1, inbox.Tabs[0].Chats[0].UnreadCount)

	messages := NewMessageUseCase(repo, userRepo, ws.NewManager(), nil)
	updated, err := messages.MarkChatRead(context.Background(), "admin-b", MarkChatReadInput{
		FromUserID: "mod-1",
		Type:       entity.MessageTypeDirect,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	inbox, err = uc.GetAdministratorInbox(context.Background(), "admin-b", entity.MessageTypeDirect)
	require.NoError(t, err)
	assert.Equal(t, 0, inbox.Tabs[0].Chats[0].UnreadCount)
}

func TestAdministratorInboxUnassignedBucket(t *testing.T) {
	uc, repo, userRepo := newInboxFixture(t)

	mod, err := userRepo.GetByID(context.Background(), "mod-1")
	require.NoError(t, err)
	mod.AdministratorID = ""
	require.NoError(t, userRepo.Update(context.Background(), mod))

	seed(t, repo, "mod-1", "admin-a", "who do I report to", time.Now(), false)

	inbox, err := uc.GetAdministratorInbox(context.Background(), "admin-a", entity.MessageTypeDirect)
	require.NoError(t, err)
	assert.Empty(t, inbox.Tabs)
	require.Len(t, inbox.Unassigned.Chats, 1)
	assert.Equal(t, "mod-1", inbox.Unassigned.Chats[0].User.ID)
	// Without a tab admin to scope to, any unread on the admin side keeps
	// the badge.
	assert.Equal(t, 1, inbox.Unassigned.Chats[0].UnreadCount)
}

func TestAdministratorInboxRequiresAdminRole(t *testing.T) {
	uc, _, _ := newInboxFixture(t)

	_, err := uc.GetAdministratorInbox(context.Background(), "mod-1", entity.MessageTypeDirect)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestGetInboxDispatchesByRole(t *testing.T) {
	uc, repo, _ := newInboxFixture(t)
	seed(t, repo, "admin-a", "mod-1", "hello", time.Now(), false)

	modInbox, err := uc.GetInbox(context.Background(), "mod-1", entity.MessageTypeDirect)
	require.NoError(t, err)
	assert.Nil(t, modInbox.Admin)
	assert.Len(t, modInbox.Chats, 1)

	adminInbox, err := uc.GetInbox(context.Background(), "admin-a", entity.MessageTypeDirect)
	require.NoError(t, err)
	require.NotNil(t, adminInbox.Admin)
	assert.Nil(t, adminInbox.Chats)
}

func TestInboxTypesStaySeparate(t *testing.T) {
	uc, repo, _ := newInboxFixture(t)

	require.NoError(t, repo.Create(context.Background(), &entity.Message{
		DomainID: "acme", FromUserID: "admin-a", ToUserID: "mod-1",
		Type: entity.MessageTypeSupport, Body: "support ticket", CreatedAt: time.Now(),
	}))

	chats, err := uc.GetModeratorInbox(context.Background(), "mod-1", entity.MessageTypeDirect)
	require.NoError(t, err)
	assert.Empty(t, chats)

	chats, err = uc.GetModeratorInbox(context.Background(), "mod-1", entity.MessageTypeSupport)
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestSortChatsUnreadFirstThenRecent(t *testing.T) {
	older := &Chat{
		User:     &entity.User{ID: "u1"},
		Messages: []*entity.Message{{CreatedAt: time.Now().Add(-2 * time.Hour)}},
	}
	newer := &Chat{
		User:     &entity.User{ID: "u2"},
		Messages: []*entity.Message{{CreatedAt: time.Now().Add(-time.Hour)}},
	}
	unread := &Chat{
		User:        &entity.User{ID: "u3"},
		Messages:    []*entity.Message{{CreatedAt: time.Now().Add(-24 * time.Hour)}},
		UnreadCount: 2,
	}

	chats := []*Chat{older, newer, unread}
	SortChats(chats)

	assert.Equal(t, "u3", chats[0].User.ID)
	assert.Equal(t, "u2", chats[1].User.ID)
	assert.Equal(t, "u1", chats[2].User.ID)
}
