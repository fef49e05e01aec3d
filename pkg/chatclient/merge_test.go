package chatclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modpanel/internal/domain/entity"
)

func msgAt(id string, at time.Time) *entity.Message {
	return &entity.Message{ID: id, FromUserID: "a", ToUserID: "b", Body: id, CreatedAt: at}
}

func TestMergeKeepsLocalOnlyMessages(t *testing.T) {
	base := time.Now()

	existing := []*entity.Message{msgAt("m1", base), msgAt("m2", base.Add(time.Minute))}
	incoming := []*entity.Message{msgAt("m1", base)}

	merged := MergeMessagesByID(existing, incoming)
	require.Len(t, merged, 2)
	assert.Equal(t, "m1", merged[0].ID)
	assert.Equal(t, "m2", merged[1].ID)
}

func TestMergeIncomingWinsOnConflict(t *testing.T) {
	base := time.Now()

	stale := msgAt("m1", base)
	stale.Body = "draft"
	fresh := msgAt("m1", base)
	fresh.Body = "edited"
	fresh.IsEdited = true

	merged := MergeMessagesByID([]*entity.Message{stale}, []*entity.Message{fresh})
	require.Len(t, merged, 1)
	assert.Equal(t, "edited", merged[0].Body)
	assert.True(t, merged[0].IsEdited)
}

func TestMergeOrdersByCreatedAt(t *testing.T) {
	base := time.Now()

	existing := []*entity.Message{msgAt("m3", base.Add(2 * time.Minute))}
	incoming := []*entity.Message{msgAt("m1", base), msgAt("m2", base.Add(time.Minute))}

	merged := MergeMessagesByID(existing, incoming)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})
}

func TestMergeNeverDropsEitherSide(t *testing.T) {
	base := time.Now()

	var existing, incoming []*entity.Message
	for i := 0; i < 5; i++ {
		existing = append(existing, msgAt(string(rune('a'+i)), base.Add(time.Duration(i)*time.Second)))
	}
	for i := 3; i < 8; i++ {
		incoming = append(incoming, msgAt(string(rune('a'+i)), base.Add(time.Duration(i)*time.Second)))
	}

	merged := MergeMessagesByID(existing, incoming)
	assert.Len(t, merged, 8)
}

func TestDetectNewUnread(t *testing.T) {
	base := time.Now()

	before := []*entity.Message{msgAt("m1", base)}

	arrived := &entity.Message{ID: "m2", FromUserID: "a", ToUserID: "me", CreatedAt: base.Add(time.Minute)}
	alreadyRead := &entity.Message{ID: "m3", FromUserID: "a", ToUserID: "me", IsRead: true, CreatedAt: base.Add(2 * time.Minute)}
	ownSend := &entity.Message{ID: "m4", FromUserID: "me", ToUserID: "a", CreatedAt: base.Add(3 * time.Minute)}
	after := append(before, arrived, alreadyRead, ownSend)

	ids := DetectNewUnread("me", before, after)
	assert.Equal(t, []string{"m2"}, ids)
}

func TestUnreadCountIgnoresTombstonesAndPending(t *testing.T) {
	deleted := &entity.Message{ID: "m1", ToUserID: "me", IsDeleted: true}
	pending := &entity.Message{ID: tempIDPrefix + "x", ToUserID: "me"}
	unread := &entity.Message{ID: "m2", ToUserID: "me"}
	read := &entity.Message{ID: "m3", ToUserID: "me", IsRead: true}
	outbound := &entity.Message{ID: "m4", FromUserID: "me", ToUserID: "a"}

	count := UnreadCount("me", []*entity.Message{deleted, pending, unread, read, outbound})
	assert.Equal(t, 1, count)
}
