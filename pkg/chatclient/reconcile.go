package chatclient

import (
	"strings"

	"modpanel/internal/domain/entity"
)

// UnreadCount counts the messages addressed to the viewer that are still
// unread. Tombstoned messages and the viewer's own pending sends never count.
func UnreadCount(viewerID string, messages []*entity.Message) int {
	count := 0
	for _, msg := range messages {
		if msg.ToUserID == viewerID && !msg.IsRead.Bool() && !msg.IsDeleted && !IsTempID(msg.ID) {
			count++
		}
	}
	return count
}

// DetectNewUnread diffs two snapshots of a chat and returns the ids of
// messages that became unread-for-the-viewer between them: newly arrived
// unread messages, not ones already known. Pure function of its inputs.
func DetectNewUnread(viewerID string, before, after []*entity.Message) []string {
	known := make(map[string]bool, len(before))
	for _, msg := range before {
		known[msg.ID] = true
	}

	var ids []string
	for _, msg := range after {
		if known[msg.ID] {
			continue
		}
		if msg.ToUserID == viewerID && !msg.IsRead.Bool() && !msg.IsDeleted {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

// IsTempID reports whether a message id is a client-side placeholder awaiting
// server confirmation.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}
