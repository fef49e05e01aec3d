package chatclient

import (
	"sort"

	"modpanel/internal/domain/entity"
)

// MergeMessagesByID reconciles a locally held message list with an incoming
// one. The result is the union keyed by message id: when both sides carry the
// same id the incoming copy wins, and nothing held only locally is dropped.
// Output is ordered by created_at ascending.
func MergeMessagesByID(existing, incoming []*entity.Message) []*entity.Message {
	merged := make([]*entity.Message, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))

	for _, msg := range existing {
		index[msg.ID] = len(merged)
		merged = append(merged, msg)
	}

	for _, msg := range incoming {
		if at, ok := index[msg.ID]; ok {
			merged[at] = msg
			continue
		}
		index[msg.ID] = len(merged)
		merged = append(merged, msg)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	return merged
}
