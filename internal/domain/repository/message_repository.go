package repository

import (
	"context"

	"modpanel/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	Update(ctx context.Context, message *entity.Message) error

	// ListChat returns every message between the pair in the given domain and
	// inbox, ascending by creation time. No cursor; callers refetch in full.
	ListChat(ctx context.Context, domainID, userA, userB, msgType string) ([]*entity.Message, error)

	// ListByParticipant returns every message in the domain and inbox that the
	// user sent or received, ascending by creation time.
	ListByParticipant(ctx context.Context, domainID, userID, msgType string) ([]*entity.Message, error)

	// ListByDomain returns all messages of one inbox in the domain, ascending
	// by creation time. Feeds the administrator tab partitioning.
	ListByDomain(ctx context.Context, domainID, msgType string) ([]*entity.Message, error)

	// MarkRead flips every unread message matching (domain, from, to, type) to
	// read and returns how many rows changed. Zero on repeat calls.
	MarkRead(ctx context.Context, domainID, fromUserID, toUserID, msgType string) (int, error)
}
