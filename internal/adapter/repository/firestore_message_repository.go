package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"modpanel/internal/domain/entity"
	"modpanel/internal/domain/repository"
	"modpanel/pkg/errors"
	"modpanel/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages() *firestore.CollectionRef {
	return r.client.Collection("messages")
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.messages().Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.messages().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreMessageRepository) Update(ctx context.Context, message *entity.Message) error {
	_, err := r.messages().Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}
	return nil
}

func (r *firestoreMessageRepository) ListChat(ctx context.Context, domainID, userA, userB, msgType string) ([]*entity.Message, error) {
	// Firestore has no OR queries across field pairs, so the two directions
	// are fetched separately and merged.
	sent, err := r.listDirected(ctx, domainID, userA, userB, msgType)
	if err != nil {
		return nil, err
	}
	received, err := r.listDirected(ctx, domainID, userB, userA, msgType)
	if err != nil {
		return nil, err
	}

	messages := append(sent, received...)
	sortByCreatedAt(messages)
	return messages, nil
}

func (r *firestoreMessageRepository) listDirected(ctx context.Context, domainID, fromID, toID, msgType string) ([]*entity.Message, error) {
	query := r.messages().
		Where("domainId", "==", domainID).
		Where("fromUserId", "==", fromID).
		Where("toUserId", "==", toID).
		Where("type", "==", msgType)

	return r.collect(ctx, query.Documents(ctx))
}

func (r *firestoreMessageRepository) ListByParticipant(ctx context.Context, domainID, userID, msgType string) ([]*entity.Message, error) {
	base := r.messages().
		Where("domainId", "==", domainID).
		Where("type", "==", msgType)

	sent, err := r.collect(ctx, base.Where("fromUserId", "==", userID).Documents(ctx))
	if err != nil {
		return nil, err
	}
	received, err := r.collect(ctx, base.Where("toUserId", "==", userID).Documents(ctx))
	if err != nil {
		return nil, err
	}

	messages := append(sent, received...)
	sortByCreatedAt(messages)
	return messages, nil
}

func (r *firestoreMessageRepository) ListByDomain(ctx context.Context, domainID, msgType string) ([]*entity.Message, error) {
	query := r.messages().
		Where("domainId", "==", domainID).
		Where("type", "==", msgType).
		OrderBy("createdAt", firestore.Asc)

	return r.collect(ctx, query.Documents(ctx))
}

func (r *firestoreMessageRepository) MarkRead(ctx context.Context, domainID, fromUserID, toUserID, msgType string) (int, error) {
	query := r.messages().
		Where("domainId", "==", domainID).
		Where("fromUserId", "==", fromUserID).
		Where("toUserId", "==", toUserID).
		Where("type", "==", msgType).
		Where("isRead", "==", false)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to query unread messages", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	now := time.Now()
	batch := r.client.Batch()
	for _, doc := range docs {
		batch.Update(doc.Ref, []firestore.Update{
			{Path: "isRead", Value: true},
			{Path: "readAt", Value: now},
		})
	}

	if _, err := batch.Commit(ctx); err != nil {
		return 0, errors.Internal("Failed to mark messages read", err)
	}

	return len(docs), nil
}

func (r *firestoreMessageRepository) collect(ctx context.Context, iter *firestore.DocumentIterator) ([]*entity.Message, error) {
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages: %v", err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message data for doc %s: %v", doc.Ref.ID, err)
			continue
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

func sortByCreatedAt(messages []*entity.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
