package usecase

import (
	"context"
	"log"
	"time"

	"modpanel/internal/domain/entity"
	"modpanel/internal/domain/repository"
	"modpanel/internal/infrastructure/ratelimit"
	ws "modpanel/internal/infrastructure/websocket"
	"modpanel/pkg/errors"
)

// AttachmentStore removes stored attachment objects when their message is
// deleted.
type AttachmentStore interface {
	DeleteAttachment(ctx context.Context, fileURL string) error
}

// MessageUseCase is the write path of the message store. Every mutation is a
// short independent request: a row is only ever touched by its sender (edit,
// delete) or its recipient (mark read), so no cross-request locking exists.
type MessageUseCase struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	wsManager   *ws.Manager
	attachments AttachmentStore
	rateLimiter *ratelimit.RateLimiter
}

// NewMessageUseCase wires the write path. attachments may be nil when no
// object store is configured; deletes then only tombstone the row.
func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	wsManager *ws.Manager,
	attachments AttachmentStore,
) *MessageUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &MessageUseCase{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		wsManager:   wsManager,
		attachments: attachments,
		rateLimiter: rateLimiter,
	}
}

type SendMessageInput struct {
	ToUserID    string
	Type        string
	Body        string
	Attachments []entity.Attachment
	TaskID      string

	// FromUserID lets an administrator send under another administrator
	// identity (tab "view as"). Empty means the caller sends as themselves.
	FromUserID string
}

type MarkChatReadInput struct {
	FromUserID string
	Type       string

	// ToUserID is the identity whose unread messages are being read. Defaults
	// to the caller; administrators may name an administrator identity they
	// are acting as.
	ToUserID string
}

func validMessageType(t string) bool {
	return t == entity.MessageTypeDirect || t == entity.MessageTypeSupport
}

func (uc *MessageUseCase) SendMessage(ctx context.Context, actorID string, input SendMessageInput) (*entity.Message, error) {
	allowed, waitTime := uc.rateLimiter.Allow(actorID, "send_message")
	if !allowed {
		log.Printf("SendMessage Rate Limited: User %s must wait %v", actorID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	if !validMessageType(input.Type) {
		return nil, errors.Validation("Message type must be 'message' or 'support'", nil)
	}

	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		log.Printf("SendMessage Error: Actor %s not found: %v", actorID, err)
		return nil, err
	}

	sender := actor
	if input.FromUserID != "" && input.FromUserID != actorID {
		sender, err = uc.resolveActingIdentity(ctx, actor, input.FromUserID)
		if err != nil {
			return nil, err
		}
	}

	if sender.ID == input.ToUserID {
		return nil, errors.BadRequest("You cannot send a message to yourself", nil)
	}

	recipient, err := uc.userRepo.GetByID(ctx, input.ToUserID)
	if err != nil {
		log.Printf("SendMessage Error: Recipient %s not found: %v", input.ToUserID, err)
		return nil, errors.NotFound("Recipient", err)
	}
	if recipient.DomainID != actor.DomainID {
		log.Printf("SendMessage Error: User %s attempted cross-domain send to %s", actorID, input.ToUserID)
		return nil, errors.Forbidden("Recipient belongs to another domain", nil)
	}

	for _, att := range input.Attachments {
		if !entity.ValidAttachmentType(att.Type) {
			return nil, errors.Validation("Unknown attachment type: "+att.Type, nil)
		}
	}

	message := &entity.Message{
		DomainID:    actor.DomainID,
		FromUserID:  sender.ID,
		ToUserID:    recipient.ID,
		Type:        input.Type,
		Body:        input.Body,
		Attachments: input.Attachments,
		TaskID:      input.TaskID,
		IsRead:      false,
		CreatedAt:   time.Now(),
	}

	if !message.HasContent() {
		return nil, errors.Validation("Message needs a body or at least one attachment", nil)
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		log.Printf("SendMessage Error: Failed to persist message from %s to %s: %v", sender.ID, recipient.ID, err)
		return nil, err
	}

	uc.wsManager.BroadcastMessageSent(message.DomainID, message)

	return message, nil
}

func (uc *MessageUseCase) EditMessage(ctx context.Context, actorID, messageID, newBody string) (*entity.Message, error) {
	message, err := uc.loadOwnMessage(ctx, actorID, messageID)
	if err != nil {
		return nil, err
	}

	if newBody == "" && len(message.Attachments) == 0 {
		return nil, errors.Validation("Edited message needs a body or at least one attachment", nil)
	}

	message.Body = newBody
	message.IsEdited = true

	if err := uc.messageRepo.Update(ctx, message); err != nil {
		log.Printf("EditMessage Error: Failed to update message %s: %v", messageID, err)
		return nil, err
	}

	// Re-broadcast the full message; clients merge by id so the fresher
	// is_edited copy simply replaces the old one.
	uc.wsManager.BroadcastMessageSent(message.DomainID, message)

	return message, nil
}

// DeleteMessage tombstones a message: the row survives with is_deleted set and
// the body and attachments purged, so no deleted content lingers in snapshots.
func (uc *MessageUseCase) DeleteMessage(ctx context.Context, actorID, messageID string) error {
	message, err := uc.loadOwnMessage(ctx, actorID, messageID)
	if err != nil {
		return err
	}

	purged := message.Attachments
	message.IsDeleted = true
	message.Body = ""
	message.Attachments = nil

	if uc.attachments != nil {
		for _, att := range purged {
			if err := uc.attachments.DeleteAttachment(ctx, att.URL); err != nil {
				// Best effort; an orphaned object is preferable to a delete
				// that fails halfway.
				log.Printf("DeleteMessage Warning: Failed to remove attachment %s: %v", att.URL, err)
			}
		}
	}

	if err := uc.messageRepo.Update(ctx, message); err != nil {
		log.Printf("DeleteMessage Error: Failed to tombstone message %s: %v", messageID, err)
		return err
	}

	uc.wsManager.BroadcastMessageSent(message.DomainID, message)

	return nil
}

func (uc *MessageUseCase) ListChat(ctx context.Context, actorID, counterpartyID, msgType string) ([]*entity.Message, error) {
	if !validMessageType(msgType) {
		return nil, errors.Validation("Message type must be 'message' or 'support'", nil)
	}

	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	counterparty, err := uc.userRepo.GetByID(ctx, counterpartyID)
	if err != nil {
		return nil, errors.NotFound("Counterparty", err)
	}
	if counterparty.DomainID != actor.DomainID {
		return nil, errors.Forbidden("Chat belongs to another domain", nil)
	}

	return uc.messageRepo.ListChat(ctx, actor.DomainID, actorID, counterpartyID, msgType)
}

// MarkChatRead flips every unread message of one chat direction to read.
// Idempotent: repeated calls update zero rows and succeed, so racing calls
// from rapid chat switching degrade to no-ops.
func (uc *MessageUseCase) MarkChatRead(ctx context.Context, actorID string, input MarkChatReadInput) (int, error) {
	if !validMessageType(input.Type) {
		return 0, errors.Validation("Message type must be 'message' or 'support'", nil)
	}

	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return 0, err
	}

	target := actor
	if input.ToUserID != "" && input.ToUserID != actorID {
		target, err = uc.resolveActingIdentity(ctx, actor, input.ToUserID)
		if err != nil {
			return 0, err
		}
	}

	from, err := uc.userRepo.GetByID(ctx, input.FromUserID)
	if err != nil {
		return 0, errors.NotFound("Chat counterparty", err)
	}
	if from.DomainID != actor.DomainID {
		return 0, errors.Forbidden("Chat belongs to another domain", nil)
	}

	updated, err := uc.messageRepo.MarkRead(ctx, actor.DomainID, from.ID, target.ID, input.Type)
	if err != nil {
		log.Printf("MarkChatRead Error: from %s to %s: %v", from.ID, target.ID, err)
		return 0, err
	}

	return updated, nil
}

// resolveActingIdentity checks that actor may act under another identity:
// only administrators, only for administrator identities in their own domain.
func (uc *MessageUseCase) resolveActingIdentity(ctx context.Context, actor *entity.User, identityID string) (*entity.User, error) {
	if !actor.IsAdministrator() {
		return nil, errors.Forbidden("Only administrators can act under another identity", nil)
	}

	identity, err := uc.userRepo.GetByID(ctx, identityID)
	if err != nil {
		return nil, errors.NotFound("Acting identity", err)
	}
	if identity.DomainID != actor.DomainID || !identity.IsAdministrator() {
		return nil, errors.Forbidden("Acting identity must be an administrator in your domain", nil)
	}

	return identity, nil
}

func (uc *MessageUseCase) loadOwnMessage(ctx context.Context, actorID, messageID string) (*entity.Message, error) {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if message.DomainID != actor.DomainID {
		return nil, errors.Forbidden("Message belongs to another domain", nil)
	}
	if message.FromUserID != actorID {
		return nil, errors.Forbidden("Only the sender can modify a message", nil)
	}

	return message, nil
}
