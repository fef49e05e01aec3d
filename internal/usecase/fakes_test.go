package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"modpanel/internal/domain/entity"
	"modpanel/pkg/errors"
)

// In-memory repositories backing the use case tests.

type memMessageRepo struct {
	messages []*entity.Message
}

func (r *memMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, message)
	return nil
}

func (r *memMessageRepo) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	for _, msg := range r.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *memMessageRepo) Update(ctx context.Context, message *entity.Message) error {
	for i, msg := range r.messages {
		if msg.ID == message.ID {
			r.messages[i] = message
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *memMessageRepo) ListChat(ctx context.Context, domainID, userA, userB, msgType string) ([]*entity.Message, error) {
	var out []*entity.Message
	for _, msg := range r.messages {
		if msg.DomainID != domainID || msg.Type != msgType {
			continue
		}
		if (msg.FromUserID == userA && msg.ToUserID == userB) || (msg.FromUserID == userB && msg.ToUserID == userA) {
			out = append(out, msg)
		}
	}
	sortAscending(out)
	return out, nil
}

func (r *memMessageRepo) ListByParticipant(ctx context.Context, domainID, userID, msgType string) ([]*entity.Message, error) {
	var out []*entity.Message
	for _, msg := range r.messages {
		if msg.DomainID != domainID || msg.Type != msgType {
			continue
		}
		if msg.FromUserID == userID || msg.ToUserID == userID {
			out = append(out, msg)
		}
	}
	sortAscending(out)
	return out, nil
}

func (r *memMessageRepo) ListByDomain(ctx context.Context, domainID, msgType string) ([]*entity.Message, error) {
	var out []*entity.Message
	for _, msg := range r.messages {
		if msg.DomainID == domainID && msg.Type == msgType {
			out = append(out, msg)
		}
	}
	sortAscending(out)
	return out, nil
}

func (r *memMessageRepo) MarkRead(ctx context.Context, domainID, fromUserID, toUserID, msgType string) (int, error) {
	now := time.Now()
	updated := 0
	for _, msg := range r.messages {
		if msg.DomainID != domainID || msg.Type != msgType {
			continue
		}
		if msg.FromUserID == fromUserID && msg.ToUserID == toUserID && !msg.IsRead.Bool() {
			msg.IsRead = true
			msg.ReadAt = &now
			updated++
		}
	}
	return updated, nil
}

func sortAscending(messages []*entity.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}

type memUserRepo struct {
	users map[string]*entity.User
}

func newMemUserRepo(users ...*entity.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) ListByDomain(ctx context.Context, domainID, role string) ([]*entity.User, error) {
	var out []*entity.User
	for _, user := range r.users {
		if user.DomainID != domainID {
			continue
		}
		if role != "" && user.Role != role {
			continue
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
