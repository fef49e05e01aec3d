package repository

import (
	"context"

	"modpanel/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error

	// ListByDomain returns every account in the tenant, optionally filtered by
	// role ("" for all).
	ListByDomain(ctx context.Context, domainID, role string) ([]*entity.User, error)
}
