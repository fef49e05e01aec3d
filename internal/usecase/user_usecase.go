package usecase

import (
	"context"
	"log"

	"modpanel/internal/domain/entity"
	"modpanel/internal/domain/repository"
	ws "modpanel/internal/infrastructure/websocket"
)

type UserUseCase struct {
	userRepo  repository.UserRepository
	wsManager *ws.Manager
}

func NewUserUseCase(userRepo repository.UserRepository, wsManager *ws.Manager) *UserUseCase {
	return &UserUseCase{
		userRepo:  userRepo,
		wsManager: wsManager,
	}
}

// GetProfile returns the caller's own record with live presence stamped on.
func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsOnline = uc.wsManager.IsOnline(user.ID)
	return user, nil
}

// ListAdministrators returns the administrators of the caller's domain, used
// by the tab UI to label and order admin tabs.
func (uc *UserUseCase) ListAdministrators(ctx context.Context, viewerID string) ([]*entity.User, error) {
	viewer, err := uc.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	admins, err := uc.userRepo.ListByDomain(ctx, viewer.DomainID, entity.RoleAdministrator)
	if err != nil {
		log.Printf("ListAdministrators Error: Failed to list admins for domain %s: %v", viewer.DomainID, err)
		return nil, err
	}

	for _, admin := range admins {
		admin.IsOnline = uc.wsManager.IsOnline(admin.ID)
	}
	return admins, nil
}
