package entity

import (
	"time"
)

// Roles a platform account can hold.
const (
	RoleAdministrator = "administrator"
	RoleModerator     = "moderator"
)

type User struct {
	ID       string `json:"id" firestore:"id"`
	DomainID string `json:"domain_id" firestore:"domainId"`
	Email    string `json:"email" firestore:"email"`
	Name     string `json:"name" firestore:"name"`
	Role     string `json:"role" firestore:"role"`

	// AdministratorID is the administrator a moderator is currently assigned
	// to. Empty for administrators and for moderators awaiting assignment.
	AdministratorID string `json:"administrator_id,omitempty" firestore:"administratorId,omitempty"`

	AvatarURL string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`

	// IsOnline is live presence, stamped from the websocket manager on every
	// inbox fetch. Never persisted.
	IsOnline bool `json:"is_online" firestore:"-"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *User) IsAdministrator() bool {
	return u.Role == RoleAdministrator
}
