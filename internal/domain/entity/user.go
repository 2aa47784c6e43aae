package entity

import (
	"time"

	"github.com/google/uuid"
)

// Role of a user within the application.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is a principal stored in the "users" table. Email is unique across all
// accounts, active or not: a deactivated account still blocks registration with
// the same address.
type User struct {
	ID                 uuid.UUID  `db:"id"`
	Email              string     `db:"email"`
	DisplayName        string     `db:"display_name"`
	PasswordHash       string     `db:"password_hash"`
	Role               Role       `db:"role"`
	Active             bool       `db:"is_active"`
	DefaultWorkspaceID *uuid.UUID `db:"default_workspace_id"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// UserProfile is the public projection of a User returned by the API.
type UserProfile struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        Role      `json:"role"`
}

// ToProfile strips credential and account-state fields.
func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}
