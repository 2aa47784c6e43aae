package entity

import (
	"time"

	"github.com/google/uuid"
)

// Workspace groups a user's records. Every registered user owns a default
// workspace created alongside the account.
type Workspace struct {
	ID        uuid.UUID `db:"id"`
	OwnerID   uuid.UUID `db:"owner_id"`
	CreatedAt time.Time `db:"created_at"`
}
