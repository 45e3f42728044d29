package link

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	// TypePublic accepts uploads from any email address.
	TypePublic Type = "public"
	// TypeDedicated accepts uploads only from emails on the allow-list.
	TypeDedicated Type = "dedicated"
)

func (t Type) Valid() bool {
	return t == TypePublic || t == TypeDedicated
}

// Link is the shareable identity of a folder. Rows are deactivated, never
// deleted, so a link can be re-bound later with its permission list intact.
type Link struct {
	ID        uuid.UUID `json:"id"`
	FolderID  uuid.UUID `json:"folder_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Type      Type      `json:"type"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
