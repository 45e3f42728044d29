package permission

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	// RoleOwner is never stored, it is derived from link ownership.
	RoleOwner    Role = "owner"
	RoleEditor   Role = "editor"
	RoleUploader Role = "uploader"
	// RoleAnonymous is an unauthenticated caller with only a claimed email.
	RoleAnonymous Role = "anonymous"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRename Action = "rename"
	ActionMove   Action = "move"
	ActionDelete Action = "delete"
	ActionUpload Action = "upload"
	ActionRead   Action = "read"
)

// Permission is one (link, email) allow-list entry. A set removed_at blocks
// future uploads from the email without touching files already attributed
// to it.
type Permission struct {
	LinkID    uuid.UUID  `json:"link_id"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	RemovedAt *time.Time `json:"removed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (p *Permission) Removed() bool {
	return p.RemovedAt != nil
}

// Actor identifies the caller of a mutating operation. UserID is nil for
// anonymous uploaders, Email is the verified address for authenticated users
// and the claimed address otherwise.
type Actor struct {
	UserID *uuid.UUID
	Email  string
}

func (a Actor) Anonymous() bool {
	return a.UserID == nil
}
