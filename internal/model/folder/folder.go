package folder

import (
	"time"

	"github.com/google/uuid"
)

// MaxDepth bounds the folder tree. A root folder has depth 1.
const MaxDepth = 20

type Folder struct {
	ID             uuid.UUID  `json:"id"`
	WorkspaceID    uuid.UUID  `json:"workspace_id"`
	ParentFolderID *uuid.UUID `json:"parent_folder_id,omitempty"`
	Name           string     `json:"name"`
	LinkID         *uuid.UUID `json:"link_id,omitempty"`
	CreatedByEmail *string    `json:"created_by_email,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsRoot reports whether the folder sits at the top of the workspace forest.
func (f *Folder) IsRoot() bool {
	return f.ParentFolderID == nil
}

// IsShared reports whether the folder is bound to a link.
func (f *Folder) IsShared() bool {
	return f.LinkID != nil
}
