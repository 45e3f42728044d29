package fileInfo

import (
	"time"

	"github.com/google/uuid"
)

type File struct {
	ID            uuid.UUID  `json:"id"`
	WorkspaceID   uuid.UUID  `json:"workspace_id"`
	FolderID      *uuid.UUID `json:"folder_id,omitempty"`
	Name          string     `json:"name"`
	StoragePath   string     `json:"storage_path"`
	SizeBytes     int64      `json:"size_bytes"`
	ContentType   string     `json:"content_type"`
	UploaderEmail *string    `json:"uploader_email,omitempty"`
	UploadedAt    time.Time  `json:"uploaded_at"`
}

// FolderCounts is the per-folder aggregate surfaced to the UI.
type FolderCounts struct {
	FileCount     int `json:"file_count"`
	FolderCount   int `json:"folder_count"`
	UploaderCount int `json:"uploader_count"`
}
