package fileService

import (
	"context"
	"fmt"
	"io"
	"time"

	"fileinbox-service/internal/apperr"
	"fileinbox-service/internal/model/fileInfo"
	"fileinbox-service/internal/model/folder"
	"fileinbox-service/internal/model/link"
	"fileinbox-service/internal/model/permission"
	"fileinbox-service/internal/model/workspace"
	"fileinbox-service/internal/naming"
	"fileinbox-service/internal/service/quotaService"
	"fileinbox-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FileStore interface {
	Create(ctx context.Context, f *fileInfo.File) error
	GetByID(ctx context.Context, id uuid.UUID) (*fileInfo.File, error)
	Rename(ctx context.Context, id uuid.UUID, newName string) error
	Move(ctx context.Context, id uuid.UUID, folderID *uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByFolder(ctx context.Context, workspaceID uuid.UUID, folderID *uuid.UUID) ([]*fileInfo.File, error)
	SiblingNames(ctx context.Context, workspaceID uuid.UUID, folderID *uuid.UUID) ([]string, error)
	FilesByEmail(ctx context.Context, workspaceID uuid.UUID, email string, folderID *uuid.UUID) ([]*fileInfo.File, error)
	UniqueUploaders(ctx context.Context, folderID uuid.UUID) ([]string, error)
	FolderCounts(ctx context.Context, workspaceID uuid.UUID) (map[uuid.UUID]fileInfo.FolderCounts, error)
}

type FolderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*folder.Folder, error)
}

type WorkspaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*workspace.Workspace, error)
}

type ObjectStorage interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DeleteFile(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Quota interface {
	Check(ctx context.Context, workspaceID uuid.UUID, incomingBytes int64) (*quotaService.Decision, error)
	Reserve(ctx context.Context, workspaceID uuid.UUID, bytes int64) error
	Release(ctx context.Context, workspaceID uuid.UUID, bytes int64) error
}

type Authorizer interface {
	GoverningLink(ctx context.Context, f *folder.Folder) (*link.Link, error)
	AuthorizeMutation(ctx context.Context, actor permission.Actor, f *folder.Folder, action permission.Action, objectCreator *string) error
	AuthorizeUpload(ctx context.Context, actor permission.Actor, l *link.Link) error
	EnsureUploader(ctx context.Context, linkID uuid.UUID, email string) error
}

// FileService runs the upload pipeline and the file-level mutations.
// Ordering on upload is fixed: authorize, check quota, reserve, write the
// blob, write the row. Each later failure compensates the earlier steps, so
// a failed upload never leaks bytes from the quota or objects in storage.
type FileService struct {
	files        FileStore
	folders      FolderStore
	workspaces   WorkspaceStore
	storage      ObjectStorage
	quota        Quota
	perms        Authorizer
	signedURLTTL time.Duration
}

func New(files FileStore, folders FolderStore, workspaces WorkspaceStore, storage ObjectStorage, quota Quota, perms Authorizer, signedURLTTL time.Duration) *FileService {
	return &FileService{
		files:        files,
		folders:      folders,
		workspaces:   workspaces,
		storage:      storage,
		quota:        quota,
		perms:        perms,
		signedURLTTL: signedURLTTL,
	}
}

type UploadInput struct {
	FolderID    uuid.UUID
	Name        string
	ContentType string
	SizeBytes   int64
	Reader      io.Reader
}

// UploadResult carries the stored file plus the advisory usage warnings the
// client surfaces to the workspace owner.
type UploadResult struct {
	File      *fileInfo.File
	Warning80 bool
	Warning90 bool
	Usage     workspace.Usage
}

func (s *FileService) requireWorkspaceOwner(ctx context.Context, actor permission.Actor, workspaceID uuid.UUID) (*workspace.Workspace, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, apperr.ErrNotFound)
	}
	if actor.UserID == nil || *actor.UserID != ws.OwnerID {
		return nil, apperr.ErrUnauthorized
	}
	return ws, nil
}

// requireFolder authorizes action against the file's folder; a file outside
// any folder belongs to the workspace owner alone.
func (s *FileService) requireFolder(ctx context.Context, actor permission.Actor, f *fileInfo.File, action permission.Action) (*folder.Folder, error) {
	if f.FolderID == nil {
		if _, err := s.requireWorkspaceOwner(ctx, actor, f.WorkspaceID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	parent, err := s.folders.GetByID(ctx, *f.FolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if parent == nil {
		return nil, fmt.Errorf("folder %s: %w", *f.FolderID, apperr.ErrNotFound)
	}
	if err := s.perms.AuthorizeMutation(ctx, actor, parent, action, f.UploaderEmail); err != nil {
		return nil, err
	}
	return parent, nil
}

// Upload stores a file into the folder, going through the folder's
// governing link when there is one. A first upload through a public link
// auto-appends the claimed email to the link's allow-list as an uploader.
func (s *FileService) Upload(ctx context.Context, actor permission.Actor, in UploadInput) (*UploadResult, error) {
	if in.SizeBytes < 0 {
		return nil, fmt.Errorf("negative file size %d", in.SizeBytes)
	}
	target, err := s.folders.GetByID(ctx, in.FolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if target == nil {
		return nil, fmt.Errorf("folder %s: %w", in.FolderID, apperr.ErrNotFound)
	}

	l, err := s.perms.GoverningLink(ctx, target)
	if err != nil {
		return nil, err
	}
	if l == nil {
		if _, err := s.requireWorkspaceOwner(ctx, actor, target.WorkspaceID); err != nil {
			return nil, err
		}
	} else if err := s.perms.AuthorizeUpload(ctx, actor, l); err != nil {
		return nil, err
	}

	decision, err := s.quota.Check(ctx, target.WorkspaceID, in.SizeBytes)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%d bytes do not fit the workspace limit: %w", in.SizeBytes, apperr.ErrQuotaExceeded)
	}

	folderID := target.ID
	taken, err := s.files.SiblingNames(ctx, target.WorkspaceID, &folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sibling names: %w", err)
	}
	resolved, err := naming.ResolveConflict(in.Name, taken)
	if err != nil {
		return nil, err
	}

	if err := s.quota.Reserve(ctx, target.WorkspaceID, in.SizeBytes); err != nil {
		return nil, err
	}

	f := &fileInfo.File{
		ID:          uuid.New(),
		WorkspaceID: target.WorkspaceID,
		FolderID:    &folderID,
		Name:        resolved,
		StoragePath: fmt.Sprintf("%s/%s", target.WorkspaceID, uuid.New()),
		SizeBytes:   in.SizeBytes,
		ContentType: in.ContentType,
		UploadedAt:  time.Now(),
	}
	if actor.Email != "" {
		email := actor.Email
		f.UploaderEmail = &email
	}

	log := logger.GetLogger(ctx).With(
		zap.String("operation", "file.upload"),
		zap.String("actor", actor.Email),
		zap.String("file_id", f.ID.String()),
	)

	if err := s.storage.UploadFile(ctx, f.StoragePath, in.Reader, in.SizeBytes, in.ContentType); err != nil {
		log.Error("storage write failed", zap.Error(err))
		if relErr := s.quota.Release(ctx, target.WorkspaceID, in.SizeBytes); relErr != nil {
			log.Error("failed to release reservation", zap.Error(relErr))
		}
		return nil, fmt.Errorf("failed to store object: %w", apperr.ErrStorageUnavailable)
	}

	if err := s.files.Create(ctx, f); err != nil {
		log.Error("metadata write failed", zap.Error(err))
		if delErr := s.storage.DeleteFile(ctx, f.StoragePath); delErr != nil {
			log.Error("failed to remove orphan object", zap.Error(delErr))
		}
		if relErr := s.quota.Release(ctx, target.WorkspaceID, in.SizeBytes); relErr != nil {
			log.Error("failed to release reservation", zap.Error(relErr))
		}
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if l != nil && l.Type == link.TypePublic && actor.Email != "" &&
		(actor.UserID == nil || *actor.UserID != l.OwnerID) {
		if err := s.perms.EnsureUploader(ctx, l.ID, actor.Email); err != nil {
			log.Warn("failed to append uploader", zap.Error(err))
		}
	}

	return &UploadResult{
		File:      f,
		Warning80: decision.Warning80,
		Warning90: decision.Warning90,
		Usage:     decision.Usage,
	}, nil
}

func (s *FileService) Rename(ctx context.Context, actor permission.Actor, fileID uuid.UUID, newName string) (*fileInfo.File, error) {
	f, err := s.getFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireFolder(ctx, actor, f, permission.ActionRename); err != nil {
		return nil, err
	}

	taken, err := s.files.SiblingNames(ctx, f.WorkspaceID, f.FolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sibling names: %w", err)
	}
	filtered := taken[:0]
	for _, t := range taken {
		if t != f.Name {
			filtered = append(filtered, t)
		}
	}
	resolved, err := naming.ResolveConflict(newName, filtered)
	if err != nil {
		return nil, err
	}
	if err := s.files.Rename(ctx, fileID, resolved); err != nil {
		return nil, fmt.Errorf("failed to rename file: %w", err)
	}
	f.Name = resolved
	return f, nil
}

// Move reparents a file. The byte count and the uploader attribution travel
// with it unchanged; moving to the current folder is a no-op.
func (s *FileService) Move(ctx context.Context, actor permission.Actor, fileID uuid.UUID, newFolderID *uuid.UUID) (*fileInfo.File, error) {
	f, err := s.getFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if sameFolder(f.FolderID, newFolderID) {
		return f, nil
	}
	if _, err := s.requireFolder(ctx, actor, f, permission.ActionMove); err != nil {
		return nil, err
	}

	if newFolderID != nil {
		dest, err := s.folders.GetByID(ctx, *newFolderID)
		if err != nil {
			return nil, fmt.Errorf("failed to get destination folder: %w", err)
		}
		if dest == nil || dest.WorkspaceID != f.WorkspaceID {
			return nil, fmt.Errorf("destination folder %s: %w", *newFolderID, apperr.ErrNotFound)
		}
		if err := s.perms.AuthorizeMutation(ctx, actor, dest, permission.ActionCreate, nil); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.requireWorkspaceOwner(ctx, actor, f.WorkspaceID); err != nil {
			return nil, err
		}
	}

	taken, err := s.files.SiblingNames(ctx, f.WorkspaceID, newFolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sibling names: %w", err)
	}
	resolved, err := naming.ResolveConflict(f.Name, taken)
	if err != nil {
		return nil, err
	}
	if err := s.files.Move(ctx, fileID, newFolderID, resolved); err != nil {
		return nil, fmt.Errorf("failed to move file: %w", err)
	}
	f.FolderID = newFolderID
	f.Name = resolved
	return f, nil
}

func sameFolder(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Delete removes the blob first and only then the row, then returns the
// bytes to the workspace. A storage failure keeps the row so the delete can
// be retried.
func (s *FileService) Delete(ctx context.Context, actor permission.Actor, fileID uuid.UUID) error {
	f, err := s.getFile(ctx, fileID)
	if err != nil {
		return err
	}
	if _, err := s.requireFolder(ctx, actor, f, permission.ActionDelete); err != nil {
		return err
	}

	if err := s.storage.DeleteFile(ctx, f.StoragePath); err != nil {
		logger.GetLogger(ctx).Error("storage delete failed",
			zap.String("path", f.StoragePath), zap.Error(err))
		return fmt.Errorf("failed to delete object: %w", apperr.ErrStorageUnavailable)
	}
	if err := s.files.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return s.quota.Release(ctx, f.WorkspaceID, f.SizeBytes)
}

func (s *FileService) SignedDownloadURL(ctx context.Context, actor permission.Actor, fileID uuid.UUID) (string, error) {
	f, err := s.getFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	if _, err := s.requireFolder(ctx, actor, f, permission.ActionRead); err != nil {
		return "", err
	}
	u, err := s.storage.SignedURL(ctx, f.StoragePath, s.signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign url: %w", apperr.ErrStorageUnavailable)
	}
	return u, nil
}

func (s *FileService) ListFolder(ctx context.Context, actor permission.Actor, workspaceID uuid.UUID, folderID *uuid.UUID) ([]*fileInfo.File, error) {
	if folderID != nil {
		parent, err := s.folders.GetByID(ctx, *folderID)
		if err != nil {
			return nil, fmt.Errorf("failed to get folder: %w", err)
		}
		if parent == nil || parent.WorkspaceID != workspaceID {
			return nil, fmt.Errorf("folder %s: %w", *folderID, apperr.ErrNotFound)
		}
		if err := s.perms.AuthorizeMutation(ctx, actor, parent, permission.ActionRead, parent.CreatedByEmail); err != nil {
			return nil, err
		}
	} else if _, err := s.requireWorkspaceOwner(ctx, actor, workspaceID); err != nil {
		return nil, err
	}
	return s.files.ListByFolder(ctx, workspaceID, folderID)
}

// FilesByEmail is the owner's attribution view: everything a given email
// uploaded, workspace-wide or per folder. Removal from an allow-list never
// unlists the files here.
func (s *FileService) FilesByEmail(ctx context.Context, actor permission.Actor, workspaceID uuid.UUID, email string, folderID *uuid.UUID) ([]*fileInfo.File, error) {
	if _, err := s.requireWorkspaceOwner(ctx, actor, workspaceID); err != nil {
		return nil, err
	}
	return s.files.FilesByEmail(ctx, workspaceID, email, folderID)
}

func (s *FileService) UniqueUploaders(ctx context.Context, actor permission.Actor, folderID uuid.UUID) ([]string, error) {
	f, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("folder %s: %w", folderID, apperr.ErrNotFound)
	}
	if _, err := s.requireWorkspaceOwner(ctx, actor, f.WorkspaceID); err != nil {
		return nil, err
	}
	return s.files.UniqueUploaders(ctx, folderID)
}

func (s *FileService) FolderCounts(ctx context.Context, actor permission.Actor, workspaceID uuid.UUID) (map[uuid.UUID]fileInfo.FolderCounts, error) {
	if _, err := s.requireWorkspaceOwner(ctx, actor, workspaceID); err != nil {
		return nil, err
	}
	return s.files.FolderCounts(ctx, workspaceID)
}

func (s *FileService) getFile(ctx context.Context, fileID uuid.UUID) (*fileInfo.File, error) {
	f, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("file %s: %w", fileID, apperr.ErrNotFound)
	}
	return f, nil
}
