package folderService

import (
	"context"
	"fmt"
	"time"

	"fileinbox-service/internal/apperr"
	"fileinbox-service/internal/model/fileInfo"
	"fileinbox-service/internal/model/folder"
	"fileinbox-service/internal/model/permission"
	"fileinbox-service/internal/model/workspace"
	"fileinbox-service/internal/naming"
	"fileinbox-service/internal/repository/folderRepo"
	"fileinbox-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FolderStore interface {
	Create(ctx context.Context, f *folder.Folder) error
	GetByID(ctx context.Context, id uuid.UUID) (*folder.Folder, error)
	Rename(ctx context.Context, id uuid.UUID, newName string) error
	Move(ctx context.Context, id uuid.UUID, newParentID *uuid.UUID, name string) error
	Subtree(ctx context.Context, rootID uuid.UUID) ([]*folder.Folder, error)
	ListChildren(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) ([]*folder.Folder, error)
	SiblingNames(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) ([]string, error)
	CommitCascade(ctx context.Context, cd folderRepo.Cascade) error
}

type FileStore interface {
	ListByFolders(ctx context.Context, folderIDs []uuid.UUID) ([]*fileInfo.File, error)
}

type WorkspaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*workspace.Workspace, error)
}

type ObjectStorage interface {
	DeleteFile(ctx context.Context, key string) error
}

type Authorizer interface {
	AuthorizeMutation(ctx context.Context, actor permission.Actor, f *folder.Folder, action permission.Action, objectCreator *string) error
}

// FolderService owns the hierarchy and the cascading mutations over it.
// Validation always runs before the first write, so a rejected operation
// leaves no partial state.
type FolderService struct {
	folders    FolderStore
	files      FileStore
	workspaces WorkspaceStore
	storage    ObjectStorage
	perms      Authorizer
}

func New(folders FolderStore, files FileStore, workspaces WorkspaceStore, storage ObjectStorage, perms Authorizer) *FolderService {
	return &FolderService{
		folders:    folders,
		files:      files,
		workspaces: workspaces,
		storage:    storage,
		perms:      perms,
	}
}

// depthOf counts ancestors by walking parent pointers, root = 1. The walk
// is bounded so corrupt data cannot loop forever.
func (s *FolderService) depthOf(ctx context.Context, f *folder.Folder) (int, error) {
	depth := 1
	current := f
	for current.ParentFolderID != nil {
		if depth > folder.MaxDepth {
			return 0, fmt.Errorf("ancestor chain of folder %s exceeds max depth", f.ID)
		}
		parent, err := s.folders.GetByID(ctx, *current.ParentFolderID)
		if err != nil {
			return 0, fmt.Errorf("failed to get parent folder: %w", err)
		}
		if parent == nil {
			return 0, fmt.Errorf("parent of folder %s is missing", current.ID)
		}
		current = parent
		depth++
	}
	return depth, nil
}

// isDescendant reports whether candidate sits under ancestorID, walking
// candidate's parents to the root.
func (s *FolderService) isDescendant(ctx context.Context, candidate *folder.Folder, ancestorID uuid.UUID) (bool, error) {
	current := candidate
	for i := 0; i <= folder.MaxDepth; i++ {
		if current.ID == ancestorID {
			return true, nil
		}
		if current.ParentFolderID == nil {
			return false, nil
		}
		parent, err := s.folders.GetByID(ctx, *current.ParentFolderID)
		if err != nil {
			return false, fmt.Errorf("failed to get parent folder: %w", err)
		}
		if parent == nil {
			return false, nil
		}
		current = parent
	}
	return false, fmt.Errorf("ancestor chain of folder %s exceeds max depth", candidate.ID)
}

// subtreeHeight computes the height of a subtree listing ordered parents
// before children.
func subtreeHeight(subtree []*folder.Folder) int {
	if len(subtree) == 0 {
		return 0
	}
	depths := map[uuid.UUID]int{subtree[0].ID: 1}
	height := 1
	for _, f := range subtree[1:] {
		d := depths[*f.ParentFolderID] + 1
		depths[f.ID] = d
		if d > height {
			height = d
		}
	}
	return height
}

func (s *FolderService) resolveName(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID, name string, excludeSelf string) (string, error) {
	taken, err := s.folders.SiblingNames(ctx, workspaceID, parentID)
	if err != nil {
		return "", fmt.Errorf("failed to list sibling names: %w", err)
	}
	if excludeSelf != "" {
		filtered := taken[:0]
		for _, t := range taken {
			if t != excludeSelf {
				filtered = append(filtered, t)
			}
		}
		taken = filtered
	}
	return naming.ResolveConflict(name, taken)
}

func (s *FolderService) Create(ctx context.Context, actor permission.Actor, workspaceID uuid.UUID, parentID *uuid.UUID, name string) (*folder.Folder, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, apperr.ErrNotFound)
	}

	if parentID == nil {
		// Root folders live outside any link's scope, owner only.
		if actor.UserID == nil || *actor.UserID != ws.OwnerID {
			return nil, apperr.ErrUnauthorized
		}
	} else {
		parent, err := s.folders.GetByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent folder: %w", err)
		}
		if parent == nil || parent.WorkspaceID != workspaceID {
			return nil, fmt.Errorf("parent folder %s: %w", *parentID, apperr.ErrNotFound)
		}
		if err := s.perms.AuthorizeMutation(ctx, actor, parent, permission.ActionCreate, nil); err != nil {
			return nil, err
		}
		parentDepth, err := s.depthOf(ctx, parent)
		if err != nil {
			return nil, err
		}
		if parentDepth+1 > folder.MaxDepth {
			return nil, fmt.Errorf("folder would sit at depth %d: %w", parentDepth+1, apperr.ErrDepthLimitExceeded)
		}
	}

	resolved, err := s.resolveName(ctx, workspaceID, parentID, name, "")
	if err != nil {
		return nil, err
	}

	f := &folder.Folder{
		ID:             uuid.New(),
		WorkspaceID:    workspaceID,
		ParentFolderID: parentID,
		Name:           resolved,
		CreatedAt:      time.Now(),
	}
	if actor.Email != "" {
		email := actor.Email
		f.CreatedByEmail = &email
	}
	if err := s.folders.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return f, nil
}

func (s *FolderService) Rename(ctx context.Context, actor permission.Actor, folderID uuid.UUID, newName string) (*folder.Folder, error) {
	f, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("folder %s: %w", folderID, apperr.ErrNotFound)
	}
	if err := s.perms.AuthorizeMutation(ctx, actor, f, permission.ActionRename, f.CreatedByEmail); err != nil {
		return nil, err
	}

	resolved, err := s.resolveName(ctx, f.WorkspaceID, f.ParentFolderID, newName, f.Name)
	if err != nil {
		return nil, err
	}
	if err := s.folders.Rename(ctx, folderID, resolved); err != nil {
		return nil, fmt.Errorf("failed to rename folder: %w", err)
	}
	f.Name = resolved
	return f, nil
}

// Move reparents a folder. Cycles are rejected by walking the ancestors of
// the destination; depth is validated on the hypothetical post-move tree.
// Moving to the current parent is a no-op.
func (s *FolderService) Move(ctx context.Context, actor permission.Actor, folderID uuid.UUID, newParentID *uuid.UUID) (*folder.Folder, error) {
	f, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("folder %s: %w", folderID, apperr.ErrNotFound)
	}

	if sameParent(f.ParentFolderID, newParentID) {
		return f, nil
	}

	if err := s.perms.AuthorizeMutation(ctx, actor, f, permission.ActionMove, f.CreatedByEmail); err != nil {
		return nil, err
	}

	destDepth := 0
	if newParentID != nil {
		if *newParentID == folderID {
			return nil, fmt.Errorf("folder %s cannot contain itself: %w", folderID, apperr.ErrCircularReference)
		}
		newParent, err := s.folders.GetByID(ctx, *newParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get destination folder: %w", err)
		}
		if newParent == nil || newParent.WorkspaceID != f.WorkspaceID {
			return nil, fmt.Errorf("destination folder %s: %w", *newParentID, apperr.ErrNotFound)
		}
		under, err := s.isDescendant(ctx, newParent, folderID)
		if err != nil {
			return nil, err
		}
		if under {
			return nil, fmt.Errorf("destination is inside folder %s: %w", folderID, apperr.ErrCircularReference)
		}
		destDepth, err = s.depthOf(ctx, newParent)
		if err != nil {
			return nil, err
		}
	}

	subtree, err := s.folders.Subtree(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate subtree: %w", err)
	}
	if destDepth+subtreeHeight(subtree) > folder.MaxDepth {
		return nil, fmt.Errorf("move would exceed depth %d: %w", folder.MaxDepth, apperr.ErrDepthLimitExceeded)
	}

	resolved, err := s.resolveName(ctx, f.WorkspaceID, newParentID, f.Name, "")
	if err != nil {
		return nil, err
	}
	if err := s.folders.Move(ctx, folderID, newParentID, resolved); err != nil {
		return nil, fmt.Errorf("failed to move folder: %w", err)
	}
	f.ParentFolderID = newParentID
	f.Name = resolved
	return f, nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// FailedObject identifies a storage object the cascade could not delete.
// Its database rows are kept so the caller can re-issue the delete.
type FailedObject struct {
	FileID      uuid.UUID `json:"file_id"`
	StoragePath string    `json:"storage_path"`
	Reason      string    `json:"reason"`
}

// DeleteReport is the per-item outcome of a cascading delete.
type DeleteReport struct {
	DeletedFolders int            `json:"deleted_folders"`
	DeletedFiles   int            `json:"deleted_files"`
	FreedBytes     int64          `json:"freed_bytes"`
	Failed         []FailedObject `json:"failed,omitempty"`
}

// Delete removes a folder and everything under it. Ordering is deliberate:
// blobs go first so a surviving row can only ever point at missing bytes,
// then file and folder rows fall in one transaction, links on the deleted
// folders are deactivated (never deleted) and the quota is released by what
// was actually freed. Storage failures keep the affected rows, including
// their links, and are reported per item for a retry.
func (s *FolderService) Delete(ctx context.Context, actor permission.Actor, folderID uuid.UUID) (*DeleteReport, error) {
	f, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("folder %s: %w", folderID, apperr.ErrNotFound)
	}
	if err := s.perms.AuthorizeMutation(ctx, actor, f, permission.ActionDelete, f.CreatedByEmail); err != nil {
		return nil, err
	}

	subtree, err := s.folders.Subtree(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate subtree: %w", err)
	}
	folderIDs := make([]uuid.UUID, 0, len(subtree))
	for _, sub := range subtree {
		folderIDs = append(folderIDs, sub.ID)
	}

	files, err := s.files.ListByFolders(ctx, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	report := &DeleteReport{}
	blocked := make(map[uuid.UUID]bool)
	var deletedFileIDs []uuid.UUID
	log := logger.GetLogger(ctx).With(
		zap.String("operation", "folder.delete"),
		zap.String("actor", actor.Email),
		zap.String("folder_id", folderID.String()),
	)

	for _, file := range files {
		if err := s.storage.DeleteFile(ctx, file.StoragePath); err != nil {
			log.Warn("storage delete failed", zap.String("path", file.StoragePath), zap.Error(err))
			report.Failed = append(report.Failed, FailedObject{
				FileID:      file.ID,
				StoragePath: file.StoragePath,
				Reason:      apperr.ErrStorageUnavailable.Error(),
			})
			if file.FolderID != nil {
				blocked[*file.FolderID] = true
			}
			continue
		}
		deletedFileIDs = append(deletedFileIDs, file.ID)
		report.FreedBytes += file.SizeBytes
	}
	report.DeletedFiles = len(deletedFileIDs)

	// A folder survives when its subtree still holds a file whose blob
	// could not be deleted; blockage propagates to every ancestor so the
	// FK cascade cannot take surviving rows with it.
	for i := len(subtree) - 1; i >= 0; i-- {
		sub := subtree[i]
		if blocked[sub.ID] && sub.ParentFolderID != nil {
			blocked[*sub.ParentFolderID] = true
		}
	}
	// Links are deactivated only on folders that actually go away; a folder
	// kept alive by a stuck blob keeps its link working.
	var deletableFolders, linkIDs []uuid.UUID
	for _, sub := range subtree {
		if blocked[sub.ID] {
			continue
		}
		deletableFolders = append(deletableFolders, sub.ID)
		if sub.LinkID != nil {
			linkIDs = append(linkIDs, *sub.LinkID)
		}
	}
	report.DeletedFolders = len(deletableFolders)

	cascade := folderRepo.Cascade{
		WorkspaceID: f.WorkspaceID,
		LinkIDs:     linkIDs,
		FileIDs:     deletedFileIDs,
		FolderIDs:   deletableFolders,
		FreedBytes:  report.FreedBytes,
	}
	if err := s.folders.CommitCascade(ctx, cascade); err != nil {
		log.Error("cascade commit failed", zap.Error(err))
		return nil, fmt.Errorf("failed to commit cascade: %w", err)
	}
	return report, nil
}

func (s *FolderService) Subtree(ctx context.Context, actor permission.Actor, folderID uuid.UUID) ([]*folder.Folder, error) {
	f, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("folder %s: %w", folderID, apperr.ErrNotFound)
	}
	if err := s.perms.AuthorizeMutation(ctx, actor, f, permission.ActionRead, f.CreatedByEmail); err != nil {
		return nil, err
	}
	return s.folders.Subtree(ctx, folderID)
}

func (s *FolderService) ListChildren(ctx context.Context, actor permission.Actor, workspaceID uuid.UUID, parentID *uuid.UUID) ([]*folder.Folder, error) {
	if parentID != nil {
		parent, err := s.folders.GetByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get folder: %w", err)
		}
		if parent == nil || parent.WorkspaceID != workspaceID {
			return nil, fmt.Errorf("folder %s: %w", *parentID, apperr.ErrNotFound)
		}
		if err := s.perms.AuthorizeMutation(ctx, actor, parent, permission.ActionRead, parent.CreatedByEmail); err != nil {
			return nil, err
		}
	} else {
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
	}
	return s.folders.ListChildren(ctx, workspaceID, parentID)
}
