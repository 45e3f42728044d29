package linkService

import (
	"context"
	"fmt"
	"time"

	"fileinbox-service/internal/apperr"
	"fileinbox-service/internal/model/folder"
	"fileinbox-service/internal/model/link"
	"fileinbox-service/internal/model/permission"
	"fileinbox-service/internal/model/workspace"

	"github.com/google/uuid"
)

type FolderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*folder.Folder, error)
	SetLink(ctx context.Context, folderID uuid.UUID, linkID *uuid.UUID) error
}

type LinkStore interface {
	Create(ctx context.Context, l *link.Link) error
	GetByID(ctx context.Context, id uuid.UUID) (*link.Link, error)
	GetByFolder(ctx context.Context, folderID uuid.UUID) (*link.Link, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Rebind(ctx context.Context, id, folderID uuid.UUID) error
	SetType(ctx context.Context, id uuid.UUID, newType link.Type) error
}

type WorkspaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*workspace.Workspace, error)
}

// LinkService is the link registry. Generating a link promotes a folder
// from personal to shared context; unlinking and folder deletion only ever
// deactivate the row, so the permission list survives for a later re-bind.
type LinkService struct {
	folders    FolderStore
	links      LinkStore
	workspaces WorkspaceStore
}

func New(folders FolderStore, links LinkStore, workspaces WorkspaceStore) *LinkService {
	return &LinkService{folders: folders, links: links, workspaces: workspaces}
}

func (s *LinkService) requireOwnedFolder(ctx context.Context, actor permission.Actor, folderID uuid.UUID) (*folder.Folder, *workspace.Workspace, error) {
	f, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if f == nil {
		return nil, nil, fmt.Errorf("folder %s: %w", folderID, apperr.ErrNotFound)
	}
	ws, err := s.workspaces.GetByID(ctx, f.WorkspaceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if ws == nil {
		return nil, nil, fmt.Errorf("workspace %s: %w", f.WorkspaceID, apperr.ErrNotFound)
	}
	if actor.UserID == nil || *actor.UserID != ws.OwnerID {
		return nil, nil, apperr.ErrUnauthorized
	}
	return f, ws, nil
}

// Generate binds a link to the folder. A folder that was linked before gets
// its old row re-activated, allow-list intact; a never-linked folder gets a
// fresh row. No file or subfolder is migrated, sharing is a property of the
// folder.
func (s *LinkService) Generate(ctx context.Context, actor permission.Actor, folderID uuid.UUID, linkType link.Type) (*link.Link, error) {
	if !linkType.Valid() {
		return nil, fmt.Errorf("invalid link type %q", linkType)
	}
	f, ws, err := s.requireOwnedFolder(ctx, actor, folderID)
	if err != nil {
		return nil, err
	}

	if f.LinkID != nil {
		bound, err := s.links.GetByID(ctx, *f.LinkID)
		if err != nil {
			return nil, fmt.Errorf("failed to get link: %w", err)
		}
		if bound != nil && bound.IsActive {
			return nil, fmt.Errorf("folder %s: %w", folderID, apperr.ErrAlreadyLinked)
		}
	}

	previous, err := s.links.GetByFolder(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get previous link: %w", err)
	}
	if previous != nil && !previous.IsActive {
		if err := s.links.Rebind(ctx, previous.ID, folderID); err != nil {
			return nil, fmt.Errorf("failed to rebind link: %w", err)
		}
		if previous.Type != linkType {
			if err := s.links.SetType(ctx, previous.ID, linkType); err != nil {
				return nil, fmt.Errorf("failed to set link type: %w", err)
			}
			previous.Type = linkType
		}
		if err := s.folders.SetLink(ctx, folderID, &previous.ID); err != nil {
			return nil, fmt.Errorf("failed to bind folder: %w", err)
		}
		previous.IsActive = true
		return previous, nil
	}

	l := &link.Link{
		ID:        uuid.New(),
		FolderID:  folderID,
		OwnerID:   ws.OwnerID,
		Type:      linkType,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.links.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}
	if err := s.folders.SetLink(ctx, folderID, &l.ID); err != nil {
		return nil, fmt.Errorf("failed to bind folder: %w", err)
	}
	return l, nil
}

// Unlink deactivates the bound link and clears the folder's shared marker.
// The folder and every file in it are untouched.
func (s *LinkService) Unlink(ctx context.Context, actor permission.Actor, folderID uuid.UUID) error {
	f, _, err := s.requireOwnedFolder(ctx, actor, folderID)
	if err != nil {
		return err
	}
	if f.LinkID == nil {
		return fmt.Errorf("folder %s has no link: %w", folderID, apperr.ErrNotFound)
	}
	if err := s.links.SetActive(ctx, *f.LinkID, false); err != nil {
		return fmt.Errorf("failed to deactivate link: %w", err)
	}
	if err := s.folders.SetLink(ctx, folderID, nil); err != nil {
		return fmt.Errorf("failed to unbind folder: %w", err)
	}
	return nil
}

// SwitchType flips public/dedicated in place. Public -> dedicated keeps
// every permission row, auto-appended uploaders included, so the allow-list
// is exactly the set of emails that already uploaded. Dedicated -> public
// only lifts the allow-list check at upload time.
func (s *LinkService) SwitchType(ctx context.Context, actor permission.Actor, linkID uuid.UUID, newType link.Type) (*link.Link, error) {
	if !newType.Valid() {
		return nil, fmt.Errorf("invalid link type %q", newType)
	}
	l, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	if l == nil {
		return nil, fmt.Errorf("link %s: %w", linkID, apperr.ErrNotFound)
	}
	if actor.UserID == nil || *actor.UserID != l.OwnerID {
		return nil, apperr.ErrUnauthorized
	}
	if l.Type == newType {
		return l, nil
	}
	if err := s.links.SetType(ctx, linkID, newType); err != nil {
		return nil, fmt.Errorf("failed to set link type: %w", err)
	}
	l.Type = newType
	return l, nil
}

func (s *LinkService) Get(ctx context.Context, linkID uuid.UUID) (*link.Link, error) {
	l, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	if l == nil {
		return nil, fmt.Errorf("link %s: %w", linkID, apperr.ErrNotFound)
	}
	return l, nil
}
