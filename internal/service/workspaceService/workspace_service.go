package workspaceService

import (
	"context"
	"fmt"
	"time"

	"fileinbox-service/internal/apperr"
	"fileinbox-service/internal/model/permission"
	"fileinbox-service/internal/model/user"
	"fileinbox-service/internal/model/workspace"

	"github.com/google/uuid"
)

type UserStore interface {
	Ensure(ctx context.Context, u *user.User) error
}

type WorkspaceStore interface {
	Create(ctx context.Context, ws *workspace.Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*workspace.Workspace, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*workspace.Workspace, error)
}

// WorkspaceService provisions the one workspace each user owns. Identity
// itself comes from the external auth provider; this side only records it.
type WorkspaceService struct {
	users        UserStore
	workspaces   WorkspaceStore
	defaultLimit int64
}

func New(users UserStore, workspaces WorkspaceStore, defaultLimit int64) *WorkspaceService {
	return &WorkspaceService{
		users:        users,
		workspaces:   workspaces,
		defaultLimit: defaultLimit,
	}
}

// Provision records the authenticated user and returns their workspace,
// creating it with the default storage limit on first sight. Idempotent.
func (s *WorkspaceService) Provision(ctx context.Context, userID uuid.UUID, email string) (*workspace.Workspace, error) {
	if err := s.users.Ensure(ctx, &user.User{
		ID:        userID,
		Email:     email,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	ws, err := s.workspaces.GetByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if ws != nil {
		return ws, nil
	}

	ws = &workspace.Workspace{
		ID:                uuid.New(),
		OwnerID:           userID,
		StorageUsedBytes:  0,
		StorageLimitBytes: s.defaultLimit,
		CreatedAt:         time.Now(),
	}
	if err := s.workspaces.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	// A concurrent Provision may have won the ON CONFLICT race; the stored
	// row is the one that counts.
	stored, err := s.workspaces.GetByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("workspace of %s: %w", userID, apperr.ErrNotFound)
	}
	return stored, nil
}

func (s *WorkspaceService) Get(ctx context.Context, actor permission.Actor, workspaceID uuid.UUID) (*workspace.Workspace, error) {
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
