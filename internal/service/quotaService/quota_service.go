package quotaService

import (
	"context"
	"fmt"

	"fileinbox-service/internal/apperr"
	"fileinbox-service/internal/model/workspace"

	"github.com/google/uuid"
)

// WorkspaceStore is the slice of the workspace repository the accountant
// needs.
type WorkspaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*workspace.Workspace, error)
	ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) (bool, error)
	RecomputeUsage(ctx context.Context, id uuid.UUID) (int64, error)
}

// QuotaService meters workspace storage. The hard limit has no grace
// period: the conditional counter update in the store is the only gate that
// admits bytes, Check is advisory so uploads can be rejected before any
// storage write happens.
type QuotaService struct {
	workspaces WorkspaceStore
}

func New(workspaces WorkspaceStore) *QuotaService {
	return &QuotaService{workspaces: workspaces}
}

// Decision is the answer to "may these bytes come in". Warning flags refer
// to the projected usage and never block anything.
type Decision struct {
	Allowed   bool
	Warning80 bool
	Warning90 bool
	Usage     workspace.Usage
}

func (s *QuotaService) Check(ctx context.Context, workspaceID uuid.UUID, incomingBytes int64) (*Decision, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, apperr.ErrNotFound)
	}

	projected := workspace.NewUsage(ws.StorageUsedBytes+incomingBytes, ws.StorageLimitBytes)
	return &Decision{
		Allowed:   ws.StorageUsedBytes+incomingBytes <= ws.StorageLimitBytes,
		Warning80: projected.Warning80,
		Warning90: projected.Warning90,
		Usage:     workspace.NewUsage(ws.StorageUsedBytes, ws.StorageLimitBytes),
	}, nil
}

// Reserve admits bytes against the limit. Concurrent reservations serialize
// on the workspace row, so two uploads that jointly exceed the limit cannot
// both get through.
func (s *QuotaService) Reserve(ctx context.Context, workspaceID uuid.UUID, bytes int64) error {
	if bytes < 0 {
		return fmt.Errorf("negative reservation of %d bytes", bytes)
	}
	applied, err := s.workspaces.ApplyDelta(ctx, workspaceID, bytes)
	if err != nil {
		return fmt.Errorf("failed to apply quota delta: %w", err)
	}
	if applied {
		return nil
	}
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to get workspace: %w", err)
	}
	if ws == nil {
		return fmt.Errorf("workspace %s: %w", workspaceID, apperr.ErrNotFound)
	}
	return fmt.Errorf("%d bytes over limit %d: %w", ws.StorageUsedBytes+bytes-ws.StorageLimitBytes, ws.StorageLimitBytes, apperr.ErrQuotaExceeded)
}

// Release returns bytes to the workspace, flooring at zero.
func (s *QuotaService) Release(ctx context.Context, workspaceID uuid.UUID, bytes int64) error {
	if bytes < 0 {
		return fmt.Errorf("negative release of %d bytes", bytes)
	}
	_, err := s.workspaces.ApplyDelta(ctx, workspaceID, -bytes)
	if err != nil {
		return fmt.Errorf("failed to apply quota delta: %w", err)
	}
	return nil
}

func (s *QuotaService) Usage(ctx context.Context, workspaceID uuid.UUID) (workspace.Usage, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return workspace.Usage{}, fmt.Errorf("failed to get workspace: %w", err)
	}
	if ws == nil {
		return workspace.Usage{}, fmt.Errorf("workspace %s: %w", workspaceID, apperr.ErrNotFound)
	}
	return workspace.NewUsage(ws.StorageUsedBytes, ws.StorageLimitBytes), nil
}

// Recompute rewrites the counter from the sum over files. Incremental
// deltas are never the source of truth, this is the reconciliation path.
func (s *QuotaService) Recompute(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	return s.workspaces.RecomputeUsage(ctx, workspaceID)
}
