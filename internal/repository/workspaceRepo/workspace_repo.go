package workspaceRepo

import (
	"context"
	"errors"

	"fileinbox-service/internal/model/workspace"
	"fileinbox-service/pkg/database/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type WorkspaceRepository struct {
	db postgres.DB
}

func New(db postgres.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) Create(ctx context.Context, ws *workspace.Workspace) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO workspaces (id, owner_id, storage_used_bytes, storage_limit_bytes, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (owner_id) DO NOTHING`,
		ws.ID, ws.OwnerID, ws.StorageUsedBytes, ws.StorageLimitBytes, ws.CreatedAt)
	return err
}

func (r *WorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*workspace.Workspace, error) {
	var ws workspace.Workspace
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, storage_used_bytes, storage_limit_bytes, created_at
		 FROM workspaces WHERE id = $1`, id).
		Scan(&ws.ID, &ws.OwnerID, &ws.StorageUsedBytes, &ws.StorageLimitBytes, &ws.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &ws, err
}

func (r *WorkspaceRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*workspace.Workspace, error) {
	var ws workspace.Workspace
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, storage_used_bytes, storage_limit_bytes, created_at
		 FROM workspaces WHERE owner_id = $1`, ownerID).
		Scan(&ws.ID, &ws.OwnerID, &ws.StorageUsedBytes, &ws.StorageLimitBytes, &ws.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &ws, err
}

// ApplyDelta adjusts the usage counter atomically. A positive delta only
// applies while it fits under the limit; the conditional UPDATE is the
// compare-and-increment that keeps two concurrent uploads from jointly
// overshooting. Negative deltas floor at zero. Returns whether a row was
// updated.
func (r *WorkspaceRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE workspaces
		 SET storage_used_bytes = GREATEST(storage_used_bytes + $2, 0)
		 WHERE id = $1
		   AND ($2 <= 0 OR storage_used_bytes + $2 <= storage_limit_bytes)`,
		id, delta)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RecomputeUsage rewrites the counter from ground truth, the sum of file
// sizes. Reconciliation only; normal accounting is incremental.
func (r *WorkspaceRepository) RecomputeUsage(ctx context.Context, id uuid.UUID) (int64, error) {
	var used int64
	err := r.db.QueryRow(ctx,
		`UPDATE workspaces
		 SET storage_used_bytes = (
		     SELECT COALESCE(SUM(size_bytes), 0) FROM files WHERE workspace_id = $1
		 )
		 WHERE id = $1
		 RETURNING storage_used_bytes`, id).
		Scan(&used)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return used, err
}
