package permissionRepo

import (
	"context"
	"errors"

	"fileinbox-service/internal/model/permission"
	"fileinbox-service/pkg/database/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PermissionRepository struct {
	db postgres.DB
}

func New(db postgres.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

const permColumns = `link_id, email, role, removed_at, created_at`

func (r *PermissionRepository) Get(ctx context.Context, linkID uuid.UUID, email string) (*permission.Permission, error) {
	var p permission.Permission
	err := r.db.QueryRow(ctx,
		`SELECT `+permColumns+` FROM permissions WHERE link_id = $1 AND email = $2`,
		linkID, email).
		Scan(&p.LinkID, &p.Email, &p.Role, &p.RemovedAt, &p.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}

func (r *PermissionRepository) List(ctx context.Context, linkID uuid.UUID) ([]*permission.Permission, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+permColumns+` FROM permissions WHERE link_id = $1 ORDER BY created_at`,
		linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []*permission.Permission
	for rows.Next() {
		var p permission.Permission
		if err := rows.Scan(&p.LinkID, &p.Email, &p.Role, &p.RemovedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, &p)
	}
	return perms, rows.Err()
}

// Add puts an email on the allow-list. Re-adding a removed email clears its
// removal marker; the stored role is kept.
func (r *PermissionRepository) Add(ctx context.Context, p *permission.Permission) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO permissions (link_id, email, role, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (link_id, email) DO UPDATE SET removed_at = NULL`,
		p.LinkID, p.Email, p.Role, p.CreatedAt)
	return err
}

// EnsureUploader is the idempotent auto-append on first upload through a
// public link. It never resurrects a removed entry and never downgrades a
// stored role.
func (r *PermissionRepository) EnsureUploader(ctx context.Context, linkID uuid.UUID, email string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO permissions (link_id, email, role)
		 VALUES ($1, $2, 'uploader')
		 ON CONFLICT (link_id, email) DO NOTHING`,
		linkID, email)
	return err
}

// Remove blocks future uploads from the email. Files already attributed to
// it keep their attribution, so this is a marker, not a row delete.
func (r *PermissionRepository) Remove(ctx context.Context, linkID uuid.UUID, email string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE permissions SET removed_at = now() WHERE link_id = $1 AND email = $2`,
		linkID, email)
	return err
}

func (r *PermissionRepository) SetRole(ctx context.Context, linkID uuid.UUID, email string, role permission.Role) error {
	_, err := r.db.Exec(ctx,
		`UPDATE permissions SET role = $1 WHERE link_id = $2 AND email = $3`,
		role, linkID, email)
	return err
}
