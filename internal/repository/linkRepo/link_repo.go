package linkRepo

import (
	"context"
	"errors"

	"fileinbox-service/internal/model/link"
	"fileinbox-service/pkg/database/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LinkRepository struct {
	db postgres.DB
}

func New(db postgres.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

const linkColumns = `id, folder_id, owner_id, link_type, is_active, created_at`

func scanLink(row pgx.Row) (*link.Link, error) {
	var l link.Link
	err := row.Scan(&l.ID, &l.FolderID, &l.OwnerID, &l.Type, &l.IsActive, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &l, err
}

func (r *LinkRepository) Create(ctx context.Context, l *link.Link) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO links (id, folder_id, owner_id, link_type, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.FolderID, l.OwnerID, l.Type, l.IsActive, l.CreatedAt)
	return err
}

func (r *LinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*link.Link, error) {
	return scanLink(r.db.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = $1`, id))
}

// GetByFolder returns the newest link row bound to the folder, active or
// not. Inactive rows are candidates for reactivation.
func (r *LinkRepository) GetByFolder(ctx context.Context, folderID uuid.UUID) (*link.Link, error) {
	return scanLink(r.db.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM links
		 WHERE folder_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, folderID))
}

func (r *LinkRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.db.Exec(ctx,
		`UPDATE links SET is_active = $1 WHERE id = $2`, active, id)
	return err
}

// Rebind points an existing link row at a folder and reactivates it.
func (r *LinkRepository) Rebind(ctx context.Context, id, folderID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE links SET folder_id = $1, is_active = TRUE WHERE id = $2`,
		folderID, id)
	return err
}

func (r *LinkRepository) SetType(ctx context.Context, id uuid.UUID, newType link.Type) error {
	_, err := r.db.Exec(ctx,
		`UPDATE links SET link_type = $1 WHERE id = $2`, newType, id)
	return err
}
