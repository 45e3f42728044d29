package folderRepo

import (
	"context"
	"errors"

	"fileinbox-service/internal/model/folder"
	"fileinbox-service/pkg/database/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type FolderRepository struct {
	db postgres.DB
}

func New(db postgres.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

const folderColumns = `id, workspace_id, parent_folder_id, name, link_id, created_by_email, created_at`

func scanFolder(row pgx.Row) (*folder.Folder, error) {
	var f folder.Folder
	err := row.Scan(&f.ID, &f.WorkspaceID, &f.ParentFolderID, &f.Name, &f.LinkID, &f.CreatedByEmail, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &f, err
}

func (r *FolderRepository) Create(ctx context.Context, f *folder.Folder) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO folders (id, workspace_id, parent_folder_id, name, link_id, created_by_email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.WorkspaceID, f.ParentFolderID, f.Name, f.LinkID, f.CreatedByEmail, f.CreatedAt)
	return err
}

func (r *FolderRepository) GetByID(ctx context.Context, id uuid.UUID) (*folder.Folder, error) {
	return scanFolder(r.db.QueryRow(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE id = $1`, id))
}

func (r *FolderRepository) Rename(ctx context.Context, id uuid.UUID, newName string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE folders SET name = $1 WHERE id = $2`, newName, id)
	return err
}

// Move reparents a folder. The caller has already validated cycles, depth
// and resolved the destination name.
func (r *FolderRepository) Move(ctx context.Context, id uuid.UUID, newParentID *uuid.UUID, name string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE folders SET parent_folder_id = $1, name = $2 WHERE id = $3`,
		newParentID, name, id)
	return err
}

func (r *FolderRepository) SetLink(ctx context.Context, folderID uuid.UUID, linkID *uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE folders SET link_id = $1 WHERE id = $2`, linkID, folderID)
	return err
}

// Subtree returns the folder plus all descendants, parents before children.
func (r *FolderRepository) Subtree(ctx context.Context, rootID uuid.UUID) ([]*folder.Folder, error) {
	rows, err := r.db.Query(ctx,
		`WITH RECURSIVE subtree AS (
		     SELECT `+folderColumns+`, 1 AS lvl FROM folders WHERE id = $1
		     UNION ALL
		     SELECT f.id, f.workspace_id, f.parent_folder_id, f.name, f.link_id, f.created_by_email, f.created_at, s.lvl + 1
		     FROM folders f
		     JOIN subtree s ON f.parent_folder_id = s.id
		 )
		 SELECT `+folderColumns+` FROM subtree ORDER BY lvl`, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []*folder.Folder
	for rows.Next() {
		var f folder.Folder
		if err := rows.Scan(&f.ID, &f.WorkspaceID, &f.ParentFolderID, &f.Name, &f.LinkID, &f.CreatedByEmail, &f.CreatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, &f)
	}
	return folders, rows.Err()
}

func (r *FolderRepository) ListChildren(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) ([]*folder.Folder, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+folderColumns+` FROM folders
		 WHERE workspace_id = $1 AND parent_folder_id IS NOT DISTINCT FROM $2
		 ORDER BY name`, workspaceID, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []*folder.Folder
	for rows.Next() {
		var f folder.Folder
		if err := rows.Scan(&f.ID, &f.WorkspaceID, &f.ParentFolderID, &f.Name, &f.LinkID, &f.CreatedByEmail, &f.CreatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, &f)
	}
	return folders, rows.Err()
}

// SiblingNames returns the folder names already taken at a destination, for
// conflict suffix resolution.
func (r *FolderRepository) SiblingNames(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name FROM folders
		 WHERE workspace_id = $1 AND parent_folder_id IS NOT DISTINCT FROM $2`,
		workspaceID, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Cascade is the database half of a folder delete, applied in one
// transaction after the storage-first phase. Link rows are deactivated,
// never deleted. FolderIDs must be closed under the child relation so the
// FK cascade cannot take out a folder that still holds surviving rows.
type Cascade struct {
	WorkspaceID uuid.UUID
	LinkIDs     []uuid.UUID
	FileIDs     []uuid.UUID
	FolderIDs   []uuid.UUID
	FreedBytes  int64
}

func (r *FolderRepository) CommitCascade(ctx context.Context, cd Cascade) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if len(cd.LinkIDs) > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE links SET is_active = FALSE WHERE id = ANY($1)`, cd.LinkIDs)
		if err != nil {
			return err
		}
	}

	if len(cd.FileIDs) > 0 {
		_, err = tx.Exec(ctx,
			`DELETE FROM files WHERE id = ANY($1)`, cd.FileIDs)
		if err != nil {
			return err
		}
	}

	if len(cd.FolderIDs) > 0 {
		_, err = tx.Exec(ctx,
			`DELETE FROM folders WHERE id = ANY($1)`, cd.FolderIDs)
		if err != nil {
			return err
		}
	}

	if cd.FreedBytes > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE workspaces
			 SET storage_used_bytes = GREATEST(storage_used_bytes - $2, 0)
			 WHERE id = $1`,
			cd.WorkspaceID, cd.FreedBytes)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
