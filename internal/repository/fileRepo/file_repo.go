package fileRepo

import (
	"context"
	"errors"

	"fileinbox-service/internal/model/fileInfo"
	"fileinbox-service/pkg/database/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type FileRepository struct {
	db postgres.DB
}

func New(db postgres.DB) *FileRepository {
	return &FileRepository{db: db}
}

const fileColumns = `id, workspace_id, folder_id, name, storage_path, size_bytes, content_type, uploader_email, uploaded_at`

func (r *FileRepository) scanRows(rows pgx.Rows) ([]*fileInfo.File, error) {
	defer rows.Close()

	var files []*fileInfo.File
	for rows.Next() {
		var f fileInfo.File
		if err := rows.Scan(&f.ID, &f.WorkspaceID, &f.FolderID, &f.Name, &f.StoragePath,
			&f.SizeBytes, &f.ContentType, &f.UploaderEmail, &f.UploadedAt); err != nil {
			return nil, err
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (r *FileRepository) Create(ctx context.Context, f *fileInfo.File) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO files (id, workspace_id, folder_id, name, storage_path, size_bytes, content_type, uploader_email, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.WorkspaceID, f.FolderID, f.Name, f.StoragePath, f.SizeBytes, f.ContentType, f.UploaderEmail, f.UploadedAt)
	return err
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*fileInfo.File, error) {
	var f fileInfo.File
	err := r.db.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1`, id).
		Scan(&f.ID, &f.WorkspaceID, &f.FolderID, &f.Name, &f.StoragePath,
			&f.SizeBytes, &f.ContentType, &f.UploaderEmail, &f.UploadedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &f, err
}

func (r *FileRepository) Rename(ctx context.Context, id uuid.UUID, newName string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE files SET name = $1 WHERE id = $2`, newName, id)
	return err
}

// Move changes only the folder pointer (and resolved name). Attribution and
// size are untouched, moves are quota-neutral.
func (r *FileRepository) Move(ctx context.Context, id uuid.UUID, folderID *uuid.UUID, name string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE files SET folder_id = $1, name = $2 WHERE id = $3`,
		folderID, name, id)
	return err
}

func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	return err
}

func (r *FileRepository) ListByFolder(ctx context.Context, workspaceID uuid.UUID, folderID *uuid.UUID) ([]*fileInfo.File, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+fileColumns+` FROM files
		 WHERE workspace_id = $1 AND folder_id IS NOT DISTINCT FROM $2
		 ORDER BY name`, workspaceID, folderID)
	if err != nil {
		return nil, err
	}
	return r.scanRows(rows)
}

// ListByFolders returns every file under the given folder set, used by the
// cascade to enumerate storage objects before touching any row.
func (r *FileRepository) ListByFolders(ctx context.Context, folderIDs []uuid.UUID) ([]*fileInfo.File, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+fileColumns+` FROM files WHERE folder_id = ANY($1)`, folderIDs)
	if err != nil {
		return nil, err
	}
	return r.scanRows(rows)
}

func (r *FileRepository) SiblingNames(ctx context.Context, workspaceID uuid.UUID, folderID *uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name FROM files
		 WHERE workspace_id = $1 AND folder_id IS NOT DISTINCT FROM $2`,
		workspaceID, folderID)
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

// FilesByEmail answers the uploader filter, workspace-wide or scoped to one
// folder. The attribution index is just (uploader_email, folder_id).
func (r *FileRepository) FilesByEmail(ctx context.Context, workspaceID uuid.UUID, email string, folderID *uuid.UUID) ([]*fileInfo.File, error) {
	if folderID != nil {
		rows, err := r.db.Query(ctx,
			`SELECT `+fileColumns+` FROM files
			 WHERE workspace_id = $1 AND uploader_email = $2 AND folder_id = $3
			 ORDER BY uploaded_at DESC`, workspaceID, email, folderID)
		if err != nil {
			return nil, err
		}
		return r.scanRows(rows)
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+fileColumns+` FROM files
		 WHERE workspace_id = $1 AND uploader_email = $2
		 ORDER BY uploaded_at DESC`, workspaceID, email)
	if err != nil {
		return nil, err
	}
	return r.scanRows(rows)
}

func (r *FileRepository) UniqueUploaders(ctx context.Context, folderID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT uploader_email FROM files
		 WHERE folder_id = $1 AND uploader_email IS NOT NULL
		 ORDER BY uploader_email`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// FolderCounts aggregates file, subfolder and uploader counts per folder in
// one pass over the workspace. Computed from the live rows on every call, so
// the numbers can never go stale.
func (r *FileRepository) FolderCounts(ctx context.Context, workspaceID uuid.UUID) (map[uuid.UUID]fileInfo.FolderCounts, error) {
	counts := make(map[uuid.UUID]fileInfo.FolderCounts)

	rows, err := r.db.Query(ctx,
		`SELECT folder_id, COUNT(*), COUNT(DISTINCT uploader_email)
		 FROM files
		 WHERE workspace_id = $1 AND folder_id IS NOT NULL
		 GROUP BY folder_id`, workspaceID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id uuid.UUID
		var fileCount, uploaderCount int
		if err := rows.Scan(&id, &fileCount, &uploaderCount); err != nil {
			rows.Close()
			return nil, err
		}
		counts[id] = fileInfo.FolderCounts{FileCount: fileCount, UploaderCount: uploaderCount}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx,
		`SELECT parent_folder_id, COUNT(*)
		 FROM folders
		 WHERE workspace_id = $1 AND parent_folder_id IS NOT NULL
		 GROUP BY parent_folder_id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var folderCount int
		if err := rows.Scan(&id, &folderCount); err != nil {
			return nil, err
		}
		c := counts[id]
		c.FolderCount = folderCount
		counts[id] = c
	}
	return counts, rows.Err()
}
