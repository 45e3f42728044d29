package folderRepo_test

import (
	"context"
	"testing"
	"time"

	"fileinbox-service/internal/repository/folderRepo"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("missing folder is nil, nil", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := folderRepo.New(mock)

		mock.ExpectQuery("SELECT (.+) FROM folders WHERE id").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "workspace_id", "parent_folder_id", "name", "link_id", "created_by_email", "created_at",
			}))

		f, err := repo.GetByID(ctx, id)
		assert.NoError(t, err)
		assert.Nil(t, f)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSubtree(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := folderRepo.New(mock)

	rootID := uuid.New()
	childID := uuid.New()
	wsID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("WITH RECURSIVE subtree").
		WithArgs(rootID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "workspace_id", "parent_folder_id", "name", "link_id", "created_by_email", "created_at",
		}).
			AddRow(rootID, wsID, nil, "a", nil, nil, now).
			AddRow(childID, wsID, &rootID, "b", nil, nil, now))

	subtree, err := repo.Subtree(ctx, rootID)
	require.NoError(t, err)
	require.Len(t, subtree, 2)
	assert.Equal(t, rootID, subtree[0].ID)
	assert.Equal(t, childID, subtree[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitCascade(t *testing.T) {
	ctx := context.Background()
	wsID := uuid.New()
	linkIDs := []uuid.UUID{uuid.New()}
	fileIDs := []uuid.UUID{uuid.New(), uuid.New()}
	folderIDs := []uuid.UUID{uuid.New()}

	t.Run("full cascade in one transaction", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := folderRepo.New(mock)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE links SET is_active").
			WithArgs(linkIDs).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("DELETE FROM files").
			WithArgs(fileIDs).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))
		mock.ExpectExec("DELETE FROM folders").
			WithArgs(folderIDs).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec("UPDATE workspaces").
			WithArgs(wsID, int64(300)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()
		mock.ExpectRollback()

		err = repo.CommitCascade(ctx, folderRepo.Cascade{
			WorkspaceID: wsID,
			LinkIDs:     linkIDs,
			FileIDs:     fileIDs,
			FolderIDs:   folderIDs,
			FreedBytes:  300,
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty cascade touches nothing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := folderRepo.New(mock)

		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()

		err = repo.CommitCascade(ctx, folderRepo.Cascade{WorkspaceID: wsID})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
