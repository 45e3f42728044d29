package workspaceRepo_test

import (
	"context"
	"testing"

	"fileinbox-service/internal/repository/workspaceRepo"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDelta(t *testing.T) {
	ctx := context.Background()
	wsID := uuid.New()

	t.Run("delta within the limit applies", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := workspaceRepo.New(mock)

		mock.ExpectExec("UPDATE workspaces").
			WithArgs(wsID, int64(100)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		applied, err := repo.ApplyDelta(ctx, wsID, 100)
		assert.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delta over the limit updates no row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := workspaceRepo.New(mock)

		mock.ExpectExec("UPDATE workspaces").
			WithArgs(wsID, int64(1<<40)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		applied, err := repo.ApplyDelta(ctx, wsID, 1<<40)
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	wsID := uuid.New()

	t.Run("missing workspace is nil, nil", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := workspaceRepo.New(mock)

		mock.ExpectQuery("SELECT id, owner_id").
			WithArgs(wsID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "storage_used_bytes", "storage_limit_bytes", "created_at"}))

		ws, err := repo.GetByID(ctx, wsID)
		assert.NoError(t, err)
		assert.Nil(t, ws)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecomputeUsage(t *testing.T) {
	ctx := context.Background()
	wsID := uuid.New()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := workspaceRepo.New(mock)

	mock.ExpectQuery("UPDATE workspaces").
		WithArgs(wsID).
		WillReturnRows(pgxmock.NewRows([]string{"storage_used_bytes"}).AddRow(int64(12345)))

	used, err := repo.RecomputeUsage(ctx, wsID)
	assert.NoError(t, err)
	assert.Equal(t, int64(12345), used)
	assert.NoError(t, mock.ExpectationsWereMet())
}
