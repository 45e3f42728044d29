package otpRepo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fileinbox-service/internal/repository/otpRepo"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOTPRepo(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	repo := otpRepo.New(db)

	linkID := uuid.New()
	key := fmt.Sprintf("promote:%s:up@example.com", linkID)

	t.Run("SaveCode sets the hash under TTL", func(t *testing.T) {
		mock.ExpectSet(key, "hashed", 15*time.Minute).SetVal("OK")
		err := repo.SaveCode(ctx, linkID, "up@example.com", "hashed", 15*time.Minute)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetCode returns the stored hash", func(t *testing.T) {
		mock.ExpectGet(key).SetVal("hashed")
		hashed, err := repo.GetCode(ctx, linkID, "up@example.com")
		assert.NoError(t, err)
		assert.Equal(t, "hashed", hashed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent entry reads as empty", func(t *testing.T) {
		mock.ExpectGet(key).RedisNil()
		hashed, err := repo.GetCode(ctx, linkID, "up@example.com")
		assert.NoError(t, err)
		assert.Equal(t, "", hashed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteCode", func(t *testing.T) {
		mock.ExpectDel(key).SetVal(1)
		err := repo.DeleteCode(ctx, linkID, "up@example.com")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
