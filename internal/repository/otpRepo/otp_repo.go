package otpRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// OTPRepo stores pending editor promotions. An entry's TTL is the promotion
// expiry: when redis drops the key, the candidate is back to plain uploader
// with no sweep needed.
type OTPRepo struct {
	Client *redis.Client
}

func New(client *redis.Client) *OTPRepo {
	return &OTPRepo{Client: client}
}

func (r *OTPRepo) buildKey(linkID uuid.UUID, email string) string {
	return fmt.Sprintf("promote:%s:%s", linkID, email)
}

// SaveCode stores the bcrypt hash of the verification code, never the code
// itself.
func (r *OTPRepo) SaveCode(ctx context.Context, linkID uuid.UUID, email, hashedCode string, ttl time.Duration) error {
	key := r.buildKey(linkID, email)
	return r.Client.Set(ctx, key, hashedCode, ttl).Err()
}

// GetCode returns the stored hash, or "" when no promotion is pending.
func (r *OTPRepo) GetCode(ctx context.Context, linkID uuid.UUID, email string) (string, error) {
	key := r.buildKey(linkID, email)
	hashed, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hashed, nil
}

func (r *OTPRepo) DeleteCode(ctx context.Context, linkID uuid.UUID, email string) error {
	key := r.buildKey(linkID, email)
	return r.Client.Del(ctx, key).Err()
}
