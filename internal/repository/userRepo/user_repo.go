package userRepo

import (
	"context"

	"fileinbox-service/internal/model/user"
	"fileinbox-service/pkg/database/postgres"
)

type UserRepo struct {
	db postgres.DB
}

func New(db postgres.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Ensure records the identity the external provider authenticated. Repeat
// calls are no-ops.
func (r *UserRepo) Ensure(ctx context.Context, u *user.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Email, u.CreatedAt)
	return err
}
