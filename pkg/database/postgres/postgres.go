package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	Host     string `env:"POSTGRES_HOST" env-default:"localhost"`
	Port     uint16 `env:"POSTGRES_PORT" env-default:"5432"`
	Username string `env:"POSTGRES_USER" env-default:"fileinbox"`
	Password string `env:"POSTGRES_PASSWORD" env-default:"fileinbox"`
	Database string `env:"POSTGRES_DB"   env-default:"fileinbox"`
}

// New opens a connection pool. Mutations from concurrent request handlers
// must be able to proceed in parallel and serialize only on row-level locks,
// so a pool rather than a single shared connection.
func New(ctx context.Context, config Config) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}
