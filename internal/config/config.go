package config

import (
	"errors"
	"time"

	"fileinbox-service/internal/MinIO"
	"fileinbox-service/pkg/database/postgres"
	"fileinbox-service/pkg/database/redis"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPPort  string `env:"HTTP_PORT" env-default:"8080"`
	JWTSecret string `env:"JWT_TOKEN"`

	// DefaultStorageLimitBytes is the per-workspace hard quota for new
	// signups. 1 GiB unless overridden by the billing tier.
	DefaultStorageLimitBytes int64         `env:"DEFAULT_STORAGE_LIMIT_BYTES" env-default:"1073741824"`
	PromotionTTL             time.Duration `env:"PROMOTION_TTL" env-default:"15m"`
	SignedURLTTL             time.Duration `env:"SIGNED_URL_TTL" env-default:"1h"`

	Postgres postgres.Config
	Redis    redis.RedisConfig
	MinIO    MinIO.Config
}

func New() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(".env", &cfg); err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, errors.New("cannot read config")
		}
	}
	return &cfg, nil
}
