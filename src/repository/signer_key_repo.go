package repository

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// SignerKeyRepository persists the owner key used to sign recovery setup
// operations so restarts keep the same owner address.
type SignerKeyRepository struct {
	redis *redis.Client
	key   string
}

func NewSignerKeyRepository(redis *redis.Client, prefix string) *SignerKeyRepository {
	return &SignerKeyRepository{redis: redis, key: prefix + ":signer_key"}
}

// GetSignerKey returns an empty string when no key is stored.
func (r *SignerKeyRepository) GetSignerKey(ctx context.Context) (string, error) {
	key, err := r.redis.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return key, err
}

// SaveSignerKey stores key unless another process stored one first, and
// returns whichever key won.
func (r *SignerKeyRepository) SaveSignerKey(ctx context.Context, key string) (string, error) {
	if err := r.redis.SetNX(ctx, r.key, key, 0).Err(); err != nil {
		return "", err
	}
	return r.redis.Get(ctx, r.key).Result()
}
