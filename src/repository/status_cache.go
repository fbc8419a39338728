package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethaccount/recovery/src/domain"
	"github.com/go-redis/redis/v8"
)

const statusTTL = 24 * time.Hour

// StatusCacheRepository keeps the latest status of each tracked user
// operation in Redis for a day.
type StatusCacheRepository struct {
	redis  *redis.Client
	prefix string
}

func NewStatusCacheRepository(redis *redis.Client, prefix string) *StatusCacheRepository {
	return &StatusCacheRepository{
		redis:  redis,
		prefix: prefix + ":status",
	}
}

func (r *StatusCacheRepository) key(userOpHash string) string {
	return fmt.Sprintf("%s:%s", r.prefix, userOpHash)
}

// GetStatus returns nil on a cache miss.
func (r *StatusCacheRepository) GetStatus(ctx context.Context, userOpHash string) (*domain.OperationStatus, error) {
	data, err := r.redis.Get(ctx, r.key(userOpHash)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var status domain.OperationStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user operation status: %w", err)
	}
	return &status, nil
}

// SetStatus stores status with 24-hour expiration
func (r *StatusCacheRepository) SetStatus(ctx context.Context, status *domain.OperationStatus) error {
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now()
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal user operation status: %w", err)
	}
	return r.redis.Set(ctx, r.key(status.UserOpHash), data, statusTTL).Err()
}
