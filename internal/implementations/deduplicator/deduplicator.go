package deduplicator

import (
	"context"
	e "resetflow/internal/core/domain/errors"
	"time"

	"github.com/go-redis/redis/v9"
)

type Redis struct {
	redisClient *redis.Client
}

func NewRedis(redisClient *redis.Client) *Redis {
	if redisClient == nil {
		panic(e.NewNilArgumentError("redisClient"))
	}
	return &Redis{redisClient: redisClient}
}

func (r *Redis) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.redisClient.SetNX(ctx, key, 1, ttl).Result()
}

func (r *Redis) Release(ctx context.Context, key string) error {
	return r.redisClient.Del(ctx, key).Err()
}
