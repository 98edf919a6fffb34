package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// incrWithTTL 自增计数器，首次创建时设置过期时间。
// 若上一次设置过期失败导致 key 永不过期，会在之后的自增中补上。
func incrWithTTL(ctx context.Context, client redisCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
		return count, nil
	}
	if remaining, err := client.TTL(ctx, key).Result(); err == nil && remaining < 0 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
