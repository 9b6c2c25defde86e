package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis.Client
}

func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

func (r *RedisRepo) SetStatus(ctx context.Context, systemID, status string) error {
	return r.client.Set(ctx, "system_status:"+systemID, status, time.Hour).Err()
}

func (r *RedisRepo) GetStatus(ctx context.Context, systemID string) (string, error) {
	return r.client.Get(ctx, "system_status:"+systemID).Result()
}

// Leaderboard tables are cached whole; Redis nil means a miss.
func (r *RedisRepo) SetLeaderboard(ctx context.Context, benchmarkID string, table []byte, ttl time.Duration) error {
	return r.client.Set(ctx, "leaderboard:"+benchmarkID, table, ttl).Err()
}

func (r *RedisRepo) GetLeaderboard(ctx context.Context, benchmarkID string) ([]byte, error) {
	data, err := r.client.Get(ctx, "leaderboard:"+benchmarkID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

func (r *RedisRepo) InvalidateLeaderboards(ctx context.Context) error {
	keys, err := r.client.Keys(ctx, "leaderboard:*").Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
