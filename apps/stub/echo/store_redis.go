package stubapi

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the Store interface, for running
// multiple stub instances against one revocation list.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		prefix: "kramik:invalidated:",
	}, nil
}

func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	key := s.prefix + tokenID
	if err := s.client.Set(ctx, key, "1", expiry).Err(); err != nil {
		return errors.Wrap(err, "invalidating token")
	}
	return nil
}

func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	val, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking token invalidation")
	}
	return val > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
