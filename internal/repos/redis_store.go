package repos

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "membersite:session:"

// RedisSessionStore is the fiber.Storage session backend for deployments
// that keep sessions in redis. Expiry uses redis key TTLs.
type RedisSessionStore struct {
	client redis.UniversalClient
}

func NewRedisSessionStore(addr string, db int) *RedisSessionStore {
	return &RedisSessionStore{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

// NewRedisSessionStoreWithClient wraps an existing client.
func NewRedisSessionStoreWithClient(c redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: c}
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessionStore) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	b, err := s.client.Get(context.Background(), redisSessionPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

func (s *RedisSessionStore) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.client.Set(context.Background(), redisSessionPrefix+key, val, exp).Err()
}

func (s *RedisSessionStore) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(context.Background(), redisSessionPrefix+key).Err()
}

// Reset removes every session key under the store prefix.
func (s *RedisSessionStore) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, redisSessionPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisSessionStore) Close() error { return s.client.Close() }
