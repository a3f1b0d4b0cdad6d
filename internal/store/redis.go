package store

import (
	"context"
	"errors"

	"github.com/iksnae/modular-chat/internal"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values as plain Redis strings, so several machines can
// share one chat history. Writes are last-write-wins.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis server at redisURL.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, &internal.StorageError{Key: redisURL, Op: "open", Err: err}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &internal.StorageError{Key: redisURL, Op: "open", Err: err}
	}

	internal.LogDebug("Connected to Redis store at %s", opts.Addr)
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &internal.StorageError{Key: key, Op: "get", Err: err}
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return &internal.StorageError{Key: key, Op: "set", Err: err}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return &internal.StorageError{Key: key, Op: "delete", Err: err}
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
