package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis so they survive process restarts and
// expire server-side via the key TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func sessionKey(phone string) string {
	return "session:" + phone
}

func (r *RedisStore) Get(ctx context.Context, phone string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(phone)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(s.Phone), data, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, phone string) error {
	return r.client.Del(ctx, sessionKey(phone)).Err()
}
