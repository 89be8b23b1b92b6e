package session

import (
	"context"
	"fmt"
	"time"

	"garagedesk/internal/config"

	"github.com/redis/go-redis/v9"
)

// tokenKey is the fixed storage key the whole desk reads the session from,
// mirroring the one localStorage slot of the original back-office.
const tokenKey = "garagedesk:session_token"

// NewRedisClient builds a redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisStore persists the session token in redis so a desk restart does not
// force a re-login while the token is still valid.
type RedisStore struct {
	expireNotifier

	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	val, err := s.client.Get(ctx, tokenKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get session token from redis: %w", err)
	}
	return val, nil
}

func (s *RedisStore) SetToken(ctx context.Context, token string) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := s.client.Set(ctx, tokenKey, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session token in redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := s.client.Del(ctx, tokenKey).Err(); err != nil {
		return fmt.Errorf("delete session token from redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Expire(ctx context.Context) error {
	if err := s.Clear(ctx); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Ping checks the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}
