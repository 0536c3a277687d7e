package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"okhouse/internal/config"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "okhouse:session:"

// RedisTokenStore persists the slot in Redis so several console processes
// share one admin session.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client from the redis section.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// NewRedisTokenStore stores values with the given ttl; zero keeps them
// until cleared.
func NewRedisTokenStore(client *redis.Client, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{client: client, ttl: ttl}
}

func (s *RedisTokenStore) Get(ctx context.Context, key string) (string, error) {
	if s.client == nil {
		return "", errors.New("redis client is nil")
	}
	val, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return val, nil
}

func (s *RedisTokenStore) Set(ctx context.Context, key, value string) error {
	if s.client == nil {
		return errors.New("redis client is nil")
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (s *RedisTokenStore) Clear(ctx context.Context, key string) error {
	if s.client == nil {
		return errors.New("redis client is nil")
	}
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes client, tolerating nil.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
