package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// DefaultRedisPrefix namespaces daybook keys inside a shared Redis database.
const DefaultRedisPrefix = "daybook:"

// RedisStore keeps blobs as Redis string values. Commit runs inside
// MULTI/EXEC so a multi-key replace is applied all at once.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis connects to the server named in cfg and verifies it with PING.
func DialRedis(ctx context.Context, cfg types.KVConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisStore(client, DefaultRedisPrefix), nil
}

// Get returns the value under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores value under key with no expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Commit applies sets and deletes in one transaction.
func (s *RedisStore) Commit(ctx context.Context, sets map[string][]byte, deletes []string) error {
	for k := range sets {
		if err := checkKey(k); err != nil {
			return err
		}
	}
	delKeys := make([]string, 0, len(deletes))
	for _, k := range deletes {
		if err := checkKey(k); err != nil {
			return err
		}
		delKeys = append(delKeys, s.prefix+k)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range sets {
			pipe.Set(ctx, s.prefix+k, v, 0)
		}
		if len(delKeys) > 0 {
			pipe.Del(ctx, delKeys...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis commit: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
