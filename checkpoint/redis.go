package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BaSui01/deepresearch/graph"
	"github.com/BaSui01/deepresearch/types"
)

const defaultKeyPrefix = "deepresearch:session:"

// RedisConfig holds connection settings for the Redis store.
type RedisConfig struct {
	Addr      string        `yaml:"addr" json:"addr"`
	Password  string        `yaml:"password" json:"password"`
	DB        int           `yaml:"db" json:"db"`
	KeyPrefix string        `yaml:"key_prefix" json:"key_prefix"`
	TTL       time.Duration `yaml:"ttl" json:"ttl"`
}

// RedisStore persists checkpoints in Redis, one key per session.
// Suitable for distributed deployments where a resume may land on a
// different process than the run that suspended.
type RedisStore[S any] struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore[S any](cfg RedisConfig) (*RedisStore[S], error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, types.WrapError(types.ErrCheckpointSave, "connect to redis", err)
	}

	return NewRedisStoreWithClient[S](client, cfg), nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests and by
// callers sharing one client across stores.
func NewRedisStoreWithClient[S any](client redis.UniversalClient, cfg RedisConfig) *RedisStore[S] {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore[S]{client: client, keyPrefix: prefix, ttl: cfg.TTL}
}

func (s *RedisStore[S]) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

// Save replaces the session's checkpoint. A configured TTL bounds how
// long an abandoned session stays resumable.
func (s *RedisStore[S]) Save(ctx context.Context, cp *graph.Checkpoint[S]) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return types.WrapError(types.ErrCheckpointSave, "marshal checkpoint", err)
	}
	if err := s.client.Set(ctx, s.key(cp.SessionID), raw, s.ttl).Err(); err != nil {
		return types.WrapError(types.ErrCheckpointSave, "write checkpoint", err)
	}
	return nil
}

// Load returns the session's checkpoint, or graph.ErrNotFound.
func (s *RedisStore[S]) Load(ctx context.Context, sessionID string) (*graph.Checkpoint[S], error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, graph.ErrNotFound
	}
	if err != nil {
		return nil, types.WrapError(types.ErrCheckpointLoad, "read checkpoint", err)
	}

	var cp graph.Checkpoint[S]
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, types.WrapError(types.ErrCheckpointLoad, "unmarshal checkpoint", err)
	}
	return &cp, nil
}

// Delete removes a session's checkpoint.
func (s *RedisStore[S]) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

// Ping checks connectivity.
func (s *RedisStore[S]) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore[S]) Close() error {
	return s.client.Close()
}

var _ graph.Store[struct{}] = (*RedisStore[struct{}])(nil)
