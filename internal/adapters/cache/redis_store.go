package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/restaurantfinder/backend/internal/infrastructure/clients/redis"
)

// RedisStore is a ResponseCache shared through Redis. Values are stored as
// JSON without expiry. Redis failures are logged and treated as misses so
// the caller falls through to the provider.
type RedisStore[V any] struct {
	client *redisclient.Client
	prefix string
}

// NewRedisStore creates a store whose keys live under prefix:kind:
func NewRedisStore[V any](client *redisclient.Client, prefix, kind string) *RedisStore[V] {
	return &RedisStore[V]{
		client: client,
		prefix: prefix + ":" + kind,
	}
}

var _ providers.ResponseCache[string] = (*RedisStore[string])(nil)

func (s *RedisStore[V]) key(placeID string) string {
	return s.prefix + ":" + placeID
}

func (s *RedisStore[V]) indexKey() string {
	return s.prefix + ":keys"
}

// Get retrieves and decodes the value stored under key
func (s *RedisStore[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	data, err := s.client.Client().Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", s.key(key)).Msg("redis cache get failed")
		return zero, false
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		log.Warn().Err(err).Str("key", s.key(key)).Msg("discarding undecodable cache entry")
		return zero, false
	}
	return value, true
}

// Put encodes and stores value under key
func (s *RedisStore[V]) Put(ctx context.Context, key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key(key)).Msg("failed to encode cache entry")
		return
	}

	pipe := s.client.Client().TxPipeline()
	pipe.Set(ctx, s.key(key), data, 0)
	pipe.SAdd(ctx, s.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("key", s.key(key)).Msg("redis cache put failed")
	}
}

// Len returns the number of keys written to this store
func (s *RedisStore[V]) Len() int {
	n, err := s.client.Client().SCard(context.Background(), s.indexKey()).Result()
	if err != nil {
		log.Warn().Err(err).Msg("redis cache size lookup failed")
		return 0
	}
	return int(n)
}
