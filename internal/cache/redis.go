// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/hdrkit/internal/log"
)

// DefaultKeyPrefix namespaces response entries in a shared Redis database.
const DefaultKeyPrefix = "hdrkit:cache:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr      string // host:port
	Password  string // optional
	DB        int
	KeyPrefix string // defaults to DefaultKeyPrefix
}

// RedisStore is a Redis-backed Store holding JSON-encoded entries.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	s := newRedisStore(client, cfg.KeyPrefix)
	s.logger.Info().
		Str(log.FieldEvent, "cache.redis.connected").
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to Redis cache")
	return s, nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: log.WithComponent("cache"),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("redis get failed")
		}
		s.stats.misses.Add(1)
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(val, &e); err != nil {
		s.logger.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("json unmarshal failed")
		s.stats.misses.Add(1)
		return nil, false
	}
	s.stats.hits.Add(1)
	return &e, true
}

func (s *RedisStore) Set(ctx context.Context, key string, e *Entry, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("json marshal failed")
		return
	}
	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("redis set failed")
		return
	}
	s.stats.sets.Add(1)
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		s.logger.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("redis delete failed")
	}
}

// Clear removes every key under the store prefix. Other keys in the
// database are left alone.
func (s *RedisStore) Clear(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldCacheKey, iter.Val()).Msg("redis delete failed")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("redis scan failed")
	}
}

// Stats reports counters; CurrentSize counts keys under the prefix.
func (s *RedisStore) Stats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	size := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		size++
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("redis scan failed")
	}

	return Stats{
		Hits:        s.stats.hits.Load(),
		Misses:      s.stats.misses.Load(),
		Sets:        s.stats.sets.Load(),
		CurrentSize: size,
	}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// HealthCheck pings Redis.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
