package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/pkg/logger"
)

// ErrCacheMiss is returned by Get when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

// Cache keys
const (
	keyLocation      = "location:%d"
	keyLocationAll   = "location:*"
	keyCategories    = "catalog:categories"
	keyRegions       = "catalog:regions"
	keyOAuthState    = "oauth_state:%s"
	keyStatsOverview = "statistics:overview"
)

// InterfaceRedisService defines the cache used by the services
type InterfaceRedisService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	GetOrLoad(ctx context.Context, key string, dest interface{}, loader func() (interface{}, error)) error
	SetString(ctx context.Context, key, value string, expiration time.Duration) error
	TakeString(ctx context.Context, key string) (string, error)
	Ping(ctx context.Context) error
	Client() *redis.Client
}

// RedisService is a read-through JSON cache over Redis
type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisService creates the client from the configuration
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewRedisServiceWithClient(client, cfg.CacheTTL)
}

// NewRedisServiceWithClient wraps an existing client
func NewRedisServiceWithClient(client *redis.Client, ttl time.Duration) InterfaceRedisService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisService{client: client, ttl: ttl}
}

// 1 Set stores value as JSON
func (s *RedisService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if expiration == 0 {
		expiration = s.ttl
	}
	return s.client.Set(ctx, key, jsonValue, expiration).Err()
}

// 2 Get decodes the JSON value of key into dest
func (s *RedisService) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

// 3 Delete removes keys
func (s *RedisService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// 4 DeletePattern removes every key matching a glob pattern
func (s *RedisService) DeletePattern(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return s.Delete(ctx, keys...)
}

// 5 GetOrLoad reads key into dest, or calls loader, caches its result and
// copies it into dest. Cache failures are logged and never fail the call.
func (s *RedisService) GetOrLoad(ctx context.Context, key string, dest interface{}, loader func() (interface{}, error)) error {
	err := s.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.Warning("cache read %s failed: %v", key, err)
	}

	value, err := loader()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		logger.Warning("cache write %s failed: %v", key, err)
	}
	return json.Unmarshal(data, dest)
}

// 6 SetString stores a raw string
func (s *RedisService) SetString(ctx context.Context, key, value string, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

// 7 TakeString reads and deletes a raw string in one step
func (s *RedisService) TakeString(ctx context.Context, key string) (string, error) {
	val, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

// 8 Ping checks the connection
func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisService) Client() *redis.Client {
	return s.client
}

// invalidate drops keys and logs instead of failing the caller
func invalidate(ctx context.Context, cache InterfaceRedisService, keys ...string) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, keys...); err != nil {
		logger.Warning("cache invalidation %v failed: %v", keys, err)
	}
}

// invalidatePattern drops every key matching pattern
func invalidatePattern(ctx context.Context, cache InterfaceRedisService, pattern string) {
	if cache == nil {
		return
	}
	if err := cache.DeletePattern(ctx, pattern); err != nil {
		logger.Warning("cache invalidation %s failed: %v", pattern, err)
	}
}

// loadCached reads key through cache, or calls load directly without one
func loadCached[T any](ctx context.Context, cache InterfaceRedisService, key string, load func() (T, error)) (T, error) {
	if cache == nil {
		return load()
	}
	var out T
	err := cache.GetOrLoad(ctx, key, &out, func() (interface{}, error) {
		return load()
	})
	return out, err
}
