package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"movietrack/internal/model"
)

const (
	// SearchCachePrefix is the key prefix for cached search results
	SearchCachePrefix = "omdb:search:"

	// DetailCachePrefix is the key prefix for cached movie details
	DetailCachePrefix = "omdb:detail:"

	// DefaultMetadataTTL is used when no TTL is configured (1 day)
	DefaultMetadataTTL = 24 * time.Hour
)

// MetadataCache stores movie metadata responses keyed by search title or
// movie id. Misses return found=false with a nil error.
type MetadataCache interface {
	GetSearch(ctx context.Context, title string) (results []model.MovieSummary, found bool, err error)
	SetSearch(ctx context.Context, title string, results []model.MovieSummary) error

	GetDetail(ctx context.Context, movieID string) (detail json.RawMessage, found bool, err error)
	SetDetail(ctx context.Context, movieID string, detail json.RawMessage) error

	// HasDetail reports whether a detail entry is cached without fetching it.
	HasDetail(ctx context.Context, movieID string) (bool, error)
}

// RedisMetadataCache implements MetadataCache with plain string keys and a TTL.
type RedisMetadataCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewMetadataCache creates a new MetadataCache backed by Redis.
func NewMetadataCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisMetadataCache {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	return &RedisMetadataCache{client: client, ttl: ttl, log: log.Named("metadata_cache")}
}

func searchKey(title string) string {
	return SearchCachePrefix + strings.ToLower(strings.TrimSpace(title))
}

func detailKey(movieID string) string {
	return DetailCachePrefix + movieID
}

func (c *RedisMetadataCache) GetSearch(ctx context.Context, title string) ([]model.MovieSummary, bool, error) {
	data, found, err := c.get(ctx, searchKey(title))
	if err != nil || !found {
		return nil, found, err
	}

	var results []model.MovieSummary
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false, fmt.Errorf("decode cached search: %w", err)
	}
	return results, true, nil
}

func (c *RedisMetadataCache) SetSearch(ctx context.Context, title string, results []model.MovieSummary) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode search: %w", err)
	}
	return c.set(ctx, searchKey(title), data)
}

func (c *RedisMetadataCache) GetDetail(ctx context.Context, movieID string) (json.RawMessage, bool, error) {
	data, found, err := c.get(ctx, detailKey(movieID))
	if err != nil || !found {
		return nil, found, err
	}
	return json.RawMessage(data), true, nil
}

func (c *RedisMetadataCache) SetDetail(ctx context.Context, movieID string, detail json.RawMessage) error {
	return c.set(ctx, detailKey(movieID), detail)
}

func (c *RedisMetadataCache) HasDetail(ctx context.Context, movieID string) (bool, error) {
	n, err := c.client.Exists(ctx, detailKey(movieID)).Result()
	if err != nil {
		return false, fmt.Errorf("check detail cache: %w", err)
	}
	return n > 0, nil
}

func (c *RedisMetadataCache) get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.String("key", key))
		return nil, false, nil
	}
	if err != nil {
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	c.log.Debug("cache hit", zap.String("key", key), zap.Duration("duration", time.Since(start)))
	return data, true, nil
}

func (c *RedisMetadataCache) set(ctx context.Context, key string, data []byte) error {
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
