package metadata

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"movietrack/internal/cache"
	"movietrack/internal/model"
)

// CachedClient is a read-through cache in front of another Client. Cache
// failures are logged and fall through to the upstream; they never fail a
// lookup. Negative answers are not cached.
type CachedClient struct {
	inner Client
	cache cache.MetadataCache
	log   *zap.Logger
}

func NewCachedClient(inner Client, c cache.MetadataCache, log *zap.Logger) *CachedClient {
	return &CachedClient{inner: inner, cache: c, log: log.Named("metadata")}
}

func (c *CachedClient) Search(ctx context.Context, title string) ([]model.MovieSummary, error) {
	if results, found, err := c.cache.GetSearch(ctx, title); err == nil && found {
		return results, nil
	}

	results, err := c.inner.Search(ctx, title)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetSearch(ctx, title, results); err != nil {
		c.log.Warn("cache search result", zap.String("title", title), zap.Error(err))
	}
	return results, nil
}

func (c *CachedClient) Detail(ctx context.Context, movieID string) (json.RawMessage, error) {
	if detail, found, err := c.cache.GetDetail(ctx, movieID); err == nil && found {
		return detail, nil
	}

	detail, err := c.inner.Detail(ctx, movieID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetDetail(ctx, movieID, detail); err != nil {
		c.log.Warn("cache movie detail", zap.String("movie_id", movieID), zap.Error(err))
	}
	return detail, nil
}

// Card is served from the cached detail.
func (c *CachedClient) Card(ctx context.Context, movieID string) (*model.MovieSummary, error) {
	detail, err := c.Detail(ctx, movieID)
	if err != nil {
		return nil, err
	}
	return cardFromDetail(detail)
}

// Prefetch loads movieID's detail into the cache unless it is already there.
func (c *CachedClient) Prefetch(ctx context.Context, movieID string) error {
	if has, err := c.cache.HasDetail(ctx, movieID); err == nil && has {
		return nil
	}
	_, err := c.Detail(ctx, movieID)
	return err
}
