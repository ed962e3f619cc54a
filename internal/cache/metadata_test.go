package cache_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"movietrack/internal/cache"
	"movietrack/internal/model"
)

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	// Use DB 1 for testing to avoid conflicts with dev data
	opts.DB = 1
	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestMetadataCache_SearchRoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	c := cache.NewMetadataCache(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, found, err := c.GetSearch(ctx, "Shawshank")
	if err != nil {
		t.Fatalf("GetSearch failed: %v", err)
	}
	if found {
		t.Fatal("expected miss on empty cache")
	}

	results := []model.MovieSummary{{Title: "The Shawshank Redemption", Year: "1994", ImdbID: "tt0111161", Type: "movie"}}
	if err := c.SetSearch(ctx, "Shawshank", results); err != nil {
		t.Fatalf("SetSearch failed: %v", err)
	}

	// Keys are case and whitespace insensitive
	got, found, err := c.GetSearch(ctx, "  shawshank ")
	if err != nil || !found {
		t.Fatalf("GetSearch after set: found=%v err=%v", found, err)
	}
	if len(got) != 1 || got[0].ImdbID != "tt0111161" {
		t.Errorf("cached search = %+v", got)
	}
}

func TestMetadataCache_DetailRoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	c := cache.NewMetadataCache(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	detail := json.RawMessage(`{"Title":"The Godfather","imdbID":"tt0068646"}`)
	if err := c.SetDetail(ctx, "tt0068646", detail); err != nil {
		t.Fatalf("SetDetail failed: %v", err)
	}

	has, err := c.HasDetail(ctx, "tt0068646")
	if err != nil || !has {
		t.Fatalf("HasDetail = %v, %v", has, err)
	}

	got, found, err := c.GetDetail(ctx, "tt0068646")
	if err != nil || !found {
		t.Fatalf("GetDetail: found=%v err=%v", found, err)
	}
	if string(got) != string(detail) {
		t.Errorf("detail = %s, want %s", got, detail)
	}

	ttl := client.TTL(ctx, cache.DetailCachePrefix+"tt0068646").Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v, want (0, 1m]", ttl)
	}
}
