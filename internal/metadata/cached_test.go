package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"movietrack/internal/model"
)

type fakeClient struct {
	searchCalls int
	detailCalls int
	detailErr   error
}

func (f *fakeClient) Search(ctx context.Context, title string) ([]model.MovieSummary, error) {
	f.searchCalls++
	return []model.MovieSummary{{Title: title, ImdbID: "tt1"}}, nil
}

func (f *fakeClient) Detail(ctx context.Context, movieID string) (json.RawMessage, error) {
	f.detailCalls++
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return json.RawMessage(`{"Title":"Movie ` + movieID + `","imdbID":"` + movieID + `"}`), nil
}

func (f *fakeClient) Card(ctx context.Context, movieID string) (*model.MovieSummary, error) {
	return nil, errors.New("not used")
}

// memoryCache is a map-backed MetadataCache; failing makes every call error.
type memoryCache struct {
	search  map[string][]model.MovieSummary
	detail  map[string]json.RawMessage
	failing bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{search: map[string][]model.MovieSummary{}, detail: map[string]json.RawMessage{}}
}

var errCacheDown = errors.New("cache down")

func (m *memoryCache) GetSearch(ctx context.Context, title string) ([]model.MovieSummary, bool, error) {
	if m.failing {
		return nil, false, errCacheDown
	}
	r, ok := m.search[title]
	return r, ok, nil
}

func (m *memoryCache) SetSearch(ctx context.Context, title string, results []model.MovieSummary) error {
	if m.failing {
		return errCacheDown
	}
	m.search[title] = results
	return nil
}

func (m *memoryCache) GetDetail(ctx context.Context, movieID string) (json.RawMessage, bool, error) {
	if m.failing {
		return nil, false, errCacheDown
	}
	d, ok := m.detail[movieID]
	return d, ok, nil
}

func (m *memoryCache) SetDetail(ctx context.Context, movieID string, detail json.RawMessage) error {
	if m.failing {
		return errCacheDown
	}
	m.detail[movieID] = detail
	return nil
}

func (m *memoryCache) HasDetail(ctx context.Context, movieID string) (bool, error) {
	if m.failing {
		return false, errCacheDown
	}
	_, ok := m.detail[movieID]
	return ok, nil
}

func TestCachedClient_SearchHitsUpstreamOnce(t *testing.T) {
	inner := &fakeClient{}
	c := NewCachedClient(inner, newMemoryCache(), zap.NewNop())

	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), "heat"); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
	}
	if inner.searchCalls != 1 {
		t.Errorf("upstream search calls = %d, want 1", inner.searchCalls)
	}
}

func TestCachedClient_CacheFailureFallsThrough(t *testing.T) {
	inner := &fakeClient{}
	mc := newMemoryCache()
	mc.failing = true
	c := NewCachedClient(inner, mc, zap.NewNop())

	card, err := c.Card(context.Background(), "tt0068646")
	if err != nil {
		t.Fatalf("Card failed with cache down: %v", err)
	}
	if card.ImdbID != "tt0068646" {
		t.Errorf("card id = %q", card.ImdbID)
	}
}

func TestCachedClient_ErrorsNotCached(t *testing.T) {
	inner := &fakeClient{detailErr: &model.NoResultsError{Message: "Incorrect IMDb ID."}}
	mc := newMemoryCache()
	c := NewCachedClient(inner, mc, zap.NewNop())

	_, err := c.Detail(context.Background(), "tt0")
	if !errors.Is(err, model.ErrMovieNotFound) {
		t.Fatalf("error = %v, want ErrMovieNotFound", err)
	}
	if len(mc.detail) != 0 {
		t.Error("negative answers should not be cached")
	}
}

func TestCachedClient_PrefetchSkipsCached(t *testing.T) {
	inner := &fakeClient{}
	mc := newMemoryCache()
	c := NewCachedClient(inner, mc, zap.NewNop())
	ctx := context.Background()

	if err := c.Prefetch(ctx, "tt0111161"); err != nil {
		t.Fatalf("Prefetch failed: %v", err)
	}
	if err := c.Prefetch(ctx, "tt0111161"); err != nil {
		t.Fatalf("second Prefetch failed: %v", err)
	}
	if inner.detailCalls != 1 {
		t.Errorf("upstream detail calls = %d, want 1", inner.detailCalls)
	}
	if _, ok := mc.detail["tt0111161"]; !ok {
		t.Error("prefetched detail missing from cache")
	}
}
