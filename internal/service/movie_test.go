package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"movietrack/internal/model"
)

type mockMetadataClient struct {
	searchFn func(ctx context.Context, title string) ([]model.MovieSummary, error)
	detailFn func(ctx context.Context, movieID string) (json.RawMessage, error)
	cardFn   func(ctx context.Context, movieID string) (*model.MovieSummary, error)

	detailCalls int
}

func (m *mockMetadataClient) Search(ctx context.Context, title string) ([]model.MovieSummary, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, title)
	}
	return nil, &model.NoResultsError{Message: "Movie not found!"}
}

func (m *mockMetadataClient) Detail(ctx context.Context, movieID string) (json.RawMessage, error) {
	m.detailCalls++
	if m.detailFn != nil {
		return m.detailFn(ctx, movieID)
	}
	return json.RawMessage(`{"imdbID":"` + movieID + `","Response":"True"}`), nil
}

func (m *mockMetadataClient) Card(ctx context.Context, movieID string) (*model.MovieSummary, error) {
	if m.cardFn != nil {
		return m.cardFn(ctx, movieID)
	}
	return &model.MovieSummary{ImdbID: movieID}, nil
}

func TestMovieService_Search_TrimsAndRejectsBlank(t *testing.T) {
	var gotTitle string
	meta := &mockMetadataClient{
		searchFn: func(ctx context.Context, title string) ([]model.MovieSummary, error) {
			gotTitle = title
			return []model.MovieSummary{{ImdbID: "tt0111161"}}, nil
		},
	}
	svc := NewMovieService(meta, nil)

	if _, err := svc.Search(context.Background(), "  heat "); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if gotTitle != "heat" {
		t.Errorf("upstream title = %q, want trimmed", gotTitle)
	}

	if _, err := svc.Search(context.Background(), " "); !errors.Is(err, model.ErrEmptySearch) {
		t.Errorf("error = %v, want ErrEmptySearch", err)
	}
}

func TestMovieService_Detail_IncludesContext(t *testing.T) {
	repo := newMemoryUserRepository()
	seedUser(repo, "u1")
	repo.users["u1"].WatchList = []string{"tt0111161"}
	lists := NewListService(repo, nil, zap.NewNop())
	svc := NewMovieService(&mockMetadataClient{}, lists)

	resp, err := svc.Detail(context.Background(), "u1", "tt0111161")
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if !resp.Success || !resp.InWatchlist || resp.IsCurrentlyWatching {
		t.Errorf("response flags = %+v", resp)
	}
	if resp.User == nil || !resp.User.InWatchlist || resp.User.Watched {
		t.Errorf("user context = %+v", resp.User)
	}
	if string(resp.Movie) != `{"imdbID":"tt0111161","Response":"True"}` {
		t.Errorf("movie = %s, want upstream body unchanged", resp.Movie)
	}
}

func TestMovieService_Detail_UnknownUserSkipsUpstream(t *testing.T) {
	meta := &mockMetadataClient{}
	lists := NewListService(newMemoryUserRepository(), nil, zap.NewNop())
	svc := NewMovieService(meta, lists)

	_, err := svc.Detail(context.Background(), "ghost", "tt1")
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
	if meta.detailCalls != 0 {
		t.Errorf("upstream called %d times, want 0", meta.detailCalls)
	}
}

func TestMovieService_Detail_UpstreamFailure(t *testing.T) {
	repo := newMemoryUserRepository()
	seedUser(repo, "u1")
	meta := &mockMetadataClient{
		detailFn: func(ctx context.Context, movieID string) (json.RawMessage, error) {
			return nil, model.ErrUpstreamFailure
		},
	}
	svc := NewMovieService(meta, NewListService(repo, nil, zap.NewNop()))

	if _, err := svc.Detail(context.Background(), "u1", "tt1"); !errors.Is(err, model.ErrUpstreamFailure) {
		t.Errorf("error = %v, want ErrUpstreamFailure", err)
	}
}

func TestMovieService_Card(t *testing.T) {
	svc := NewMovieService(&mockMetadataClient{}, nil)

	card, err := svc.Card(context.Background(), "tt0068646")
	if err != nil || card.ImdbID != "tt0068646" {
		t.Fatalf("Card = %+v, %v", card, err)
	}
	if _, err := svc.Card(context.Background(), ""); !errors.Is(err, model.ErrInvalidMovieID) {
		t.Errorf("error = %v, want ErrInvalidMovieID", err)
	}
}
