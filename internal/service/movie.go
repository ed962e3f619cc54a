package service

import (
	"context"
	"strings"

	"movietrack/internal/metadata"
	"movietrack/internal/model"
)

// MovieContextProvider resolves a user's list state for one movie.
type MovieContextProvider interface {
	GetMovieContext(ctx context.Context, userID, movieID string) (*model.MovieContext, error)
}

// MovieService combines OMDb metadata with the caller's list state.
type MovieService struct {
	meta  metadata.Client
	lists MovieContextProvider
}

func NewMovieService(meta metadata.Client, lists MovieContextProvider) *MovieService {
	return &MovieService{meta: meta, lists: lists}
}

func (s *MovieService) Search(ctx context.Context, title string) ([]model.MovieSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, model.ErrEmptySearch
	}
	return s.meta.Search(ctx, title)
}

// Detail returns the full OMDb record for movieID with userID's context.
// The user is resolved first so a stale token never costs an upstream call.
func (s *MovieService) Detail(ctx context.Context, userID, movieID string) (*model.MovieResponse, error) {
	movieID, err := cleanMovieID(movieID)
	if err != nil {
		return nil, err
	}

	mc, err := s.lists.GetMovieContext(ctx, userID, movieID)
	if err != nil {
		return nil, err
	}

	detail, err := s.meta.Detail(ctx, movieID)
	if err != nil {
		return nil, err
	}

	return &model.MovieResponse{
		Success:             true,
		Movie:               detail,
		User:                mc,
		InWatchlist:         mc.InWatchlist,
		IsCurrentlyWatching: mc.IsCurrentlyWatching,
	}, nil
}

func (s *MovieService) Card(ctx context.Context, movieID string) (*model.MovieSummary, error) {
	movieID, err := cleanMovieID(movieID)
	if err != nil {
		return nil, err
	}
	return s.meta.Card(ctx, movieID)
}
