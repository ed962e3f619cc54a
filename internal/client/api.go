package client

import (
	"context"
	"net/http"
	"net/url"

	"movietrack/internal/model"
)

// Me fetches the current user and refreshes the cached copy.
func (s *Session) Me(ctx context.Context) (*model.User, error) {
	if s.currentToken() == "" {
		return nil, ErrNotAuthenticated
	}

	var resp struct {
		User *model.User `json:"user"`
	}
	if err := s.do(ctx, http.MethodGet, "/me", nil, &resp); err != nil {
		return nil, err
	}
	s.setUser(resp.User)
	return resp.User, nil
}

func (s *Session) Search(ctx context.Context, title string) ([]model.MovieSummary, error) {
	var resp struct {
		Data []model.MovieSummary `json:"data"`
	}
	path := "/search?" + url.Values{"title": {title}}.Encode()
	if err := s.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Movie returns the upstream detail together with the user's context.
func (s *Session) Movie(ctx context.Context, movieID string) (*model.MovieResponse, error) {
	var resp model.MovieResponse
	if err := s.do(ctx, http.MethodGet, "/movie/"+url.PathEscape(movieID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Session) Card(ctx context.Context, movieID string) (*model.MovieSummary, error) {
	var resp struct {
		Data *model.MovieSummary `json:"data"`
	}
	if err := s.do(ctx, http.MethodGet, "/card/"+url.PathEscape(movieID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (s *Session) SetWatchlist(ctx context.Context, movieID string, in bool) (bool, error) {
	var resp struct {
		InWatchlist bool `json:"inWatchlist"`
	}
	err := s.do(ctx, http.MethodPost, "/movie/"+url.PathEscape(movieID)+"/addWatchlist", model.MembershipRequest{ChangeTo: &in}, &resp)
	return resp.InWatchlist, err
}

func (s *Session) SetCurrentlyWatching(ctx context.Context, movieID string, watching bool) (bool, error) {
	var resp struct {
		IsCurrentlyWatching bool `json:"isCurrentlyWatching"`
	}
	err := s.do(ctx, http.MethodPost, "/movie/"+url.PathEscape(movieID)+"/addCurrentlyWatching", model.MembershipRequest{ChangeTo: &watching}, &resp)
	return resp.IsCurrentlyWatching, err
}

// Review applies a partial update to the watched entry; nil fields are kept.
func (s *Session) Review(ctx context.Context, movieID string, in model.ReviewInput) (*model.WatchedEntry, error) {
	var resp struct {
		Data *model.WatchedEntry `json:"data"`
	}
	if err := s.do(ctx, http.MethodPost, "/movie/"+url.PathEscape(movieID)+"/review", in, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (s *Session) SetLiked(ctx context.Context, movieID string, liked bool) (bool, error) {
	var resp struct {
		Data struct {
			Liked bool `json:"liked"`
		} `json:"data"`
	}
	err := s.do(ctx, http.MethodPatch, "/movie/"+url.PathEscape(movieID)+"/liked", model.LikedRequest{Liked: &liked}, &resp)
	return resp.Data.Liked, err
}
